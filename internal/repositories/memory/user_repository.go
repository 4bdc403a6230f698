package memory

import (
	"context"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository implements repositories.UserRepository in memory
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.store.do(ctx, func(d *dataset) error {
		if user.ID.IsZero() {
			user.ID = primitive.NewObjectID()
		}
		if _, ok := d.users[user.ID]; ok {
			return repositories.ErrDuplicate
		}
		user.CreatedAt = time.Now()
		user.UpdatedAt = user.CreatedAt
		d.users[user.ID] = *user
		return nil
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var found *models.User
	err := r.store.do(ctx, func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		found = &u
		return nil
	})
	return found, err
}

func (r *UserRepository) Lock(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.User, error) {
	var found *models.User
	err := r.store.do(ctx, func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		u.LastSpinAt = &at
		d.users[id] = u
		found = &u
		return nil
	})
	return found, err
}

func (r *UserRepository) CreditPoints(ctx context.Context, id primitive.ObjectID, points int) error {
	return r.store.do(ctx, func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		u.PointsBalance += points
		u.PointsLifetime += points
		u.UpdatedAt = time.Now()
		d.users[id] = u
		return nil
	})
}

func (r *UserRepository) DebitPoints(ctx context.Context, id primitive.ObjectID, points int) error {
	return r.store.do(ctx, func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		if u.PointsBalance < points {
			return repositories.ErrGuardFailed
		}
		u.PointsBalance -= points
		u.UpdatedAt = time.Now()
		d.users[id] = u
		return nil
	})
}

func (r *UserRepository) UpdateCheckIn(ctx context.Context, id primitive.ObjectID, day time.Time, streak int) error {
	return r.store.do(ctx, func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		u.LastCheckInDate = &day
		u.TotalStreak = streak
		u.UpdatedAt = time.Now()
		d.users[id] = u
		return nil
	})
}
