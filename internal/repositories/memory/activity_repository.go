package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckInRepository implements repositories.CheckInRepository in memory
type CheckInRepository struct {
	store *Store
}

// NewCheckInRepository creates a new CheckInRepository
func NewCheckInRepository(store *Store) *CheckInRepository {
	return &CheckInRepository{store: store}
}

var _ repositories.CheckInRepository = (*CheckInRepository)(nil)

func (r *CheckInRepository) Create(ctx context.Context, checkIn *models.DailyCheckIn) error {
	return r.store.do(ctx, func(d *dataset) error {
		for _, c := range d.checkIns {
			if c.UserID == checkIn.UserID && c.CheckInDate.Equal(checkIn.CheckInDate) {
				return repositories.ErrDuplicate
			}
		}
		if checkIn.ID.IsZero() {
			checkIn.ID = primitive.NewObjectID()
		}
		checkIn.CreatedAt = time.Now()
		d.checkIns = append(d.checkIns, *checkIn)
		return nil
	})
}

func (r *CheckInRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.DailyCheckIn, error) {
	found := []*models.DailyCheckIn{}
	err := r.store.do(ctx, func(d *dataset) error {
		for _, c := range d.checkIns {
			if c.UserID == userID {
				c := c
				found = append(found, &c)
			}
		}
		return nil
	})
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].CheckInDate.After(found[j].CheckInDate)
	})
	if limit > 0 && int64(len(found)) > limit {
		found = found[:limit]
	}
	return found, err
}

// PointTransactionRepository implements repositories.PointTransactionRepository in memory
type PointTransactionRepository struct {
	store *Store
}

// NewPointTransactionRepository creates a new PointTransactionRepository
func NewPointTransactionRepository(store *Store) *PointTransactionRepository {
	return &PointTransactionRepository{store: store}
}

var _ repositories.PointTransactionRepository = (*PointTransactionRepository)(nil)

func (r *PointTransactionRepository) Create(ctx context.Context, transaction *models.PointTransaction) error {
	return r.store.do(ctx, func(d *dataset) error {
		if transaction.ID.IsZero() {
			transaction.ID = primitive.NewObjectID()
		}
		transaction.CreatedAt = time.Now()
		d.pointTxns = append(d.pointTxns, *transaction)
		return nil
	})
}

func (r *PointTransactionRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.PointTransaction, error) {
	found := []*models.PointTransaction{}
	err := r.store.do(ctx, func(d *dataset) error {
		for _, t := range d.pointTxns {
			if t.UserID == userID {
				t := t
				found = append(found, &t)
			}
		}
		return nil
	})
	return found, err
}

// NotificationRepository implements repositories.NotificationRepository in memory
type NotificationRepository struct {
	store *Store
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(store *Store) *NotificationRepository {
	return &NotificationRepository{store: store}
}

var _ repositories.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.store.do(ctx, func(d *dataset) error {
		if notification.ID.IsZero() {
			notification.ID = primitive.NewObjectID()
		}
		notification.CreatedAt = time.Now()
		d.notifications = append(d.notifications, *notification)
		return nil
	})
}

func (r *NotificationRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]*models.Notification, error) {
	found := []*models.Notification{}
	err := r.store.do(ctx, func(d *dataset) error {
		for i := len(d.notifications) - 1; i >= 0; i-- {
			n := d.notifications[i]
			if n.UserID == userID {
				found = append(found, &n)
			}
		}
		return nil
	})
	if skip >= int64(len(found)) {
		return []*models.Notification{}, err
	}
	found = found[skip:]
	if limit > 0 && int64(len(found)) > limit {
		found = found[:limit]
	}
	return found, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id primitive.ObjectID, at time.Time) error {
	return r.store.do(ctx, func(d *dataset) error {
		for i, n := range d.notifications {
			if n.ID == id && n.UserID == userID {
				d.notifications[i].IsRead = true
				d.notifications[i].ReadAt = &at
				return nil
			}
		}
		return repositories.ErrNotFound
	})
}
