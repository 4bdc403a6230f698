package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawRepository implements repositories.DrawRepository in memory
type DrawRepository struct {
	store *Store
}

// NewDrawRepository creates a new DrawRepository
func NewDrawRepository(store *Store) *DrawRepository {
	return &DrawRepository{store: store}
}

var _ repositories.DrawRepository = (*DrawRepository)(nil)

func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	return r.store.do(ctx, func(d *dataset) error {
		if draw.ID.IsZero() {
			draw.ID = primitive.NewObjectID()
		}
		draw.CreatedAt = time.Now()
		draw.UpdatedAt = draw.CreatedAt
		d.draws[draw.ID] = *draw
		return nil
	})
}

func (r *DrawRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Draw, error) {
	var found *models.Draw
	err := r.store.do(ctx, func(d *dataset) error {
		draw, ok := d.draws[id]
		if !ok || draw.DeletedAt != nil {
			return repositories.ErrNotFound
		}
		found = &draw
		return nil
	})
	return found, err
}

func (r *DrawRepository) list(ctx context.Context, match func(models.Draw) bool) ([]*models.Draw, error) {
	draws := []*models.Draw{}
	err := r.store.do(ctx, func(d *dataset) error {
		for _, draw := range d.draws {
			if draw.DeletedAt == nil && match(draw) {
				draw := draw
				draws = append(draws, &draw)
			}
		}
		return nil
	})
	sort.Slice(draws, func(i, j int) bool {
		return draws[i].CreatedAt.After(draws[j].CreatedAt)
	})
	return draws, err
}

func (r *DrawRepository) FindByMerchant(ctx context.Context, merchantID primitive.ObjectID) ([]*models.Draw, error) {
	return r.list(ctx, func(draw models.Draw) bool {
		return draw.MerchantID == merchantID
	})
}

func (r *DrawRepository) FindActiveByMerchant(ctx context.Context, merchantID primitive.ObjectID) ([]*models.Draw, error) {
	return r.list(ctx, func(draw models.Draw) bool {
		return draw.MerchantID == merchantID && draw.IsActive
	})
}

func (r *DrawRepository) FindActiveDay7(ctx context.Context, merchantID *primitive.ObjectID) (*models.Draw, error) {
	draws, err := r.list(ctx, func(draw models.Draw) bool {
		if merchantID != nil && draw.MerchantID != *merchantID {
			return false
		}
		return draw.IsActive && draw.IsDay7Draw
	})
	if err != nil {
		return nil, err
	}
	if len(draws) == 0 {
		return nil, repositories.ErrNotFound
	}
	return draws[0], nil
}

func (r *DrawRepository) CountActiveDay7(ctx context.Context, merchantID primitive.ObjectID, excludeID *primitive.ObjectID) (int64, error) {
	draws, err := r.list(ctx, func(draw models.Draw) bool {
		if excludeID != nil && draw.ID == *excludeID {
			return false
		}
		return draw.MerchantID == merchantID && draw.IsActive && draw.IsDay7Draw
	})
	return int64(len(draws)), err
}

func (r *DrawRepository) Update(ctx context.Context, draw *models.Draw) error {
	return r.store.do(ctx, func(d *dataset) error {
		current, ok := d.draws[draw.ID]
		if !ok || current.DeletedAt != nil {
			return repositories.ErrNotFound
		}
		draw.UpdatedAt = time.Now()
		draw.TotalAvailableSpins = current.TotalAvailableSpins
		draw.RemainingSpins = current.RemainingSpins
		draw.MerchantID = current.MerchantID
		draw.CreatedAt = current.CreatedAt
		d.draws[draw.ID] = *draw
		return nil
	})
}

func (r *DrawRepository) ResizeSpins(ctx context.Context, id primitive.ObjectID, from, to *int, used int) error {
	return r.store.do(ctx, func(d *dataset) error {
		draw, ok := d.draws[id]
		if !ok || draw.DeletedAt != nil {
			return repositories.ErrGuardFailed
		}
		if err := resize(&draw.TotalAvailableSpins, &draw.RemainingSpins, from, to, used); err != nil {
			return err
		}
		draw.UpdatedAt = time.Now()
		d.draws[id] = draw
		return nil
	})
}

func (r *DrawRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.store.do(ctx, func(d *dataset) error {
		draw, ok := d.draws[id]
		if !ok || draw.DeletedAt != nil {
			return repositories.ErrNotFound
		}
		now := time.Now()
		draw.IsActive = false
		draw.DeletedAt = &now
		draw.UpdatedAt = now
		d.draws[id] = draw
		for pid, p := range d.prizes {
			if p.DrawID == id {
				delete(d.prizes, pid)
			}
		}
		return nil
	})
}

func (r *DrawRepository) DecrementRemainingSpins(ctx context.Context, id primitive.ObjectID) error {
	return r.store.do(ctx, func(d *dataset) error {
		draw, ok := d.draws[id]
		if !ok {
			return repositories.ErrNotFound
		}
		if draw.RemainingSpins == nil || *draw.RemainingSpins <= 0 {
			return repositories.ErrGuardFailed
		}
		draw.RemainingSpins = intPtr(*draw.RemainingSpins - 1)
		draw.UpdatedAt = time.Now()
		d.draws[id] = draw
		return nil
	})
}
