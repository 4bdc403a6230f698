package memory

import (
	"context"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrizeRepository implements repositories.PrizeRepository in memory
type PrizeRepository struct {
	store *Store
}

// NewPrizeRepository creates a new PrizeRepository
func NewPrizeRepository(store *Store) *PrizeRepository {
	return &PrizeRepository{store: store}
}

var _ repositories.PrizeRepository = (*PrizeRepository)(nil)

func (r *PrizeRepository) Create(ctx context.Context, prize *models.Prize) error {
	return r.store.do(ctx, func(d *dataset) error {
		if prize.ID.IsZero() {
			prize.ID = primitive.NewObjectID()
		}
		prize.CreatedAt = time.Now()
		prize.UpdatedAt = prize.CreatedAt
		d.prizes[prize.ID] = *prize
		return nil
	})
}

func (r *PrizeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prize, error) {
	var found *models.Prize
	err := r.store.do(ctx, func(d *dataset) error {
		p, ok := d.prizes[id]
		if !ok {
			return repositories.ErrNotFound
		}
		found = &p
		return nil
	})
	return found, err
}

func (r *PrizeRepository) find(ctx context.Context, drawID primitive.ObjectID, eligibleOnly bool) ([]*models.Prize, error) {
	prizes := []*models.Prize{}
	err := r.store.do(ctx, func(d *dataset) error {
		for _, p := range d.prizes {
			if p.DrawID != drawID || (eligibleOnly && !p.IsEligible()) {
				continue
			}
			p := p
			prizes = append(prizes, &p)
		}
		return nil
	})
	models.SortPrizes(prizes)
	return prizes, err
}

func (r *PrizeRepository) FindByDraw(ctx context.Context, drawID primitive.ObjectID) ([]*models.Prize, error) {
	return r.find(ctx, drawID, false)
}

func (r *PrizeRepository) FindEligibleByDraw(ctx context.Context, drawID primitive.ObjectID) ([]*models.Prize, error) {
	return r.find(ctx, drawID, true)
}

func (r *PrizeRepository) Update(ctx context.Context, prize *models.Prize) error {
	return r.store.do(ctx, func(d *dataset) error {
		current, ok := d.prizes[prize.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		prize.UpdatedAt = time.Now()
		prize.DrawID = current.DrawID
		prize.StockQuantity = current.StockQuantity
		prize.StockRemaining = current.StockRemaining
		prize.CreatedAt = current.CreatedAt
		d.prizes[prize.ID] = *prize
		return nil
	})
}

func (r *PrizeRepository) ResizeStock(ctx context.Context, id primitive.ObjectID, from, to *int, used int) error {
	return r.store.do(ctx, func(d *dataset) error {
		p, ok := d.prizes[id]
		if !ok {
			return repositories.ErrGuardFailed
		}
		if err := resize(&p.StockQuantity, &p.StockRemaining, from, to, used); err != nil {
			return err
		}
		p.UpdatedAt = time.Now()
		d.prizes[id] = p
		return nil
	})
}

func (r *PrizeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.store.do(ctx, func(d *dataset) error {
		if _, ok := d.prizes[id]; !ok {
			return repositories.ErrNotFound
		}
		delete(d.prizes, id)
		return nil
	})
}

func (r *PrizeRepository) DecrementStock(ctx context.Context, id primitive.ObjectID) error {
	return r.store.do(ctx, func(d *dataset) error {
		p, ok := d.prizes[id]
		if !ok {
			return repositories.ErrNotFound
		}
		if p.StockRemaining == nil || *p.StockRemaining <= 0 {
			return repositories.ErrGuardFailed
		}
		p.StockRemaining = intPtr(*p.StockRemaining - 1)
		p.UpdatedAt = time.Now()
		d.prizes[id] = p
		return nil
	})
}
