package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SpinHistoryRepository implements repositories.SpinHistoryRepository in memory
type SpinHistoryRepository struct {
	store *Store
}

// NewSpinHistoryRepository creates a new SpinHistoryRepository
func NewSpinHistoryRepository(store *Store) *SpinHistoryRepository {
	return &SpinHistoryRepository{store: store}
}

var _ repositories.SpinHistoryRepository = (*SpinHistoryRepository)(nil)

func (r *SpinHistoryRepository) Create(ctx context.Context, history *models.SpinHistory) error {
	return r.store.do(ctx, func(d *dataset) error {
		if history.ID.IsZero() {
			history.ID = primitive.NewObjectID()
		}
		for _, h := range d.histories {
			if h.ID == history.ID {
				return repositories.ErrDuplicate
			}
		}
		if history.CreatedAt.IsZero() {
			history.CreatedAt = time.Now()
		}
		d.histories = append(d.histories, *history)
		return nil
	})
}

func (r *SpinHistoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SpinHistory, error) {
	var found *models.SpinHistory
	err := r.store.do(ctx, func(d *dataset) error {
		for _, h := range d.histories {
			if h.ID == id {
				h := h
				found = &h
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return found, err
}

func (r *SpinHistoryRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, drawID *primitive.ObjectID, skip, limit int64) ([]*models.SpinHistory, int64, error) {
	var matched []*models.SpinHistory
	err := r.store.do(ctx, func(d *dataset) error {
		for _, h := range d.histories {
			if h.UserID != userID || (drawID != nil && h.DrawID != *drawID) {
				continue
			}
			h := h
			matched = append(matched, &h)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	page := []*models.SpinHistory{}
	for i := skip; i < total && i < skip+limit; i++ {
		page = append(page, matched[i])
	}
	return page, total, nil
}

func (r *SpinHistoryRepository) count(ctx context.Context, match func(models.SpinHistory) bool) (int64, error) {
	var n int64
	err := r.store.do(ctx, func(d *dataset) error {
		for _, h := range d.histories {
			if match(h) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *SpinHistoryRepository) CountForUserSince(ctx context.Context, userID, drawID primitive.ObjectID, since time.Time) (int64, error) {
	return r.count(ctx, func(h models.SpinHistory) bool {
		return h.UserID == userID && h.DrawID == drawID && !h.CreatedAt.Before(since)
	})
}

func (r *SpinHistoryRepository) CountByDraw(ctx context.Context, drawID primitive.ObjectID) (int64, error) {
	return r.count(ctx, func(h models.SpinHistory) bool {
		return h.DrawID == drawID
	})
}

func (r *SpinHistoryRepository) CountByPrize(ctx context.Context, prizeID primitive.ObjectID) (int64, error) {
	return r.count(ctx, func(h models.SpinHistory) bool {
		return h.PrizeID != nil && *h.PrizeID == prizeID
	})
}

func (r *SpinHistoryRepository) ExistsByVoucherCode(ctx context.Context, code string) (bool, error) {
	n, err := r.count(ctx, func(h models.SpinHistory) bool {
		return h.VoucherCode != nil && *h.VoucherCode == code
	})
	return n > 0, err
}

func (r *SpinHistoryRepository) SummarizeDraw(ctx context.Context, drawID primitive.ObjectID) (*models.SpinLedgerSummary, error) {
	summary := &models.SpinLedgerSummary{WinsByPrize: map[primitive.ObjectID]int64{}}
	err := r.store.do(ctx, func(d *dataset) error {
		users := map[primitive.ObjectID]struct{}{}
		for _, h := range d.histories {
			if h.DrawID != drawID {
				continue
			}
			summary.TotalSpins++
			switch h.SpinType {
			case models.SpinTypeDay7Checkin:
				summary.Day7Spins++
			case models.SpinTypePointsRedemption:
				summary.PointsSpins++
			}
			summary.TotalPointsAwarded += int64(h.AwardedPoints)
			summary.TotalPointsSpent += int64(h.PointsSpent)
			users[h.UserID] = struct{}{}
			if h.PrizeID != nil {
				summary.WinsByPrize[*h.PrizeID]++
			}
		}
		summary.UniqueParticipants = int64(len(users))
		return nil
	})
	return summary, err
}
