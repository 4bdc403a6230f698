package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RewardRepository implements repositories.RewardRepository in memory
type RewardRepository struct {
	store *Store
}

// NewRewardRepository creates a new RewardRepository
func NewRewardRepository(store *Store) *RewardRepository {
	return &RewardRepository{store: store}
}

var _ repositories.RewardRepository = (*RewardRepository)(nil)

func (r *RewardRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Reward, error) {
	var found *models.Reward
	err := r.store.do(ctx, func(d *dataset) error {
		rw, ok := d.rewards[id]
		if !ok {
			return repositories.ErrNotFound
		}
		found = &rw
		return nil
	})
	return found, err
}

func (r *RewardRepository) Upsert(ctx context.Context, reward *models.Reward) error {
	return r.store.do(ctx, func(d *dataset) error {
		if reward.ID.IsZero() {
			reward.ID = primitive.NewObjectID()
		}
		now := time.Now()
		existing, ok := d.rewards[reward.ID]
		if ok {
			reward.CreatedAt = existing.CreatedAt
		} else {
			reward.CreatedAt = now
		}
		if reward.StockQuantity != nil {
			reward.StockRemaining = intPtr(models.ResizedRemaining(existing.StockRemaining, existing.StockQuantity, *reward.StockQuantity, 0))
		} else {
			reward.StockRemaining = nil
		}
		reward.UpdatedAt = now
		d.rewards[reward.ID] = *reward
		return nil
	})
}

func (r *RewardRepository) DecrementStock(ctx context.Context, id primitive.ObjectID) error {
	return r.store.do(ctx, func(d *dataset) error {
		rw, ok := d.rewards[id]
		if !ok {
			return repositories.ErrNotFound
		}
		if !rw.IsActive || rw.StockRemaining == nil || *rw.StockRemaining <= 0 {
			return repositories.ErrGuardFailed
		}
		rw.StockRemaining = intPtr(*rw.StockRemaining - 1)
		rw.UpdatedAt = time.Now()
		d.rewards[id] = rw
		return nil
	})
}

// RedemptionRepository implements repositories.RedemptionRepository in memory
type RedemptionRepository struct {
	store *Store
}

// NewRedemptionRepository creates a new RedemptionRepository
func NewRedemptionRepository(store *Store) *RedemptionRepository {
	return &RedemptionRepository{store: store}
}

var _ repositories.RedemptionRepository = (*RedemptionRepository)(nil)

func (r *RedemptionRepository) Create(ctx context.Context, redemption *models.RewardRedemption) error {
	return r.store.do(ctx, func(d *dataset) error {
		for _, existing := range d.redemptions {
			if existing.RedemptionCode == redemption.RedemptionCode {
				return repositories.ErrDuplicate
			}
		}
		if redemption.ID.IsZero() {
			redemption.ID = primitive.NewObjectID()
		}
		redemption.CreatedAt = time.Now()
		redemption.UpdatedAt = redemption.CreatedAt
		d.redemptions[redemption.ID] = *redemption
		return nil
	})
}

func (r *RedemptionRepository) FindByCode(ctx context.Context, code string) (*models.RewardRedemption, error) {
	var found *models.RewardRedemption
	err := r.store.do(ctx, func(d *dataset) error {
		for _, rd := range d.redemptions {
			if rd.RedemptionCode == code {
				rd := rd
				found = &rd
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return found, err
}

func (r *RedemptionRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByCode(ctx, code)
	if err == repositories.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *RedemptionRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, status models.RedemptionStatus) ([]*models.RewardRedemption, error) {
	found := []*models.RewardRedemption{}
	err := r.store.do(ctx, func(d *dataset) error {
		for _, rd := range d.redemptions {
			if rd.UserID != userID || (status != "" && rd.Status != status) {
				continue
			}
			rd := rd
			found = append(found, &rd)
		}
		return nil
	})
	return found, err
}

func (r *RedemptionRepository) FindByMerchant(ctx context.Context, merchantID primitive.ObjectID, branchID *primitive.ObjectID, status models.RedemptionStatus) ([]*models.RewardRedemption, error) {
	found := []*models.RewardRedemption{}
	err := r.store.do(ctx, func(d *dataset) error {
		for _, rd := range d.redemptions {
			if rd.MerchantID != merchantID || (status != "" && rd.Status != status) {
				continue
			}
			if branchID != nil && (rd.UsedAtBranchID == nil || *rd.UsedAtBranchID != *branchID) {
				continue
			}
			rd := rd
			found = append(found, &rd)
		}
		return nil
	})
	sort.Slice(found, func(i, j int) bool {
		return found[i].CreatedAt.After(found[j].CreatedAt)
	})
	return found, err
}

func (r *RedemptionRepository) CountByUserAndReward(ctx context.Context, userID, rewardID primitive.ObjectID) (int64, error) {
	var n int64
	err := r.store.do(ctx, func(d *dataset) error {
		for _, rd := range d.redemptions {
			if rd.UserID == userID && rd.RewardID == rewardID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *RedemptionRepository) UpdateStatus(ctx context.Context, redemption *models.RewardRedemption) error {
	return r.store.do(ctx, func(d *dataset) error {
		existing, ok := d.redemptions[redemption.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		existing.Status = redemption.Status
		existing.UsedAt = redemption.UsedAt
		existing.UsedAtBranchID = redemption.UsedAtBranchID
		existing.UpdatedAt = time.Now()
		d.redemptions[redemption.ID] = existing
		return nil
	})
}

func (r *RedemptionRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.store.do(ctx, func(d *dataset) error {
		for id, rd := range d.redemptions {
			if rd.Status == models.RedemptionActive && rd.ExpiresAt.Before(now) {
				rd.Status = models.RedemptionExpired
				rd.UpdatedAt = now
				d.redemptions[id] = rd
				n++
			}
		}
		return nil
	})
	return n, err
}
