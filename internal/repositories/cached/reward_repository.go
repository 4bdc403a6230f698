// Package cached decorates catalog reads with an in-process freecache layer.
package cached

import (
	"context"
	"encoding/json"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"github.com/coocood/freecache"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// RewardRepository serves catalog lookups from memory before the backing store.
// Misses are not cached, so a reward created after a failed lookup is seen
// on the next call.
type RewardRepository struct {
	next  repositories.RewardRepository
	cache *freecache.Cache
	ttl   int
}

var _ repositories.RewardRepository = (*RewardRepository)(nil)

// NewRewardRepository wraps next with a cache of sizeBytes holding entries for ttlSeconds.
func NewRewardRepository(next repositories.RewardRepository, sizeBytes, ttlSeconds int) *RewardRepository {
	return &RewardRepository{
		next:  next,
		cache: freecache.NewCache(sizeBytes),
		ttl:   ttlSeconds,
	}
}

func (r *RewardRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Reward, error) {
	key := id[:]
	if data, err := r.cache.Get(key); err == nil {
		var reward models.Reward
		if err := json.Unmarshal(data, &reward); err == nil {
			return &reward, nil
		}
		r.cache.Del(key)
	}

	reward, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(reward); err == nil {
		if err := r.cache.Set(key, data, r.ttl); err != nil {
			slog.Debug("reward not cached", "rewardId", id.Hex(), "error", err)
		}
	}
	return reward, nil
}

func (r *RewardRepository) Upsert(ctx context.Context, reward *models.Reward) error {
	if err := r.next.Upsert(ctx, reward); err != nil {
		return err
	}
	r.cache.Del(reward.ID[:])
	return nil
}

// DecrementStock always hits the backing store and drops the cached entry so
// the next read sees the new stock.
func (r *RewardRepository) DecrementStock(ctx context.Context, id primitive.ObjectID) error {
	err := r.next.DecrementStock(ctx, id)
	r.cache.Del(id[:])
	return err
}
