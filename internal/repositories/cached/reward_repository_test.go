package cached

import (
	"context"
	"testing"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type countingRewards struct {
	repositories.RewardRepository
	rewards map[primitive.ObjectID]models.Reward
	calls   int
}

func (c *countingRewards) FindByID(_ context.Context, id primitive.ObjectID) (*models.Reward, error) {
	c.calls++
	rw, ok := c.rewards[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &rw, nil
}

func (c *countingRewards) Upsert(_ context.Context, reward *models.Reward) error {
	c.rewards[reward.ID] = *reward
	return nil
}

func (c *countingRewards) DecrementStock(_ context.Context, id primitive.ObjectID) error {
	rw, ok := c.rewards[id]
	if !ok || rw.StockRemaining == nil || *rw.StockRemaining <= 0 {
		return repositories.ErrGuardFailed
	}
	left := *rw.StockRemaining - 1
	rw.StockRemaining = &left
	c.rewards[id] = rw
	return nil
}

func TestRewardRepositoryCachesHits(t *testing.T) {
	id := primitive.NewObjectID()
	backing := &countingRewards{rewards: map[primitive.ObjectID]models.Reward{
		id: {ID: id, Title: "Free coffee", ValidityDays: 14},
	}}
	repo := NewRewardRepository(backing, 1024*1024, 60)

	for i := 0; i < 3; i++ {
		rw, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Free coffee", rw.Title)
	}
	assert.Equal(t, 1, backing.calls)
}

func TestRewardRepositoryDoesNotCacheMisses(t *testing.T) {
	id := primitive.NewObjectID()
	backing := &countingRewards{rewards: map[primitive.ObjectID]models.Reward{}}
	repo := NewRewardRepository(backing, 1024*1024, 60)

	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.Upsert(context.Background(), &models.Reward{ID: id, Title: "Cake"}))
	rw, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Cake", rw.Title)
}

func TestRewardRepositoryUpsertInvalidates(t *testing.T) {
	id := primitive.NewObjectID()
	backing := &countingRewards{rewards: map[primitive.ObjectID]models.Reward{
		id: {ID: id, Title: "Old"},
	}}
	repo := NewRewardRepository(backing, 1024*1024, 60)

	_, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(context.Background(), &models.Reward{ID: id, Title: "New"}))

	rw, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "New", rw.Title)
	assert.Equal(t, 2, backing.calls)
}

func TestRewardRepositoryDecrementDropsCachedStock(t *testing.T) {
	id := primitive.NewObjectID()
	two := 2
	backing := &countingRewards{rewards: map[primitive.ObjectID]models.Reward{
		id: {ID: id, Title: "Tote bag", StockQuantity: &two, StockRemaining: &two},
	}}
	repo := NewRewardRepository(backing, 1024*1024, 60)

	rw, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, *rw.StockRemaining)

	require.NoError(t, repo.DecrementStock(context.Background(), id))
	rw, err = repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, *rw.StockRemaining)
	assert.Equal(t, 2, backing.calls)
}
