//go:build integration

package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	client "github.com/ArowuTest/loyalty-backend/pkg/mongodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// openTestDatabase connects to MONGODB_URI and returns a fresh database with
// the production indexes. Run with: go test -tags integration ./internal/repositories/mongodb
func openTestDatabase(t *testing.T) (context.Context, *mongo.Database) {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	name := fmt.Sprintf("lucky_draw_it_%s", primitive.NewObjectID().Hex())
	c, err := client.NewClient(ctx, uri, name)
	require.NoError(t, err)
	db := c.Database()
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = c.Disconnect(context.Background())
	})
	require.NoError(t, EnsureIndexes(ctx, db))
	return ctx, db
}

func TestMongoDecrementsStopAtZero(t *testing.T) {
	ctx, db := openTestDatabase(t)
	draws := NewDrawRepository(db)
	prizes := NewPrizeRepository(db)

	draw := &models.Draw{MerchantID: primitive.NewObjectID(), Name: "Weekend", IsActive: true,
		TotalAvailableSpins: intPtr(1), RemainingSpins: intPtr(1)}
	require.NoError(t, draws.Create(ctx, draw))
	require.NoError(t, draws.DecrementRemainingSpins(ctx, draw.ID))
	assert.ErrorIs(t, draws.DecrementRemainingSpins(ctx, draw.ID), repositories.ErrGuardFailed)

	prize := &models.Prize{DrawID: draw.ID, Name: "Mug", PrizeType: models.PrizeTypePoints, PointsAmount: intPtr(5),
		ProbabilityWeight: 1, StockQuantity: intPtr(1), StockRemaining: intPtr(1)}
	require.NoError(t, prizes.Create(ctx, prize))
	require.NoError(t, prizes.DecrementStock(ctx, prize.ID))
	assert.ErrorIs(t, prizes.DecrementStock(ctx, prize.ID), repositories.ErrGuardFailed)

	stored, err := prizes.FindByID(ctx, prize.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *stored.StockRemaining)

	unlimited := &models.Draw{MerchantID: draw.MerchantID, Name: "Open", IsActive: true}
	require.NoError(t, draws.Create(ctx, unlimited))
	assert.ErrorIs(t, draws.DecrementRemainingSpins(ctx, unlimited.ID), repositories.ErrGuardFailed)
}

func TestMongoDebitPointsGuardsBalance(t *testing.T) {
	ctx, db := openTestDatabase(t)
	users := NewUserRepository(db)

	user := &models.User{Name: "Ada", PointsBalance: 30, PointsLifetime: 30}
	require.NoError(t, users.Create(ctx, user))

	require.NoError(t, users.DebitPoints(ctx, user.ID, 30))
	assert.ErrorIs(t, users.DebitPoints(ctx, user.ID, 1), repositories.ErrGuardFailed)

	stored, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.PointsBalance)
	assert.Equal(t, 30, stored.PointsLifetime)
}

func TestMongoSummarizeDraw(t *testing.T) {
	ctx, db := openTestDatabase(t)
	history := NewSpinHistoryRepository(db)

	drawID := primitive.NewObjectID()
	prizeID := primitive.NewObjectID()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	spins := []*models.SpinHistory{
		{UserID: alice, DrawID: drawID, SpinType: models.SpinTypePointsRedemption, PointsSpent: 10, PrizeID: &prizeID, AwardedPoints: 50},
		{UserID: alice, DrawID: drawID, SpinType: models.SpinTypePointsRedemption, PointsSpent: 10},
		{UserID: bob, DrawID: drawID, SpinType: models.SpinTypeDay7Checkin, PrizeID: &prizeID, AwardedPoints: 50},
		{UserID: bob, DrawID: primitive.NewObjectID(), SpinType: models.SpinTypeDay7Checkin},
	}
	for _, s := range spins {
		require.NoError(t, history.Create(ctx, s))
	}

	summary, err := history.SummarizeDraw(ctx, drawID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalSpins)
	assert.Equal(t, int64(1), summary.Day7Spins)
	assert.Equal(t, int64(2), summary.PointsSpins)
	assert.Equal(t, int64(100), summary.TotalPointsAwarded)
	assert.Equal(t, int64(20), summary.TotalPointsSpent)
	assert.Equal(t, int64(2), summary.UniqueParticipants)
	assert.Equal(t, map[primitive.ObjectID]int64{prizeID: 2}, summary.WinsByPrize)

	empty, err := history.SummarizeDraw(ctx, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Zero(t, empty.TotalSpins)
	assert.Empty(t, empty.WinsByPrize)
}

func TestMongoOneActiveDay7DrawPerMerchant(t *testing.T) {
	ctx, db := openTestDatabase(t)
	draws := NewDrawRepository(db)
	merchantID := primitive.NewObjectID()

	first := &models.Draw{MerchantID: merchantID, Name: "Day 7", IsDay7Draw: true, IsActive: true}
	require.NoError(t, draws.Create(ctx, first))

	second := &models.Draw{MerchantID: merchantID, Name: "Day 7 again", IsDay7Draw: true, IsActive: true}
	assert.ErrorIs(t, draws.Create(ctx, second), repositories.ErrDuplicate)

	inactive := &models.Draw{MerchantID: merchantID, Name: "Day 7 draft", IsDay7Draw: true}
	require.NoError(t, draws.Create(ctx, inactive))
	other := &models.Draw{MerchantID: primitive.NewObjectID(), Name: "Day 7", IsDay7Draw: true, IsActive: true}
	require.NoError(t, draws.Create(ctx, other))

	require.NoError(t, draws.Delete(ctx, first.ID))
	_, err := draws.FindByID(ctx, first.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	replacement := &models.Draw{MerchantID: merchantID, Name: "Day 7 v2", IsDay7Draw: true, IsActive: true}
	require.NoError(t, draws.Create(ctx, replacement))
	found, err := draws.FindActiveDay7(ctx, &merchantID)
	require.NoError(t, err)
	assert.Equal(t, replacement.ID, found.ID)
}

func TestMongoResizeStockKeepsConcurrentWins(t *testing.T) {
	ctx, db := openTestDatabase(t)
	prizes := NewPrizeRepository(db)

	prize := &models.Prize{DrawID: primitive.NewObjectID(), Name: "Mug", PrizeType: models.PrizeTypePoints, PointsAmount: intPtr(5),
		ProbabilityWeight: 1, StockQuantity: intPtr(5), StockRemaining: intPtr(5)}
	require.NoError(t, prizes.Create(ctx, prize))
	require.NoError(t, prizes.DecrementStock(ctx, prize.ID))

	require.NoError(t, prizes.ResizeStock(ctx, prize.ID, intPtr(5), intPtr(8), 0))
	stored, err := prizes.FindByID(ctx, prize.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, *stored.StockQuantity)
	assert.Equal(t, 7, *stored.StockRemaining)

	assert.ErrorIs(t, prizes.ResizeStock(ctx, prize.ID, intPtr(5), intPtr(2), 0), repositories.ErrGuardFailed)

	require.NoError(t, prizes.ResizeStock(ctx, prize.ID, intPtr(8), intPtr(0), 0))
	stored, err = prizes.FindByID(ctx, prize.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *stored.StockRemaining)

	require.NoError(t, prizes.ResizeStock(ctx, prize.ID, intPtr(0), nil, 0))
	stored, err = prizes.FindByID(ctx, prize.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.StockQuantity)
	assert.Nil(t, stored.StockRemaining)
}

func TestMongoRewardStock(t *testing.T) {
	ctx, db := openTestDatabase(t)
	rewards := NewRewardRepository(db)

	reward := &models.Reward{ID: primitive.NewObjectID(), MerchantID: primitive.NewObjectID(),
		Title: "$5 off", PointsCost: 10, ValidityDays: 7, IsActive: true, StockQuantity: intPtr(2)}
	require.NoError(t, rewards.Upsert(ctx, reward))
	require.NoError(t, rewards.DecrementStock(ctx, reward.ID))

	reward.StockQuantity = intPtr(4)
	require.NoError(t, rewards.Upsert(ctx, reward))
	stored, err := rewards.FindByID(ctx, reward.ID)
	require.NoError(t, err)
	assert.Equal(t, "$5 off", stored.Title)
	assert.Equal(t, 3, *stored.StockRemaining)

	for i := 0; i < 3; i++ {
		require.NoError(t, rewards.DecrementStock(ctx, reward.ID))
	}
	assert.ErrorIs(t, rewards.DecrementStock(ctx, reward.ID), repositories.ErrGuardFailed)
}

func intPtr(v int) *int {
	return &v
}
