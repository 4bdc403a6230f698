package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSpinPointsPrizeConservesPoints(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 100)
	draw := env.draw(t, models.Draw{PointsCostPerSpin: 10, MaxSpinsPerUserDay: 5})
	env.pointsPrize(t, draw.ID, 25, 1)

	result, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	require.NoError(t, err)

	assert.Equal(t, 10, result.PointsSpent)
	assert.Equal(t, 115, result.NewBalance)
	assert.Equal(t, 125, result.PointsLifetime)
	assert.Equal(t, models.PrizeTypePoints, result.Prize.Type)
	assert.Equal(t, 25, result.Prize.Value.PointsAmount)

	updated := env.reload(t, user.ID)
	assert.Equal(t, 115, updated.PointsBalance)

	txns, err := env.repos.PointTransactions.FindByUserID(env.ctx, user.ID)
	require.NoError(t, err)
	delta := 0
	for _, txn := range txns {
		delta += txn.Delta
		require.NotNil(t, txn.ReferenceID)
		assert.Equal(t, result.HistoryID, *txn.ReferenceID)
	}
	assert.Len(t, txns, 2)
	assert.Equal(t, updated.PointsBalance-100, delta)

	history, err := env.spins.GetSpinDetail(env.ctx, user.ID, result.HistoryID)
	require.NoError(t, err)
	assert.Equal(t, models.SpinTypePointsRedemption, history.SpinType)
	assert.Equal(t, 10, history.PointsSpent)
	assert.Equal(t, 25, history.AwardedPoints)
	assert.False(t, history.IsClaimed)
}

func TestSpinInsufficientPoints(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 5)
	draw := env.draw(t, models.Draw{PointsCostPerSpin: 10, MaxSpinsPerUserDay: 5})
	env.pointsPrize(t, draw.ID, 25, 1)

	_, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	var pointsErr *InsufficientPointsError
	require.True(t, errors.As(err, &pointsErr))
	assert.Equal(t, 10, pointsErr.Required)
	assert.Equal(t, 5, pointsErr.Current)

	assert.Equal(t, 5, env.reload(t, user.ID).PointsBalance)
	n, err := env.repos.History.CountByDraw(env.ctx, draw.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSpinWithoutPrizesRollsBackDebit(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 50)
	draw := env.draw(t, models.Draw{
		PointsCostPerSpin:   10,
		MaxSpinsPerUserDay:  5,
		TotalAvailableSpins: intPtr(3),
		RemainingSpins:      intPtr(3),
	})
	env.prize(t, draw.ID, models.Prize{PrizeType: models.PrizeTypePoints, PointsAmount: intPtr(5), ProbabilityWeight: 1, StockQuantity: intPtr(1), StockRemaining: intPtr(0)})

	_, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	assert.ErrorIs(t, err, ErrNoPrizesAvailable)

	assert.Equal(t, 50, env.reload(t, user.ID).PointsBalance)
	stored, err := env.repos.Draws.FindByID(env.ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *stored.RemainingSpins)
	txns, err := env.repos.PointTransactions.FindByUserID(env.ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestSpinDailyLimit(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 0)
	draw := env.draw(t, models.Draw{MaxSpinsPerUserDay: 2})
	env.pointsPrize(t, draw.ID, 1, 1)

	for i := 0; i < 2; i++ {
		_, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
		require.NoError(t, err)
	}
	_, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	var limitErr *DailySpinLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 2, limitErr.SpinsToday)
	assert.Equal(t, 2, limitErr.MaxSpins)

	// the cap resets at UTC midnight
	env.now = time.Date(2024, 3, 11, 0, 0, 1, 0, time.UTC)
	_, err = env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	assert.NoError(t, err)
}

func TestSpinRejectsMismatchedSpinType(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 100)
	regular := env.draw(t, models.Draw{MaxSpinsPerUserDay: 1})
	env.pointsPrize(t, regular.ID, 1, 1)
	day7 := env.draw(t, models.Draw{IsDay7Draw: true, MaxSpinsPerUserDay: 1})
	env.pointsPrize(t, day7.ID, 1, 1)

	_, err := env.spins.Spin(env.ctx, user.ID, day7.ID, models.SpinTypePointsRedemption)
	assert.ErrorIs(t, err, ErrInvalidSpinType)
	_, err = env.spins.Spin(env.ctx, user.ID, regular.ID, models.SpinTypeDay7Checkin)
	assert.ErrorIs(t, err, ErrInvalidSpinType)
	_, err = env.spins.Spin(env.ctx, user.ID, regular.ID, models.SpinType("bonus"))
	assert.ErrorIs(t, err, ErrInvalidSpinType)
}

func TestSpinUnavailableDraw(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 100)
	ended := env.now.Add(-time.Minute)
	draw := env.draw(t, models.Draw{MaxSpinsPerUserDay: 1, EndDate: &ended})
	env.pointsPrize(t, draw.ID, 1, 1)

	_, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	assert.ErrorIs(t, err, ErrDrawUnavailable)

	_, err = env.spins.Spin(env.ctx, user.ID, primitive.NewObjectID(), models.SpinTypePointsRedemption)
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestSpinConsumesFiniteBudget(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 0)
	draw := env.draw(t, models.Draw{TotalAvailableSpins: intPtr(2), RemainingSpins: intPtr(2)})
	env.pointsPrize(t, draw.ID, 1, 1)

	for i := 0; i < 2; i++ {
		_, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
		require.NoError(t, err)
	}
	_, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	assert.ErrorIs(t, err, ErrDrawUnavailable)

	stored, err := env.repos.Draws.FindByID(env.ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *stored.RemainingSpins)
	assert.Equal(t, 2, stored.UsedSpins())
}

func TestSpinStockNeverOversold(t *testing.T) {
	env := newTestEnv(t, 0.3)
	draw := env.draw(t, models.Draw{})
	prize := env.prize(t, draw.ID, models.Prize{
		PrizeType:         models.PrizeTypePoints,
		PointsAmount:      intPtr(10),
		ProbabilityWeight: 1,
		StockQuantity:     intPtr(5),
		StockRemaining:    intPtr(5),
	})

	const spinners = 20
	users := make([]*models.User, spinners)
	for i := range users {
		users[i] = env.user(t, 0)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      int
		rejected int
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID primitive.ObjectID) {
			defer wg.Done()
			_, err := env.spins.Spin(env.ctx, userID, draw.ID, models.SpinTypePointsRedemption)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else if errors.Is(err, ErrNoPrizesAvailable) {
				rejected++
			}
		}(u.ID)
	}
	wg.Wait()

	assert.Equal(t, 5, won)
	assert.Equal(t, spinners-5, rejected)
	stored, err := env.repos.Prizes.FindByID(env.ctx, prize.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *stored.StockRemaining)
	wins, err := env.repos.History.CountByPrize(env.ctx, prize.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), wins)
}

func TestSpinSameUserConcurrentSpinsRespectCap(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 100)
	draw := env.draw(t, models.Draw{PointsCostPerSpin: 10, MaxSpinsPerUserDay: 1})
	env.pointsPrize(t, draw.ID, 1, 1)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 91, env.reload(t, user.ID).PointsBalance)
}

// conflictingDraws loses the spin budget race a fixed number of times.
type conflictingDraws struct {
	repositories.DrawRepository
	failures int
	calls    int
}

func (c *conflictingDraws) DecrementRemainingSpins(ctx context.Context, id primitive.ObjectID) error {
	c.calls++
	if c.calls <= c.failures {
		return repositories.ErrGuardFailed
	}
	return c.DrawRepository.DecrementRemainingSpins(ctx, id)
}

func TestSpinRetriesOnceAfterConflict(t *testing.T) {
	env := newTestEnv(t, 0.3)
	draws := &conflictingDraws{DrawRepository: env.repos.Draws, failures: 1}
	env.spins.repos.Draws = draws

	user := env.user(t, 100)
	draw := env.draw(t, models.Draw{PointsCostPerSpin: 10, MaxSpinsPerUserDay: 5, TotalAvailableSpins: intPtr(10), RemainingSpins: intPtr(10)})
	env.pointsPrize(t, draw.ID, 5, 1)

	result, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	require.NoError(t, err)
	assert.Equal(t, 95, result.NewBalance)
	assert.Equal(t, 2, draws.calls)

	// the aborted attempt left no trace
	n, err := env.repos.History.CountByDraw(env.ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSpinReportsPersistentConflictAsUnavailable(t *testing.T) {
	env := newTestEnv(t, 0.3)
	env.spins.repos.Draws = &conflictingDraws{DrawRepository: env.repos.Draws, failures: 2}

	user := env.user(t, 100)
	draw := env.draw(t, models.Draw{PointsCostPerSpin: 10, MaxSpinsPerUserDay: 5, TotalAvailableSpins: intPtr(10), RemainingSpins: intPtr(10)})
	env.pointsPrize(t, draw.ID, 5, 1)

	_, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	assert.ErrorIs(t, err, ErrDrawUnavailable)
	assert.Equal(t, 100, env.reload(t, user.ID).PointsBalance)
}

func TestSpinRewardPrizeIssuesRedemption(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 0)
	reward := &models.Reward{MerchantID: env.merchantID, Title: "Free latte", ValidityDays: 14, IsActive: true}
	require.NoError(t, env.repos.Rewards.Upsert(env.ctx, reward))
	draw := env.draw(t, models.Draw{})
	env.prize(t, draw.ID, models.Prize{PrizeType: models.PrizeTypeReward, RewardID: &reward.ID, ProbabilityWeight: 1})

	result, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	require.NoError(t, err)

	value := result.Prize.Value
	assert.Regexp(t, regexp.MustCompile(`^RW-[A-Z0-9]{8}$`), value.RedemptionCode)
	assert.Equal(t, "Free latte", value.RewardTitle)
	require.NotNil(t, value.ExpiresAt)
	assert.True(t, value.ExpiresAt.Equal(env.now.AddDate(0, 0, 14)))

	redemption, err := env.repos.Redemptions.FindByCode(env.ctx, value.RedemptionCode)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionActive, redemption.Status)
	assert.Equal(t, string(models.SpinTypePointsRedemption), redemption.SourceType)
	assert.Equal(t, 0, redemption.PointsSpent)
	require.NotNil(t, redemption.SpinHistoryID)
	assert.Equal(t, result.HistoryID, *redemption.SpinHistoryID)
}

func TestSpinRewardPrizeWithMissingReward(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 0)
	missing := primitive.NewObjectID()
	draw := env.draw(t, models.Draw{})
	env.prize(t, draw.ID, models.Prize{PrizeType: models.PrizeTypeReward, RewardID: &missing, ProbabilityWeight: 1})

	result, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	require.NoError(t, err)
	assert.Equal(t, WarningRewardUnavailable, result.Prize.Value.Warning)
	assert.Empty(t, result.Prize.Value.RedemptionCode)

	redemptions, err := env.repos.Redemptions.FindByUser(env.ctx, user.ID, "")
	require.NoError(t, err)
	assert.Empty(t, redemptions)
}

func TestSpinVoucherPrizeDefaults(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 0)
	draw := env.draw(t, models.Draw{})
	amount := decimal.NewFromInt(500)
	env.prize(t, draw.ID, models.Prize{PrizeType: models.PrizeTypeVoucher, VoucherDiscountAmount: &amount, Description: "500 off", ProbabilityWeight: 1})

	result, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	require.NoError(t, err)

	value := result.Prize.Value
	assert.Regexp(t, regexp.MustCompile(`^LUCKY-[A-Z0-9]{4}-[A-Z0-9]{4}$`), value.VoucherCode)
	assert.Equal(t, 1, value.MaxUsage)
	assert.Equal(t, "500 off", value.Description)
	require.NotNil(t, value.DiscountAmount)
	assert.True(t, value.DiscountAmount.Equal(amount))
	require.NotNil(t, value.ExpiresAt)
	assert.True(t, value.ExpiresAt.Equal(env.now.AddDate(0, 0, 30)))

	history, err := env.spins.GetSpinDetail(env.ctx, user.ID, result.HistoryID)
	require.NoError(t, err)
	require.NotNil(t, history.VoucherCode)
	assert.Equal(t, value.VoucherCode, *history.VoucherCode)
}

func TestSpinHistorySnapshotSurvivesPrizeEdits(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 0)
	draw := env.draw(t, models.Draw{})
	prize := env.pointsPrize(t, draw.ID, 25, 1)

	result, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	require.NoError(t, err)

	prize.Name = "Renamed"
	prize.PointsAmount = intPtr(500)
	require.NoError(t, env.repos.Prizes.Update(env.ctx, prize))

	history, err := env.spins.GetSpinDetail(env.ctx, user.ID, result.HistoryID)
	require.NoError(t, err)
	assert.Equal(t, "Bonus points", history.PrizeName)
	assert.Equal(t, 25, history.PrizeValue.PointsAmount)
}

func TestGetSpinDetailHidesOtherUsersSpins(t *testing.T) {
	env := newTestEnv(t, 0.3)
	owner := env.user(t, 0)
	other := env.user(t, 0)
	draw := env.draw(t, models.Draw{})
	env.pointsPrize(t, draw.ID, 1, 1)

	result, err := env.spins.Spin(env.ctx, owner.ID, draw.ID, models.SpinTypePointsRedemption)
	require.NoError(t, err)

	_, err = env.spins.GetSpinDetail(env.ctx, other.ID, result.HistoryID)
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestGetSpinHistoryPages(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 0)
	draw := env.draw(t, models.Draw{})
	env.pointsPrize(t, draw.ID, 1, 1)

	for i := 0; i < 3; i++ {
		_, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
		require.NoError(t, err)
	}

	page, err := env.spins.GetSpinHistory(env.ctx, user.ID, nil, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.History, 2)

	page, err = env.spins.GetSpinHistory(env.ctx, user.ID, &draw.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.History, 1)
}

func TestListAvailableDrawsReportsEligibility(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 5)
	affordable := env.draw(t, models.Draw{Name: "Cheap", PointsCostPerSpin: 5, MaxSpinsPerUserDay: 1})
	pricey := env.draw(t, models.Draw{Name: "Pricey", PointsCostPerSpin: 50, MaxSpinsPerUserDay: 1})
	closed := env.draw(t, models.Draw{Name: "Closed", MaxSpinsPerUserDay: 1})
	closed.IsActive = false
	require.NoError(t, env.repos.Draws.Update(env.ctx, closed))

	views, err := env.spins.ListAvailableDraws(env.ctx, user.ID, env.merchantID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[primitive.ObjectID]*DrawAvailability{}
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.True(t, byID[affordable.ID].UserCanSpin)
	assert.False(t, byID[pricey.ID].UserCanSpin)
	assert.False(t, byID[pricey.ID].UserHasEnoughPoints)
	assert.Equal(t, "insufficient points", byID[pricey.ID].Reason)
}
