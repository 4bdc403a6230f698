package services

import (
	"context"
	"testing"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testEnv struct {
	ctx        context.Context
	repos      Repositories
	rnd        *SequenceSource
	now        time.Time
	merchantID primitive.ObjectID

	spins       *SpinServiceImpl
	checkIns    *CheckInServiceImpl
	draws       *DrawServiceImpl
	redemptions *RedemptionServiceImpl
}

func newRepositories() Repositories {
	store := memory.NewStore()
	return Repositories{
		Tx:                store,
		Users:             memory.NewUserRepository(store),
		Draws:             memory.NewDrawRepository(store),
		Prizes:            memory.NewPrizeRepository(store),
		History:           memory.NewSpinHistoryRepository(store),
		Rewards:           memory.NewRewardRepository(store),
		Redemptions:       memory.NewRedemptionRepository(store),
		CheckIns:          memory.NewCheckInRepository(store),
		PointTransactions: memory.NewPointTransactionRepository(store),
		Notifications:     memory.NewNotificationRepository(store),
	}
}

// newTestEnv wires the services on an in-memory store. The random source
// replays values and the clock is env.now.
func newTestEnv(t *testing.T, values ...float64) *testEnv {
	t.Helper()
	env := &testEnv{
		ctx:        context.Background(),
		repos:      newRepositories(),
		rnd:        NewSequenceSource(values...),
		now:        time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		merchantID: primitive.NewObjectID(),
	}
	clock := func() time.Time { return env.now }

	metrics := NewMetrics(prometheus.NewRegistry())
	notifier := NewNotificationService(env.repos.Notifications, nil)
	env.spins = NewSpinService(env.repos, NewFulfillmentDispatcher(env.repos), notifier, env.rnd, metrics)
	env.spins.now = clock
	env.checkIns = NewCheckInService(env.repos, env.spins, notifier, env.rnd, metrics, Day7ScopeMerchant)
	env.checkIns.now = clock
	env.draws = NewDrawService(env.repos)
	env.redemptions = NewRedemptionService(env.repos)
	env.redemptions.now = clock
	return env
}

func (e *testEnv) user(t *testing.T, balance int) *models.User {
	t.Helper()
	u := &models.User{Name: "Ada", PointsBalance: balance, PointsLifetime: balance}
	require.NoError(t, e.repos.Users.Create(e.ctx, u))
	return u
}

func (e *testEnv) reload(t *testing.T, id primitive.ObjectID) *models.User {
	t.Helper()
	u, err := e.repos.Users.FindByID(e.ctx, id)
	require.NoError(t, err)
	return u
}

// draw stores d as an active draw of the test merchant.
func (e *testEnv) draw(t *testing.T, d models.Draw) *models.Draw {
	t.Helper()
	if d.MerchantID.IsZero() {
		d.MerchantID = e.merchantID
	}
	if d.Name == "" {
		d.Name = "Weekend Wheel"
	}
	d.IsActive = true
	require.NoError(t, e.repos.Draws.Create(e.ctx, &d))
	return &d
}

func (e *testEnv) prize(t *testing.T, drawID primitive.ObjectID, p models.Prize) *models.Prize {
	t.Helper()
	p.DrawID = drawID
	if p.Name == "" {
		p.Name = string(p.PrizeType) + " prize"
	}
	require.NoError(t, e.repos.Prizes.Create(e.ctx, &p))
	return &p
}

func (e *testEnv) pointsPrize(t *testing.T, drawID primitive.ObjectID, amount, weight int) *models.Prize {
	t.Helper()
	return e.prize(t, drawID, models.Prize{
		Name:              "Bonus points",
		PrizeType:         models.PrizeTypePoints,
		PointsAmount:      intPtr(amount),
		ProbabilityWeight: weight,
	})
}
