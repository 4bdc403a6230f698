package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/ArowuTest/loyalty-backend/internal/middleware"
	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories/memory"
	"github.com/ArowuTest/loyalty-backend/internal/services"
	"github.com/ArowuTest/loyalty-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerEnv struct {
	ctx        context.Context
	repos      services.Repositories
	tokens     *jwt.TokenService
	router     *gin.Engine
	merchantID primitive.ObjectID
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	store := memory.NewStore()
	env := &handlerEnv{
		ctx: context.Background(),
		repos: services.Repositories{
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
		},
		tokens:     jwt.NewTokenService("handler-secret", 3600),
		merchantID: primitive.NewObjectID(),
	}

	metrics := services.NewMetrics(prometheus.NewRegistry())
	rnd := services.NewSequenceSource(0.5)
	notifier := services.NewNotificationService(env.repos.Notifications, nil)
	spins := services.NewSpinService(env.repos, services.NewFulfillmentDispatcher(env.repos), notifier, rnd, metrics)
	checkIns := services.NewCheckInService(env.repos, spins, notifier, rnd, metrics, services.Day7ScopeMerchant)

	luckyDraws := NewLuckyDrawHandler(spins, checkIns)
	gamification := NewGamificationHandler(checkIns)
	draws := NewDrawHandler(services.NewDrawService(env.repos))
	redemptions := NewRedemptionHandler(services.NewRedemptionService(env.repos))
	notifications := NewNotificationHandler(notifier)
	users := NewUserHandler(services.NewUserService(env.repos.Users, env.repos.PointTransactions))

	r := gin.New()
	api := r.Group("/api/v1", middleware.JWTAuthMiddleware(env.tokens))
	api.GET("/lucky-draws", luckyDraws.ListDraws)
	api.GET("/lucky-draws/day7-draw", luckyDraws.GetDay7Draw)
	api.GET("/lucky-draws/history", luckyDraws.GetHistory)
	api.GET("/lucky-draws/history/:id", luckyDraws.GetHistoryDetail)
	api.GET("/lucky-draws/:id", luckyDraws.GetDraw)
	api.POST("/lucky-draws/:id/spin", luckyDraws.Spin)
	api.GET("/gamification/status", gamification.Status)
	api.POST("/gamification/check-in", gamification.CheckIn)
	api.GET("/rewards/my-rewards", redemptions.MyRewards)
	api.POST("/rewards/:id/redeem", redemptions.Redeem)
	api.GET("/notifications", notifications.List)
	api.POST("/notifications/:id/read", notifications.MarkRead)
	api.GET("/me/points", users.GetPoints)
	api.GET("/me/points/history", users.GetPointHistory)
	api.GET("/merchant/redemptions", redemptions.List)
	api.POST("/merchant/redemptions/validate", redemptions.Validate)
	api.GET("/merchant/lucky-draws", draws.ListDraws)
	api.POST("/merchant/lucky-draws", draws.CreateDraw)
	api.GET("/merchant/lucky-draws/:id", draws.GetDraw)
	api.PUT("/merchant/lucky-draws/:id", draws.UpdateDraw)
	api.DELETE("/merchant/lucky-draws/:id", draws.DeleteDraw)
	api.POST("/merchant/lucky-draws/:id/prizes", draws.AddPrize)
	api.PUT("/merchant/lucky-draws/:id/prizes/:prizeId", draws.UpdatePrize)
	api.DELETE("/merchant/lucky-draws/:id/prizes/:prizeId", draws.DeletePrize)
	api.GET("/merchant/lucky-draws/:id/statistics", draws.GetStatistics)
	env.router = r
	return env
}

// customer stores a user with the given balance and returns it with a token.
func (e *handlerEnv) customer(t *testing.T, balance int) (*models.User, string) {
	t.Helper()
	u := &models.User{Name: "Ada", PointsBalance: balance, PointsLifetime: balance}
	require.NoError(t, e.repos.Users.Create(e.ctx, u))
	token, err := e.tokens.Issue(jwt.Claims{Subject: u.ID.Hex(), Role: models.RoleCustomer})
	require.NoError(t, err)
	return u, token
}

func (e *handlerEnv) staffToken(t *testing.T, merchantID primitive.ObjectID) string {
	t.Helper()
	token, err := e.tokens.Issue(jwt.Claims{
		Subject:      primitive.NewObjectID().Hex(),
		Role:         models.RoleStaff,
		MerchantID:   merchantID.Hex(),
		BranchID:     primitive.NewObjectID().Hex(),
		IsMainBranch: true,
	})
	require.NoError(t, err)
	return token
}

// pointsDraw stores an active draw costing cost points with one points prize.
func (e *handlerEnv) pointsDraw(t *testing.T, cost, award int) *models.Draw {
	t.Helper()
	d := &models.Draw{
		MerchantID:         e.merchantID,
		Name:               "Weekend Wheel",
		PointsCostPerSpin:  cost,
		MaxSpinsPerUserDay: 1,
		IsActive:           true,
	}
	require.NoError(t, e.repos.Draws.Create(e.ctx, d))
	require.NoError(t, e.repos.Prizes.Create(e.ctx, &models.Prize{
		DrawID:            d.ID,
		Name:              "Bonus points",
		PrizeType:         models.PrizeTypePoints,
		PointsAmount:      &award,
		ProbabilityWeight: 1,
	}))
	return d
}

func (e *handlerEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
