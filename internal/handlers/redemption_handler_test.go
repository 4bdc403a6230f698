package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (e *handlerEnv) redemption(t *testing.T, userID primitive.ObjectID, code string) *models.RewardRedemption {
	t.Helper()
	r := &models.RewardRedemption{
		UserID:         userID,
		RewardID:       primitive.NewObjectID(),
		MerchantID:     e.merchantID,
		RewardTitle:    "Free latte",
		RedemptionCode: code,
		Status:         models.RedemptionActive,
		SourceType:     string(models.SpinTypePointsRedemption),
		ExpiresAt:      time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, e.repos.Redemptions.Create(e.ctx, r))
	return r
}

func TestValidateRedemptionEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	user, _ := env.customer(t, 0)
	env.redemption(t, user.ID, "LATTE123")
	staff := env.staffToken(t, env.merchantID)

	w := env.do(t, http.MethodPost, "/api/v1/merchant/redemptions/validate", staff, map[string]string{"code": " latte123 "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	redemption := decode(t, w)["redemption"].(map[string]interface{})
	assert.Equal(t, "used", redemption["status"])

	w = env.do(t, http.MethodPost, "/api/v1/merchant/redemptions/validate", staff, map[string]string{"code": "LATTE123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode(t, w)["code"])

	w = env.do(t, http.MethodPost, "/api/v1/merchant/redemptions/validate", staff, map[string]string{"code": "UNKNOWN1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/merchant/redemptions/validate", staff, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateRedemptionOtherMerchant(t *testing.T) {
	env := newHandlerEnv(t)
	user, _ := env.customer(t, 0)
	env.redemption(t, user.ID, "MUFFIN99")

	w := env.do(t, http.MethodPost, "/api/v1/merchant/redemptions/validate", env.staffToken(t, primitive.NewObjectID()), map[string]string{"code": "MUFFIN99"})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode(t, w)["code"])
}

func TestMyRewardsEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	user, token := env.customer(t, 0)
	env.redemption(t, user.ID, "LATTE123")
	_, other := env.customer(t, 0)

	w := env.do(t, http.MethodGet, "/api/v1/rewards/my-rewards", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["rewards"], 1)

	w = env.do(t, http.MethodGet, "/api/v1/rewards/my-rewards?status=used", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["rewards"])

	w = env.do(t, http.MethodGet, "/api/v1/rewards/my-rewards", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["rewards"])

	w = env.do(t, http.MethodGet, "/api/v1/rewards/my-rewards?status=lost", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (e *handlerEnv) reward(t *testing.T, cost, stock int, minRank string) *models.Reward {
	t.Helper()
	rw := &models.Reward{
		MerchantID:    e.merchantID,
		Title:         "Free latte",
		PointsCost:    cost,
		ValidityDays:  14,
		IsActive:      true,
		StockQuantity: &stock,
		MinRank:       minRank,
	}
	require.NoError(t, e.repos.Rewards.Upsert(e.ctx, rw))
	return rw
}

func TestRedeemEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	reward := env.reward(t, 100, 1, "")
	_, token := env.customer(t, 250)

	w := env.do(t, http.MethodPost, "/api/v1/rewards/"+reward.ID.Hex()+"/redeem", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(150), body["remaining_balance"])
	redemption := body["redemption"].(map[string]interface{})
	assert.Regexp(t, `^RW-[A-Z0-9]{8}$`, redemption["redemptionCode"])
	assert.Equal(t, "catalog", redemption["sourceType"])

	_, rich := env.customer(t, 1000)
	w = env.do(t, http.MethodPost, "/api/v1/rewards/"+reward.ID.Hex()+"/redeem", rich, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "out of stock")
}

func TestRedeemEndpointRejections(t *testing.T) {
	env := newHandlerEnv(t)
	pricey := env.reward(t, 500, 10, "")
	gold := env.reward(t, 10, 10, "Gold")
	_, token := env.customer(t, 50)

	w := env.do(t, http.MethodPost, "/api/v1/rewards/"+pricey.ID.Hex()+"/redeem", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "insufficient_points", body["code"])
	assert.Equal(t, float64(500), body["required"])
	assert.Equal(t, float64(50), body["current"])

	w = env.do(t, http.MethodPost, "/api/v1/rewards/"+gold.ID.Hex()+"/redeem", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "rank_required", decode(t, w)["code"])

	w = env.do(t, http.MethodPost, "/api/v1/rewards/"+primitive.NewObjectID().Hex()+"/redeem", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/rewards/bad/redeem", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMerchantRedemptionsEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	user, _ := env.customer(t, 0)
	env.redemption(t, user.ID, "LATTE123")
	env.redemption(t, user.ID, "MUFFIN99")
	staff := env.staffToken(t, env.merchantID)

	w := env.do(t, http.MethodPost, "/api/v1/merchant/redemptions/validate", staff, map[string]string{"code": "LATTE123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/merchant/redemptions?branch_id=all", staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["redemptions"], 2)

	w = env.do(t, http.MethodGet, "/api/v1/merchant/redemptions?status=used", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["redemptions"], 1)

	w = env.do(t, http.MethodGet, "/api/v1/merchant/redemptions?branch_id="+primitive.NewObjectID().Hex(), staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["redemptions"])

	w = env.do(t, http.MethodGet, "/api/v1/merchant/redemptions?branch_id=bad", staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/merchant/redemptions?status=lost", staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
