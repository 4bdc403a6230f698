package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPointsEndpoints(t *testing.T) {
	env := newHandlerEnv(t)
	draw := env.pointsDraw(t, 10, 50)
	_, token := env.customer(t, 100)

	w := env.do(t, http.MethodPost, "/api/v1/lucky-draws/"+draw.ID.Hex()+"/spin", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/me/points", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode(t, w)
	assert.EqualValues(t, 140, summary["pointsBalance"])
	assert.NotEmpty(t, summary["rank"])

	w = env.do(t, http.MethodGet, "/api/v1/me/points/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["transactions"], 2)
}

func TestNotificationEndpoints(t *testing.T) {
	env := newHandlerEnv(t)
	draw := env.pointsDraw(t, 10, 50)
	_, token := env.customer(t, 100)

	w := env.do(t, http.MethodPost, "/api/v1/lucky-draws/"+draw.ID.Hex()+"/spin", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	notifications := decode(t, w)["notifications"].([]interface{})
	require.Len(t, notifications, 1)
	first := notifications[0].(map[string]interface{})
	assert.Equal(t, false, first["isRead"])

	w = env.do(t, http.MethodPost, "/api/v1/notifications/"+first["id"].(string)+"/read", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/notifications/"+primitive.NewObjectID().Hex()+"/read", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
