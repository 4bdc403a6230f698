package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNotifyStoresAndPublishes(t *testing.T) {
	repos := newRepositories()
	publisher := &PublisherMock{
		PublishFunc: func(ctx context.Context, routingKey string, body []byte) error {
			return nil
		},
	}
	svc := NewNotificationService(repos.Notifications, publisher)
	userID := primitive.NewObjectID()

	svc.Notify(context.Background(), userID, models.NotificationLuckyDrawWon, "You won", "A prize", map[string]interface{}{"prizeType": "points"})

	calls := publisher.PublishCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "user."+userID.Hex()+".lucky_draw_won", calls[0].RoutingKey)

	var published models.Notification
	require.NoError(t, json.Unmarshal(calls[0].Body, &published))
	assert.Equal(t, "You won", published.Title)

	stored, err := svc.List(context.Background(), userID, 1, 20)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].IsRead)

	require.NoError(t, svc.MarkRead(context.Background(), userID, stored[0].ID))
	stored, err = svc.List(context.Background(), userID, 1, 20)
	require.NoError(t, err)
	assert.True(t, stored[0].IsRead)
}

func TestNotifySwallowsPublishErrors(t *testing.T) {
	repos := newRepositories()
	publisher := &PublisherMock{
		PublishFunc: func(ctx context.Context, routingKey string, body []byte) error {
			return errors.New("broker down")
		},
	}
	svc := NewNotificationService(repos.Notifications, publisher)
	userID := primitive.NewObjectID()

	svc.Notify(context.Background(), userID, models.NotificationDailyCheckIn, "Daily check-in", "1 point", nil)

	stored, err := svc.List(context.Background(), userID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestMarkReadOtherUsersNotification(t *testing.T) {
	repos := newRepositories()
	svc := NewNotificationService(repos.Notifications, nil)
	owner := primitive.NewObjectID()
	svc.Notify(context.Background(), owner, models.NotificationDailyCheckIn, "Daily check-in", "1 point", nil)
	stored, err := svc.List(context.Background(), owner, 1, 20)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	err = svc.MarkRead(context.Background(), primitive.NewObjectID(), stored[0].ID)
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestSpinSendsWinNotification(t *testing.T) {
	env := newTestEnv(t, 0.3)
	user := env.user(t, 0)
	draw := env.draw(t, models.Draw{})
	env.pointsPrize(t, draw.ID, 5, 1)

	_, err := env.spins.Spin(env.ctx, user.ID, draw.ID, models.SpinTypePointsRedemption)
	require.NoError(t, err)

	notifications, err := env.repos.Notifications.FindByUser(env.ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationLuckyDrawWon, notifications[0].Type)
}
