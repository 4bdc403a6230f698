package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

//go:generate moq -out publisher_mock_test.go . Publisher

// Publisher pushes notification events to an external broker
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Compile-time check to ensure NotificationServiceImpl implements NotificationService
var _ NotificationService = (*NotificationServiceImpl)(nil)

// NotificationServiceImpl stores in-app notifications and fans them out to the broker
type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
	publisher        Publisher
	now              func() time.Time
}

// NewNotificationService creates a new NotificationServiceImpl. publisher may be nil.
func NewNotificationService(notificationRepo repositories.NotificationRepository, publisher Publisher) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		now:              time.Now,
	}
}

// Notify persists the notification and publishes it. Failures are only logged.
func (s *NotificationServiceImpl) Notify(ctx context.Context, userID primitive.ObjectID, event, title, message string, data map[string]interface{}) {
	notification := &models.Notification{
		UserID:    userID,
		Type:      event,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: s.now(),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		slog.Error("Failed to store notification", "error", err, "userId", userID.Hex(), "event", event)
		return
	}
	if s.publisher == nil {
		return
	}

	body, err := json.Marshal(notification)
	if err != nil {
		slog.Error("Failed to encode notification", "error", err, "event", event)
		return
	}
	routingKey := fmt.Sprintf("user.%s.%s", userID.Hex(), event)
	if err := s.publisher.Publish(ctx, routingKey, body); err != nil {
		slog.Warn("Failed to publish notification", "error", err, "routingKey", routingKey)
	}
}

// List pages through a user's notifications, newest first
func (s *NotificationServiceImpl) List(ctx context.Context, userID primitive.ObjectID, page, perPage int) ([]*models.Notification, error) {
	_, _, skip, limit := pageBounds(page, perPage)
	notifications, err := s.notificationRepo.FindByUser(ctx, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	err := s.notificationRepo.MarkRead(ctx, userID, notificationID, s.now())
	if errors.Is(err, repositories.ErrNotFound) {
		return &NotFoundError{Resource: "notification"}
	}
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
