package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification events emitted by the prize engine.
const (
	NotificationLuckyDrawWon = "lucky_draw_won"
	NotificationDailyCheckIn = "daily_check_in"
)

// Notification is an in-app message for a user.
type Notification struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID     `bson:"userId" json:"userId"`
	Type      string                 `bson:"type" json:"type"`
	Title     string                 `bson:"title" json:"title"`
	Message   string                 `bson:"message" json:"message"`
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	IsRead    bool                   `bson:"isRead" json:"isRead"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
	ReadAt    *time.Time             `bson:"readAt,omitempty" json:"readAt,omitempty"`
}
