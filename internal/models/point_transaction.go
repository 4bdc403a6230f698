package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Point movement reasons.
const (
	PointsReasonSpinCost     = "lucky_draw_spin"
	PointsReasonPrize        = "lucky_draw_prize"
	PointsReasonDailyCheckIn = "daily_check_in"
	PointsReasonDay7Fallback = "day7_fallback"
	PointsReasonRedemption   = "reward_redemption"
)

// PointTransaction records a single credit or debit of a user's points balance.
type PointTransaction struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID  `bson:"userId" json:"userId"`
	Delta       int                 `bson:"delta" json:"delta"`
	Reason      string              `bson:"reason" json:"reason"`
	ReferenceID *primitive.ObjectID `bson:"referenceId,omitempty" json:"referenceId,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}
