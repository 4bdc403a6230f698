package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckInCycleLength is the number of days in one streak cycle.
const CheckInCycleLength = 7

// DailyCheckIn is the one-per-day record of a user's check-in.
type DailyCheckIn struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID  `bson:"userId" json:"userId"`
	MerchantID    *primitive.ObjectID `bson:"merchantId,omitempty" json:"merchantId,omitempty"`
	CheckInDate   time.Time           `bson:"checkInDate" json:"checkInDate"`
	CycleDay      int                 `bson:"cycleDay" json:"cycleDay"`
	Streak        int                 `bson:"streak" json:"streak"`
	PointsEarned  int                 `bson:"pointsEarned" json:"pointsEarned"`
	SpinHistoryID *primitive.ObjectID `bson:"spinHistoryId,omitempty" json:"spinHistoryId,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// CycleDay maps a streak length onto its position in the 7-day cycle (1..7).
func CycleDay(streak int) int {
	if streak <= 0 {
		return 1
	}
	return ((streak - 1) % CheckInCycleLength) + 1
}

// UTCDay truncates t to midnight UTC.
func UTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
