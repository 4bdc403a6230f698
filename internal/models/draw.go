package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Draw is a merchant-owned lucky draw campaign with a prize pool.
// A nil TotalAvailableSpins or RemainingSpins means the spin budget is unlimited.
type Draw struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MerchantID          primitive.ObjectID `bson:"merchantId" json:"merchantId"`
	Name                string             `bson:"name" json:"name"`
	Description         string             `bson:"description,omitempty" json:"description,omitempty"`
	PointsCostPerSpin   int                `bson:"pointsCostPerSpin" json:"pointsCostPerSpin"`
	IsDay7Draw          bool               `bson:"isDay7Draw" json:"isDay7Draw"`
	MaxSpinsPerUserDay  int                `bson:"maxSpinsPerUserDay" json:"maxSpinsPerUserDay"`
	TotalAvailableSpins *int               `bson:"totalAvailableSpins" json:"totalAvailableSpins"`
	RemainingSpins      *int               `bson:"remainingSpins" json:"remainingSpins"`
	IsActive            bool               `bson:"isActive" json:"isActive"`
	StartDate           *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate             *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
	DeletedAt           *time.Time         `bson:"deletedAt,omitempty" json:"-"`
}

// IsAvailable reports whether the draw accepts spins at the given instant.
func (d *Draw) IsAvailable(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	if d.RemainingSpins != nil && *d.RemainingSpins <= 0 {
		return false
	}
	return true
}

// ResizedRemaining computes the remaining count after a total changes from
// from to to. With no previous total the used count comes from the caller.
func ResizedRemaining(remaining, from *int, to, used int) int {
	var next int
	if from != nil && remaining != nil {
		next = *remaining + to - *from
	} else {
		next = to - used
	}
	if next < 0 {
		return 0
	}
	return next
}

// UsedSpins is the number of spins already consumed from a finite budget.
func (d *Draw) UsedSpins() int {
	if d.TotalAvailableSpins == nil || d.RemainingSpins == nil {
		return 0
	}
	used := *d.TotalAvailableSpins - *d.RemainingSpins
	if used < 0 {
		return 0
	}
	return used
}

// DrawWithPrizes is the detail view of a draw.
type DrawWithPrizes struct {
	*Draw
	Prizes   []*Prize `json:"prizes"`
	Warnings []string `json:"warnings,omitempty"`
}

// PrizeDistribution counts wins of a single prize.
type PrizeDistribution struct {
	PrizeID   primitive.ObjectID `bson:"prizeId" json:"prizeId"`
	PrizeName string             `bson:"prizeName" json:"prizeName"`
	PrizeType PrizeType          `bson:"prizeType" json:"prizeType"`
	WonCount  int64              `bson:"wonCount" json:"wonCount"`
}

// DrawStatistics aggregates the spin ledger of one draw.
type DrawStatistics struct {
	DrawID             primitive.ObjectID  `json:"drawId"`
	DrawName           string              `json:"drawName"`
	TotalSpins         int64               `json:"totalSpins"`
	Day7Spins          int64               `json:"day7Spins"`
	PointsSpins        int64               `json:"pointsSpins"`
	TotalPointsAwarded int64               `json:"totalPointsAwarded"`
	TotalPointsSpent   int64               `json:"totalPointsSpent"`
	UniqueParticipants int64               `json:"uniqueParticipants"`
	PrizeDistribution  []PrizeDistribution `json:"prizeDistribution"`
	RemainingSpins     *int                `json:"remainingSpins"`
	IsActive           bool                `json:"isActive"`
}

// SpinLedgerSummary is the raw aggregate the history store computes for a draw.
type SpinLedgerSummary struct {
	TotalSpins         int64
	Day7Spins          int64
	PointsSpins        int64
	TotalPointsAwarded int64
	TotalPointsSpent   int64
	UniqueParticipants int64
	WinsByPrize        map[primitive.ObjectID]int64
}
