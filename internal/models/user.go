package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a loyalty member. Points are platform-wide, not per merchant.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string             `bson:"name,omitempty" json:"name,omitempty"`
	Phone           string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PointsBalance   int                `bson:"pointsBalance" json:"pointsBalance"`
	PointsLifetime  int                `bson:"pointsLifetime" json:"pointsLifetime"`
	TotalStreak     int                `bson:"totalStreak" json:"totalStreak"`
	LastCheckInDate *time.Time         `bson:"lastCheckInDate,omitempty" json:"lastCheckInDate,omitempty"`
	LastSpinAt      *time.Time         `bson:"lastSpinAt,omitempty" json:"lastSpinAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Rank tiers derived from lifetime points.
const (
	RankBronze   = "Bronze"
	RankSilver   = "Silver"
	RankGold     = "Gold"
	RankPlatinum = "Platinum"
)

// Rank returns the member tier for the user's lifetime points.
func (u *User) Rank() string {
	switch {
	case u.PointsLifetime >= 5000:
		return RankPlatinum
	case u.PointsLifetime >= 2000:
		return RankGold
	case u.PointsLifetime >= 500:
		return RankSilver
	default:
		return RankBronze
	}
}

var rankLevels = map[string]int{
	"bronze":   0,
	"silver":   1,
	"gold":     2,
	"platinum": 3,
}

// MeetsRank reports whether the user's tier is at least min. Tier names are
// case-insensitive; an empty or unknown min is met by everyone.
func (u *User) MeetsRank(min string) bool {
	return rankLevels[strings.ToLower(u.Rank())] >= rankLevels[strings.ToLower(min)]
}

// PointsSummary is the customer-facing balance view.
type PointsSummary struct {
	UserID         primitive.ObjectID `json:"userId"`
	PointsBalance  int                `json:"pointsBalance"`
	PointsLifetime int                `json:"pointsLifetime"`
	Rank           string             `json:"rank"`
}
