package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SpinType tells how a spin was initiated.
type SpinType string

const (
	SpinTypeDay7Checkin      SpinType = "day7_checkin"
	SpinTypePointsRedemption SpinType = "points_redemption"
)

// Valid reports whether t is a known spin type.
func (t SpinType) Valid() bool {
	return t == SpinTypeDay7Checkin || t == SpinTypePointsRedemption
}

// SpinHistory is an append-only ledger row for one completed spin.
// PrizeName, PrizeType and PrizeValue are a snapshot taken at spin time.
type SpinHistory struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	UserID        primitive.ObjectID  `bson:"userId" json:"userId"`
	DrawID        primitive.ObjectID  `bson:"drawId" json:"drawId"`
	MerchantID    primitive.ObjectID  `bson:"merchantId" json:"merchantId"`
	DrawName      string              `bson:"drawName" json:"drawName"`
	PrizeID       *primitive.ObjectID `bson:"prizeId" json:"prizeId"`
	PointsSpent   int                 `bson:"pointsSpent" json:"pointsSpent"`
	SpinType      SpinType            `bson:"spinType" json:"spinType"`
	PrizeType     PrizeType           `bson:"prizeType" json:"prizeType"`
	PrizeName     string              `bson:"prizeName" json:"prizeName"`
	PrizeValue    PrizeValue          `bson:"prizeValue" json:"prizeValue"`
	AwardedPoints int                 `bson:"awardedPoints" json:"awardedPoints"`
	VoucherCode   *string             `bson:"voucherCode,omitempty" json:"voucherCode,omitempty"`
	VoucherExpiry *time.Time          `bson:"voucherExpiry,omitempty" json:"voucherExpiry,omitempty"`
	IsClaimed     bool                `bson:"isClaimed" json:"isClaimed"`
	ClaimedAt     *time.Time          `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// SpinHistoryPage is one page of a user's spin history.
type SpinHistoryPage struct {
	History []SpinHistory `json:"history"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"perPage"`
	Pages   int           `json:"pages"`
}
