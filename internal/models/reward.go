package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reward is a catalog entry owned by a merchant. The catalog is loaded by the
// import command; customers redeem it directly or win it from a draw.
// A nil StockQuantity means unlimited stock.
type Reward struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MerchantID             primitive.ObjectID `bson:"merchantId" json:"merchantId"`
	Title                  string             `bson:"title" json:"title"`
	Description            string             `bson:"description,omitempty" json:"description,omitempty"`
	PointsCost             int                `bson:"pointsCost" json:"pointsCost"`
	ValidityDays           int                `bson:"validityDays" json:"validityDays"`
	IsActive               bool               `bson:"isActive" json:"isActive"`
	StockQuantity          *int               `bson:"stockQuantity" json:"stockQuantity"`
	StockRemaining         *int               `bson:"stockRemaining" json:"stockRemaining"`
	MinRank                string             `bson:"minRank,omitempty" json:"minRank,omitempty"`
	RedemptionLimitPerUser int                `bson:"redemptionLimitPerUser,omitempty" json:"redemptionLimitPerUser,omitempty"`
	CreatedAt              time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// InStock reports whether the reward can still be redeemed.
func (r *Reward) InStock() bool {
	return r.StockQuantity == nil || (r.StockRemaining != nil && *r.StockRemaining > 0)
}

// Redemption sources other than spin types.
const RedemptionSourceCatalog = "catalog"

// RedemptionStatus is the lifecycle state of a reward redemption.
type RedemptionStatus string

const (
	RedemptionActive    RedemptionStatus = "active"
	RedemptionUsed      RedemptionStatus = "used"
	RedemptionExpired   RedemptionStatus = "expired"
	RedemptionCancelled RedemptionStatus = "cancelled"
)

// RewardRedemption is an issued reward a customer can present to staff.
type RewardRedemption struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID         primitive.ObjectID  `bson:"userId" json:"userId"`
	RewardID       primitive.ObjectID  `bson:"rewardId" json:"rewardId"`
	MerchantID     primitive.ObjectID  `bson:"merchantId" json:"merchantId"`
	RewardTitle    string              `bson:"rewardTitle" json:"rewardTitle"`
	RedemptionCode string              `bson:"redemptionCode" json:"redemptionCode"`
	PointsSpent    int                 `bson:"pointsSpent" json:"pointsSpent"`
	Status         RedemptionStatus    `bson:"status" json:"status"`
	SourceType     string              `bson:"sourceType" json:"sourceType"`
	SpinHistoryID  *primitive.ObjectID `bson:"spinHistoryId,omitempty" json:"spinHistoryId,omitempty"`
	ExpiresAt      time.Time           `bson:"expiresAt" json:"expiresAt"`
	UsedAt         *time.Time          `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
	UsedAtBranchID *primitive.ObjectID `bson:"usedAtBranchId,omitempty" json:"usedAtBranchId,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}
