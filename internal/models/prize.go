package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrizeType is the closed set of prize variants.
type PrizeType string

const (
	PrizeTypePoints  PrizeType = "points"
	PrizeTypeReward  PrizeType = "reward"
	PrizeTypeVoucher PrizeType = "voucher"
)

// AllPrizeTypes lists every prize variant. Fulfillment must handle each entry.
var AllPrizeTypes = []PrizeType{PrizeTypePoints, PrizeTypeReward, PrizeTypeVoucher}

// Valid reports whether t is a known prize type.
func (t PrizeType) Valid() bool {
	for _, known := range AllPrizeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Prize is one entry of a draw's prize pool.
// A nil StockQuantity or StockRemaining means unlimited stock.
type Prize struct {
	ID                     primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	DrawID                 primitive.ObjectID  `bson:"drawId" json:"drawId"`
	Name                   string              `bson:"name" json:"name"`
	Description            string              `bson:"description,omitempty" json:"description,omitempty"`
	PrizeType              PrizeType           `bson:"prizeType" json:"prizeType"`
	PointsAmount           *int                `bson:"pointsAmount,omitempty" json:"pointsAmount,omitempty"`
	RewardID               *primitive.ObjectID `bson:"rewardId,omitempty" json:"rewardId,omitempty"`
	VoucherDiscountPercent *decimal.Decimal    `bson:"voucherDiscountPercent,omitempty" json:"voucherDiscountPercent,omitempty"`
	VoucherDiscountAmount  *decimal.Decimal    `bson:"voucherDiscountAmount,omitempty" json:"voucherDiscountAmount,omitempty"`
	VoucherDescription     string              `bson:"voucherDescription,omitempty" json:"voucherDescription,omitempty"`
	VoucherExpiryDays      int                 `bson:"voucherExpiryDays,omitempty" json:"voucherExpiryDays,omitempty"`
	VoucherMaxUsage        int                 `bson:"voucherMaxUsage,omitempty" json:"voucherMaxUsage,omitempty"`
	ProbabilityWeight      int                 `bson:"probabilityWeight" json:"probabilityWeight"`
	StockQuantity          *int                `bson:"stockQuantity" json:"stockQuantity"`
	StockRemaining         *int                `bson:"stockRemaining" json:"stockRemaining"`
	DisplayOrder           int                 `bson:"displayOrder" json:"displayOrder"`
	ImageURL               string              `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt              time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsEligible reports whether the prize can currently be selected.
func (p *Prize) IsEligible() bool {
	if p.ProbabilityWeight <= 0 {
		return false
	}
	return p.StockRemaining == nil || *p.StockRemaining > 0
}

// SortPrizes orders prizes by display order, then by identity.
func SortPrizes(prizes []*Prize) {
	sort.SliceStable(prizes, func(i, j int) bool {
		if prizes[i].DisplayOrder != prizes[j].DisplayOrder {
			return prizes[i].DisplayOrder < prizes[j].DisplayOrder
		}
		return prizes[i].ID.Hex() < prizes[j].ID.Hex()
	})
}

// PrizeValue is the frozen description of what a spin awarded.
// It is written once with the history row and never recomputed.
type PrizeValue struct {
	PointsAmount    int                 `bson:"pointsAmount,omitempty" json:"pointsAmount,omitempty"`
	RewardID        *primitive.ObjectID `bson:"rewardId,omitempty" json:"rewardId,omitempty"`
	RewardTitle     string              `bson:"rewardTitle,omitempty" json:"rewardTitle,omitempty"`
	RedemptionID    *primitive.ObjectID `bson:"redemptionId,omitempty" json:"redemptionId,omitempty"`
	RedemptionCode  string              `bson:"redemptionCode,omitempty" json:"redemptionCode,omitempty"`
	ExpiresAt       *time.Time          `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	VoucherCode     string              `bson:"voucherCode,omitempty" json:"voucherCode,omitempty"`
	DiscountPercent *decimal.Decimal    `bson:"discountPercent,omitempty" json:"discountPercent,omitempty"`
	DiscountAmount  *decimal.Decimal    `bson:"discountAmount,omitempty" json:"discountAmount,omitempty"`
	Description     string              `bson:"description,omitempty" json:"description,omitempty"`
	MaxUsage        int                 `bson:"maxUsage,omitempty" json:"maxUsage,omitempty"`
	Warning         string              `bson:"warning,omitempty" json:"warning,omitempty"`
}
