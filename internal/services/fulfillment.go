package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

const (
	defaultVoucherExpiryDays  = 30
	defaultVoucherMaxUsage    = 1
	defaultRewardValidityDays = 30

	// WarningRewardUnavailable marks a reward prize whose catalog entry is gone.
	WarningRewardUnavailable = "reward_unavailable"
)

// FulfillmentRequest is the context a prize is awarded in.
type FulfillmentRequest struct {
	UserID    primitive.ObjectID
	Draw      *models.Draw
	Prize     *models.Prize
	SpinType  models.SpinType
	HistoryID primitive.ObjectID
	Now       time.Time
}

// Award is the outcome of fulfilling a prize.
type Award struct {
	Value         models.PrizeValue
	AwardedPoints int
	VoucherCode   *string
	VoucherExpiry *time.Time
}

type fulfillFunc func(ctx context.Context, req FulfillmentRequest) (*Award, error)

// FulfillmentDispatcher turns a won prize into its award and side effects.
// Stock and spin budget are handled by the caller.
type FulfillmentDispatcher struct {
	repos    Repositories
	handlers map[models.PrizeType]fulfillFunc
}

// NewFulfillmentDispatcher creates a dispatcher with a handler for every prize type.
func NewFulfillmentDispatcher(repos Repositories) *FulfillmentDispatcher {
	d := &FulfillmentDispatcher{repos: repos}
	d.handlers = map[models.PrizeType]fulfillFunc{
		models.PrizeTypePoints:  d.fulfillPoints,
		models.PrizeTypeReward:  d.fulfillReward,
		models.PrizeTypeVoucher: d.fulfillVoucher,
	}
	for _, t := range models.AllPrizeTypes {
		if _, ok := d.handlers[t]; !ok {
			panic(fmt.Sprintf("no fulfillment handler for prize type %q", t))
		}
	}
	return d
}

// Fulfill awards req.Prize to req.UserID.
func (d *FulfillmentDispatcher) Fulfill(ctx context.Context, req FulfillmentRequest) (*Award, error) {
	handler, ok := d.handlers[req.Prize.PrizeType]
	if !ok {
		return nil, fmt.Errorf("unsupported prize type %q", req.Prize.PrizeType)
	}
	return handler(ctx, req)
}

func (d *FulfillmentDispatcher) fulfillPoints(ctx context.Context, req FulfillmentRequest) (*Award, error) {
	amount := 0
	if req.Prize.PointsAmount != nil {
		amount = *req.Prize.PointsAmount
	}
	if amount > 0 {
		if err := d.repos.Users.CreditPoints(ctx, req.UserID, amount); err != nil {
			return nil, fmt.Errorf("failed to credit prize points: %w", err)
		}
		ref := req.HistoryID
		if err := d.repos.PointTransactions.Create(ctx, &models.PointTransaction{
			UserID:      req.UserID,
			Delta:       amount,
			Reason:      models.PointsReasonPrize,
			ReferenceID: &ref,
		}); err != nil {
			return nil, fmt.Errorf("failed to record prize points: %w", err)
		}
	}
	return &Award{
		Value: models.PrizeValue{
			PointsAmount: amount,
			Description:  req.Prize.Description,
		},
		AwardedPoints: amount,
	}, nil
}

func (d *FulfillmentDispatcher) fulfillReward(ctx context.Context, req FulfillmentRequest) (*Award, error) {
	award := &Award{Value: models.PrizeValue{Description: req.Prize.Description}}
	if req.Prize.RewardID == nil {
		return award, nil
	}
	award.Value.RewardID = req.Prize.RewardID

	reward, err := d.repos.Rewards.FindByID(ctx, *req.Prize.RewardID)
	if errors.Is(err, repositories.ErrNotFound) {
		slog.Warn("Reward prize references a missing catalog reward, skipping redemption",
			"prizeId", req.Prize.ID.Hex(), "rewardId", req.Prize.RewardID.Hex(), "drawId", req.Draw.ID.Hex())
		award.Value.Warning = WarningRewardUnavailable
		return award, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reward: %w", err)
	}

	code, err := uniqueCode(ctx, newRedemptionCode, d.repos.Redemptions.ExistsByCode)
	if err != nil {
		return nil, fmt.Errorf("failed to generate redemption code: %w", err)
	}
	validity := reward.ValidityDays
	if validity <= 0 {
		validity = defaultRewardValidityDays
	}
	historyID := req.HistoryID
	redemption := &models.RewardRedemption{
		UserID:         req.UserID,
		RewardID:       reward.ID,
		MerchantID:     reward.MerchantID,
		RewardTitle:    reward.Title,
		RedemptionCode: code,
		PointsSpent:    0,
		Status:         models.RedemptionActive,
		SourceType:     string(req.SpinType),
		SpinHistoryID:  &historyID,
		ExpiresAt:      req.Now.AddDate(0, 0, validity),
	}
	if err := d.repos.Redemptions.Create(ctx, redemption); err != nil {
		return nil, fmt.Errorf("failed to create redemption: %w", err)
	}

	award.Value.RewardTitle = reward.Title
	award.Value.RedemptionID = &redemption.ID
	award.Value.RedemptionCode = redemption.RedemptionCode
	award.Value.ExpiresAt = &redemption.ExpiresAt
	return award, nil
}

func (d *FulfillmentDispatcher) fulfillVoucher(ctx context.Context, req FulfillmentRequest) (*Award, error) {
	code, err := uniqueCode(ctx, newVoucherCode, d.repos.History.ExistsByVoucherCode)
	if err != nil {
		return nil, fmt.Errorf("failed to generate voucher code: %w", err)
	}
	expiryDays := req.Prize.VoucherExpiryDays
	if expiryDays <= 0 {
		expiryDays = defaultVoucherExpiryDays
	}
	maxUsage := req.Prize.VoucherMaxUsage
	if maxUsage <= 0 {
		maxUsage = defaultVoucherMaxUsage
	}
	description := req.Prize.VoucherDescription
	if description == "" {
		description = req.Prize.Description
	}
	expiry := req.Now.AddDate(0, 0, expiryDays)

	return &Award{
		Value: models.PrizeValue{
			VoucherCode:     code,
			DiscountPercent: req.Prize.VoucherDiscountPercent,
			DiscountAmount:  req.Prize.VoucherDiscountAmount,
			Description:     description,
			MaxUsage:        maxUsage,
			ExpiresAt:       &expiry,
		},
		VoucherCode:   &code,
		VoucherExpiry: &expiry,
	}, nil
}
