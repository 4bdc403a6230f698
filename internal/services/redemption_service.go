package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure RedemptionServiceImpl implements RedemptionService
var _ RedemptionService = (*RedemptionServiceImpl)(nil)

// RedeemResult is the outcome of a catalog redemption
type RedeemResult struct {
	Redemption       *models.RewardRedemption
	RemainingBalance int
}

// RedemptionFilter narrows a merchant redemption listing
type RedemptionFilter struct {
	Status   models.RedemptionStatus
	BranchID *primitive.ObjectID
}

// RedemptionServiceImpl handles catalog redemptions and the codes reward prizes issue
type RedemptionServiceImpl struct {
	repos Repositories
	now   func() time.Time
}

// NewRedemptionService creates a new RedemptionServiceImpl
func NewRedemptionService(repos Repositories) *RedemptionServiceImpl {
	return &RedemptionServiceImpl{repos: repos, now: time.Now}
}

// Redeem checks the reward is active and in stock, the customer's rank, balance
// and per-user limit, in that order, then issues a code and debits the points.
// Lifetime points are untouched.
func (s *RedemptionServiceImpl) Redeem(ctx context.Context, userID, rewardID primitive.ObjectID) (*RedeemResult, error) {
	var result *RedeemResult
	err := s.repos.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		user, err := s.repos.Users.FindByID(txCtx, userID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUnauthorized
		}
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		reward, err := s.repos.Rewards.FindByID(txCtx, rewardID)
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{Resource: "reward"}
		}
		if err != nil {
			return fmt.Errorf("failed to load reward: %w", err)
		}

		if !reward.IsActive {
			return validationf("this reward is no longer available")
		}
		if !reward.InStock() {
			return validationf("this reward is out of stock")
		}
		if !user.MeetsRank(reward.MinRank) {
			return &RankRequiredError{Required: reward.MinRank}
		}
		if user.PointsBalance < reward.PointsCost {
			return &InsufficientPointsError{Required: reward.PointsCost, Current: user.PointsBalance}
		}
		if limit := reward.RedemptionLimitPerUser; limit > 0 {
			n, err := s.repos.Redemptions.CountByUserAndReward(txCtx, user.ID, reward.ID)
			if err != nil {
				return fmt.Errorf("failed to count redemptions: %w", err)
			}
			if n >= int64(limit) {
				return validationf("you have reached the maximum redemption limit (%d) for this reward", limit)
			}
		}

		code, err := uniqueCode(txCtx, newRedemptionCode, s.repos.Redemptions.ExistsByCode)
		if err != nil {
			return fmt.Errorf("failed to generate redemption code: %w", err)
		}

		// the debit always writes the user document, which serializes
		// concurrent redemptions by one customer
		if err := s.repos.Users.DebitPoints(txCtx, user.ID, reward.PointsCost); err != nil {
			if errors.Is(err, repositories.ErrGuardFailed) {
				return &InsufficientPointsError{Required: reward.PointsCost, Current: user.PointsBalance}
			}
			return fmt.Errorf("failed to debit points: %w", err)
		}
		if reward.StockQuantity != nil {
			if err := s.repos.Rewards.DecrementStock(txCtx, reward.ID); err != nil {
				if errors.Is(err, repositories.ErrGuardFailed) {
					return validationf("this reward is out of stock")
				}
				return fmt.Errorf("failed to take reward stock: %w", err)
			}
		}

		now := s.now()
		redemption := &models.RewardRedemption{
			UserID:         user.ID,
			RewardID:       reward.ID,
			MerchantID:     reward.MerchantID,
			RewardTitle:    reward.Title,
			RedemptionCode: code,
			PointsSpent:    reward.PointsCost,
			Status:         models.RedemptionActive,
			SourceType:     models.RedemptionSourceCatalog,
			ExpiresAt:      now.AddDate(0, 0, reward.ValidityDays),
		}
		if err := s.repos.Redemptions.Create(txCtx, redemption); err != nil {
			return fmt.Errorf("failed to create redemption: %w", err)
		}
		if reward.PointsCost > 0 {
			if err := s.repos.PointTransactions.Create(txCtx, &models.PointTransaction{
				UserID:      user.ID,
				Delta:       -reward.PointsCost,
				Reason:      models.PointsReasonRedemption,
				ReferenceID: &redemption.ID,
			}); err != nil {
				return fmt.Errorf("failed to record redemption cost: %w", err)
			}
		}

		result = &RedeemResult{Redemption: redemption, RemainingBalance: user.PointsBalance - reward.PointsCost}
		return nil
	})
	if err != nil {
		if !isClientError(err) {
			slog.Error("Redemption failed", "error", err, "userId", userID.Hex(), "rewardId", rewardID.Hex())
		}
		return nil, err
	}

	slog.Info("Reward redeemed", "redemptionId", result.Redemption.ID.Hex(), "rewardId", rewardID.Hex(), "userId", userID.Hex(), "pointsSpent", result.Redemption.PointsSpent)
	return result, nil
}

// ListForMerchant lists a merchant's redemptions, newest first
func (s *RedemptionServiceImpl) ListForMerchant(ctx context.Context, staff *models.Identity, filter RedemptionFilter) ([]*models.RewardRedemption, error) {
	if staff == nil || !staff.IsStaff() || staff.MerchantID.IsZero() {
		return nil, ErrForbidden
	}
	if !staff.IsMainBranch {
		branchID := staff.BranchID
		filter.BranchID = &branchID
	}
	redemptions, err := s.repos.Redemptions.FindByMerchant(ctx, staff.MerchantID, filter.BranchID, filter.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	return redemptions, nil
}

// ListForUser lists a customer's redemptions, optionally filtered by status
func (s *RedemptionServiceImpl) ListForUser(ctx context.Context, userID primitive.ObjectID, status models.RedemptionStatus) ([]*models.RewardRedemption, error) {
	redemptions, err := s.repos.Redemptions.FindByUser(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	return redemptions, nil
}

// Validate marks a redemption code as used at the staff member's branch
func (s *RedemptionServiceImpl) Validate(ctx context.Context, staff *models.Identity, code string) (*models.RewardRedemption, error) {
	if staff == nil || !staff.IsStaff() || staff.MerchantID.IsZero() {
		return nil, ErrForbidden
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, validationf("redemption code is required")
	}

	var redemption *models.RewardRedemption
	err := s.repos.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		found, err := s.repos.Redemptions.FindByCode(txCtx, code)
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{Resource: "redemption"}
		}
		if err != nil {
			return fmt.Errorf("failed to load redemption: %w", err)
		}
		if found.MerchantID != staff.MerchantID {
			return ErrForbidden
		}

		now := s.now()
		switch found.Status {
		case models.RedemptionUsed:
			return validationf("redemption code was already used")
		case models.RedemptionCancelled:
			return validationf("redemption code was cancelled")
		case models.RedemptionExpired:
			return validationf("redemption code has expired")
		}
		if now.After(found.ExpiresAt) {
			found.Status = models.RedemptionExpired
			if err := s.repos.Redemptions.UpdateStatus(txCtx, found); err != nil {
				return fmt.Errorf("failed to expire redemption: %w", err)
			}
			redemption = found
			return nil
		}

		found.Status = models.RedemptionUsed
		found.UsedAt = &now
		if !staff.BranchID.IsZero() {
			branchID := staff.BranchID
			found.UsedAtBranchID = &branchID
		}
		if err := s.repos.Redemptions.UpdateStatus(txCtx, found); err != nil {
			return fmt.Errorf("failed to mark redemption used: %w", err)
		}
		redemption = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	// The expired status is committed before the caller sees the rejection.
	if redemption.Status == models.RedemptionExpired {
		return nil, validationf("redemption code has expired")
	}

	slog.Info("Redemption validated", "redemptionId", redemption.ID.Hex(), "merchantId", redemption.MerchantID.Hex(), "staffId", staff.UserID.Hex())
	return redemption, nil
}

// ExpireOverdue marks every active redemption past its expiry as expired
func (s *RedemptionServiceImpl) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.repos.Redemptions.ExpireOverdue(ctx, s.now())
	if err != nil {
		slog.Error("Failed to expire redemptions", "error", err)
		return 0, fmt.Errorf("failed to expire redemptions: %w", err)
	}
	if n > 0 {
		slog.Info("Expired overdue redemptions", "count", n)
	}
	return n, nil
}
