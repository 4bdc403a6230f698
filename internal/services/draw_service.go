package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

const defaultMaxSpinsPerUserDay = 1

// DrawInput carries the editable fields of a draw. Nil fields are left unchanged.
type DrawInput struct {
	Name                *string    `json:"name"`
	Description         *string    `json:"description"`
	PointsCostPerSpin   *int       `json:"pointsCostPerSpin"`
	IsDay7Draw          *bool      `json:"isDay7Draw"`
	MaxSpinsPerUserDay  *int       `json:"maxSpinsPerUserDay"`
	TotalAvailableSpins *int       `json:"totalAvailableSpins"`
	UnlimitedSpins      bool       `json:"unlimitedSpins"`
	IsActive            *bool      `json:"isActive"`
	StartDate           *time.Time `json:"startDate"`
	EndDate             *time.Time `json:"endDate"`
}

// PrizeInput carries the editable fields of a prize. Nil fields are left unchanged.
type PrizeInput struct {
	Name                   *string           `json:"name"`
	Description            *string           `json:"description"`
	PrizeType              *models.PrizeType `json:"prizeType"`
	PointsAmount           *int              `json:"pointsAmount"`
	RewardID               *string           `json:"rewardId"`
	VoucherDiscountPercent *decimal.Decimal  `json:"voucherDiscountPercent"`
	VoucherDiscountAmount  *decimal.Decimal  `json:"voucherDiscountAmount"`
	VoucherDescription     *string           `json:"voucherDescription"`
	VoucherExpiryDays      *int              `json:"voucherExpiryDays"`
	VoucherMaxUsage        *int              `json:"voucherMaxUsage"`
	ProbabilityWeight      *int              `json:"probabilityWeight"`
	StockQuantity          *int              `json:"stockQuantity"`
	UnlimitedStock         bool              `json:"unlimitedStock"`
	DisplayOrder           *int              `json:"displayOrder"`
	ImageURL               *string           `json:"imageUrl"`
}

// DrawServiceImpl handles merchant administration of lucky draws
type DrawServiceImpl struct {
	repos Repositories
}

// NewDrawService creates a new DrawServiceImpl
func NewDrawService(repos Repositories) *DrawServiceImpl {
	return &DrawServiceImpl{repos: repos}
}

// ListDraws lists all draws of a merchant
func (s *DrawServiceImpl) ListDraws(ctx context.Context, merchantID primitive.ObjectID) ([]*models.Draw, error) {
	draws, err := s.repos.Draws.FindByMerchant(ctx, merchantID)
	if err != nil {
		slog.Error("Failed to list draws", "error", err, "merchantId", merchantID.Hex())
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}
	return draws, nil
}

// ownedDraw loads a draw and hides draws of other merchants.
func (s *DrawServiceImpl) ownedDraw(ctx context.Context, merchantID, drawID primitive.ObjectID) (*models.Draw, error) {
	draw, err := s.repos.Draws.FindByID(ctx, drawID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && draw.MerchantID != merchantID) {
		return nil, &NotFoundError{Resource: "lucky draw"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draw: %w", err)
	}
	return draw, nil
}

// ownedPrize loads a prize of an owned draw.
func (s *DrawServiceImpl) ownedPrize(ctx context.Context, merchantID, drawID, prizeID primitive.ObjectID) (*models.Draw, *models.Prize, error) {
	draw, err := s.ownedDraw(ctx, merchantID, drawID)
	if err != nil {
		return nil, nil, err
	}
	prize, err := s.repos.Prizes.FindByID(ctx, prizeID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && prize.DrawID != draw.ID) {
		return nil, nil, &NotFoundError{Resource: "prize"}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load prize: %w", err)
	}
	return draw, prize, nil
}

// GetDraw returns a draw with its prizes and any configuration warnings
func (s *DrawServiceImpl) GetDraw(ctx context.Context, merchantID, drawID primitive.ObjectID) (*models.DrawWithPrizes, error) {
	draw, err := s.ownedDraw(ctx, merchantID, drawID)
	if err != nil {
		return nil, err
	}
	prizes, err := s.repos.Prizes.FindByDraw(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prizes: %w", err)
	}

	detail := &models.DrawWithPrizes{Draw: draw, Prizes: prizes}
	for _, p := range prizes {
		if p.PrizeType != models.PrizeTypeReward || p.RewardID == nil {
			continue
		}
		_, err := s.repos.Rewards.FindByID(ctx, *p.RewardID)
		if errors.Is(err, repositories.ErrNotFound) {
			detail.Warnings = append(detail.Warnings, fmt.Sprintf("prize %q references a reward that no longer exists; winners will not receive a redemption code", p.Name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check reward: %w", err)
		}
	}
	return detail, nil
}

// CreateDraw creates a draw for a merchant
func (s *DrawServiceImpl) CreateDraw(ctx context.Context, merchantID primitive.ObjectID, input DrawInput) (*models.Draw, error) {
	draw := &models.Draw{
		MerchantID:         merchantID,
		MaxSpinsPerUserDay: defaultMaxSpinsPerUserDay,
		IsActive:           true,
	}
	if input.Name == nil {
		return nil, validationf("name is required")
	}
	resize, total, err := applyDrawInput(draw, input)
	if err != nil {
		return nil, err
	}
	if resize && total != nil {
		draw.TotalAvailableSpins = intPtr(*total)
		draw.RemainingSpins = intPtr(*total)
	}
	if err := s.checkDay7Uniqueness(ctx, draw, nil); err != nil {
		return nil, err
	}

	if err := s.repos.Draws.Create(ctx, draw); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, validationf("merchant already has an active day 7 draw")
		}
		slog.Error("Failed to create draw", "error", err, "merchantId", merchantID.Hex())
		return nil, fmt.Errorf("failed to create draw: %w", err)
	}
	slog.Info("Lucky draw created", "drawId", draw.ID.Hex(), "merchantId", merchantID.Hex(), "isDay7", draw.IsDay7Draw)
	return draw, nil
}

// UpdateDraw edits a draw. A new spin total keeps the spins already used.
func (s *DrawServiceImpl) UpdateDraw(ctx context.Context, merchantID, drawID primitive.ObjectID, input DrawInput) (*models.Draw, error) {
	var updated *models.Draw
	err := s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		draw, err := s.ownedDraw(ctx, merchantID, drawID)
		if err != nil {
			return err
		}
		from := draw.TotalAvailableSpins
		resize, total, err := applyDrawInput(draw, input)
		if err != nil {
			return err
		}
		id := draw.ID
		if err := s.checkDay7Uniqueness(ctx, draw, &id); err != nil {
			return err
		}

		if err := s.repos.Draws.Update(ctx, draw); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return validationf("merchant already has an active day 7 draw")
			}
			return fmt.Errorf("failed to update draw: %w", err)
		}
		if resize {
			used := 0
			if from == nil && total != nil {
				n, err := s.repos.History.CountByDraw(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to count spins: %w", err)
				}
				used = int(n)
			}
			err := s.repos.Draws.ResizeSpins(ctx, id, from, total, used)
			if errors.Is(err, repositories.ErrGuardFailed) {
				return &ConcurrencyConflictError{Resource: ResourceDrawSpins}
			}
			if err != nil {
				return fmt.Errorf("failed to resize spin budget: %w", err)
			}
		}

		updated, err = s.repos.Draws.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to reload draw: %w", err)
		}
		return nil
	})
	if err != nil {
		if !isClientError(err) {
			slog.Error("Failed to update draw", "error", err, "drawId", drawID.Hex())
		}
		return nil, err
	}
	return updated, nil
}

// applyDrawInput copies the editable fields onto draw. The spin budget is
// returned instead of applied: resize reports whether the input changes it and
// total is the new total, nil meaning unlimited.
func applyDrawInput(draw *models.Draw, input DrawInput) (resize bool, total *int, err error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return false, nil, validationf("name is required")
		}
		draw.Name = name
	}
	if input.Description != nil {
		draw.Description = *input.Description
	}
	if input.PointsCostPerSpin != nil {
		if *input.PointsCostPerSpin < 0 {
			return false, nil, validationf("pointsCostPerSpin cannot be negative")
		}
		draw.PointsCostPerSpin = *input.PointsCostPerSpin
	}
	if input.IsDay7Draw != nil {
		draw.IsDay7Draw = *input.IsDay7Draw
	}
	if input.MaxSpinsPerUserDay != nil {
		if *input.MaxSpinsPerUserDay < 0 {
			return false, nil, validationf("maxSpinsPerUserDay cannot be negative")
		}
		draw.MaxSpinsPerUserDay = *input.MaxSpinsPerUserDay
	}
	if input.IsActive != nil {
		draw.IsActive = *input.IsActive
	}
	if input.StartDate != nil {
		draw.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		draw.EndDate = input.EndDate
	}
	if draw.StartDate != nil && draw.EndDate != nil && draw.EndDate.Before(*draw.StartDate) {
		return false, nil, validationf("endDate must be after startDate")
	}
	if draw.IsDay7Draw && draw.PointsCostPerSpin != 0 {
		return false, nil, validationf("day 7 draws must be free (pointsCostPerSpin = 0)")
	}

	switch {
	case input.UnlimitedSpins:
		return true, nil, nil
	case input.TotalAvailableSpins != nil:
		if *input.TotalAvailableSpins <= 0 {
			return false, nil, validationf("totalAvailableSpins must be positive")
		}
		return true, input.TotalAvailableSpins, nil
	}
	return false, nil, nil
}

func (s *DrawServiceImpl) checkDay7Uniqueness(ctx context.Context, draw *models.Draw, excludeID *primitive.ObjectID) error {
	if !draw.IsDay7Draw || !draw.IsActive {
		return nil
	}
	n, err := s.repos.Draws.CountActiveDay7(ctx, draw.MerchantID, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check day 7 draws: %w", err)
	}
	if n > 0 {
		return validationf("merchant already has an active day 7 draw")
	}
	return nil
}

// DeleteDraw removes a draw that was never spun
func (s *DrawServiceImpl) DeleteDraw(ctx context.Context, merchantID, drawID primitive.ObjectID) error {
	err := s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		draw, err := s.ownedDraw(ctx, merchantID, drawID)
		if err != nil {
			return err
		}
		spins, err := s.repos.History.CountByDraw(ctx, draw.ID)
		if err != nil {
			return fmt.Errorf("failed to count spins: %w", err)
		}
		if spins > 0 {
			return validationf("cannot delete a draw with spin history; deactivate it instead")
		}
		if err := s.repos.Draws.Delete(ctx, draw.ID); err != nil {
			return fmt.Errorf("failed to delete draw: %w", err)
		}
		return nil
	})
	if err != nil {
		if !isClientError(err) {
			slog.Error("Failed to delete draw", "error", err, "drawId", drawID.Hex())
		}
		return err
	}
	slog.Info("Lucky draw deleted", "drawId", drawID.Hex(), "merchantId", merchantID.Hex())
	return nil
}

// AddPrize adds a prize to a draw's pool
func (s *DrawServiceImpl) AddPrize(ctx context.Context, merchantID, drawID primitive.ObjectID, input PrizeInput) (*models.Prize, error) {
	draw, err := s.ownedDraw(ctx, merchantID, drawID)
	if err != nil {
		return nil, err
	}
	if input.PrizeType == nil {
		return nil, validationf("prizeType is required")
	}
	if input.Name == nil {
		return nil, validationf("name is required")
	}

	prize := &models.Prize{DrawID: draw.ID}
	resize, quantity, err := s.applyPrizeInput(ctx, merchantID, prize, input)
	if err != nil {
		return nil, err
	}
	if resize && quantity != nil {
		prize.StockQuantity = intPtr(*quantity)
		prize.StockRemaining = intPtr(*quantity)
	}
	if err := s.repos.Prizes.Create(ctx, prize); err != nil {
		slog.Error("Failed to create prize", "error", err, "drawId", drawID.Hex())
		return nil, fmt.Errorf("failed to create prize: %w", err)
	}
	return prize, nil
}

// UpdatePrize edits a prize. A new stock quantity keeps the units already won.
func (s *DrawServiceImpl) UpdatePrize(ctx context.Context, merchantID, drawID, prizeID primitive.ObjectID, input PrizeInput) (*models.Prize, error) {
	var updated *models.Prize
	err := s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, prize, err := s.ownedPrize(ctx, merchantID, drawID, prizeID)
		if err != nil {
			return err
		}
		from := prize.StockQuantity
		resize, quantity, err := s.applyPrizeInput(ctx, merchantID, prize, input)
		if err != nil {
			return err
		}
		if err := s.repos.Prizes.Update(ctx, prize); err != nil {
			return fmt.Errorf("failed to update prize: %w", err)
		}
		if resize {
			used := 0
			if from == nil && quantity != nil {
				n, err := s.repos.History.CountByPrize(ctx, prizeID)
				if err != nil {
					return fmt.Errorf("failed to count wins: %w", err)
				}
				used = int(n)
			}
			err := s.repos.Prizes.ResizeStock(ctx, prizeID, from, quantity, used)
			if errors.Is(err, repositories.ErrGuardFailed) {
				return &ConcurrencyConflictError{Resource: ResourcePrizeStock}
			}
			if err != nil {
				return fmt.Errorf("failed to resize stock: %w", err)
			}
		}

		updated, err = s.repos.Prizes.FindByID(ctx, prizeID)
		if err != nil {
			return fmt.Errorf("failed to reload prize: %w", err)
		}
		return nil
	})
	if err != nil {
		if !isClientError(err) {
			slog.Error("Failed to update prize", "error", err, "prizeId", prizeID.Hex())
		}
		return nil, err
	}
	return updated, nil
}

// applyPrizeInput copies the editable fields onto prize and validates it. The
// stock change is returned the way applyDrawInput returns the spin budget.
func (s *DrawServiceImpl) applyPrizeInput(ctx context.Context, merchantID primitive.ObjectID, prize *models.Prize, input PrizeInput) (resize bool, quantity *int, err error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return false, nil, validationf("name is required")
		}
		prize.Name = name
	}
	if input.Description != nil {
		prize.Description = *input.Description
	}
	if input.PrizeType != nil {
		if !input.PrizeType.Valid() {
			return false, nil, validationf("prizeType must be one of points, reward, voucher")
		}
		prize.PrizeType = *input.PrizeType
	}
	if input.PointsAmount != nil {
		prize.PointsAmount = input.PointsAmount
	}
	if input.RewardID != nil {
		rewardID, err := primitive.ObjectIDFromHex(*input.RewardID)
		if err != nil {
			return false, nil, validationf("rewardId is invalid")
		}
		prize.RewardID = &rewardID
	}
	if input.VoucherDiscountPercent != nil {
		prize.VoucherDiscountPercent = input.VoucherDiscountPercent
	}
	if input.VoucherDiscountAmount != nil {
		prize.VoucherDiscountAmount = input.VoucherDiscountAmount
	}
	if input.VoucherDescription != nil {
		prize.VoucherDescription = *input.VoucherDescription
	}
	if input.VoucherExpiryDays != nil {
		prize.VoucherExpiryDays = *input.VoucherExpiryDays
	}
	if input.VoucherMaxUsage != nil {
		prize.VoucherMaxUsage = *input.VoucherMaxUsage
	}
	if input.ProbabilityWeight != nil {
		if *input.ProbabilityWeight < 0 {
			return false, nil, validationf("probabilityWeight cannot be negative")
		}
		prize.ProbabilityWeight = *input.ProbabilityWeight
	}
	if input.DisplayOrder != nil {
		prize.DisplayOrder = *input.DisplayOrder
	}
	if input.ImageURL != nil {
		prize.ImageURL = *input.ImageURL
	}

	switch {
	case input.UnlimitedStock:
		resize = true
	case input.StockQuantity != nil:
		if *input.StockQuantity < 0 {
			return false, nil, validationf("stockQuantity cannot be negative")
		}
		resize, quantity = true, input.StockQuantity
	}

	if err := s.validatePrize(ctx, merchantID, prize); err != nil {
		return false, nil, err
	}
	return resize, quantity, nil
}

// validatePrize checks the fields each prize type requires.
func (s *DrawServiceImpl) validatePrize(ctx context.Context, merchantID primitive.ObjectID, prize *models.Prize) error {
	switch prize.PrizeType {
	case models.PrizeTypePoints:
		if prize.PointsAmount == nil || *prize.PointsAmount <= 0 {
			return validationf("points prizes require a positive pointsAmount")
		}
	case models.PrizeTypeReward:
		if prize.RewardID == nil {
			return validationf("reward prizes require a rewardId")
		}
		reward, err := s.repos.Rewards.FindByID(ctx, *prize.RewardID)
		if errors.Is(err, repositories.ErrNotFound) || (err == nil && reward.MerchantID != merchantID) {
			return validationf("reward not found")
		}
		if err != nil {
			return fmt.Errorf("failed to load reward: %w", err)
		}
	case models.PrizeTypeVoucher:
		if prize.VoucherDiscountPercent == nil && prize.VoucherDiscountAmount == nil {
			return validationf("voucher prizes require a discount percent or amount")
		}
		if p := prize.VoucherDiscountPercent; p != nil && (!p.IsPositive() || p.GreaterThan(decimal.NewFromInt(100))) {
			return validationf("voucherDiscountPercent must be between 0 and 100")
		}
		if a := prize.VoucherDiscountAmount; a != nil && !a.IsPositive() {
			return validationf("voucherDiscountAmount must be positive")
		}
		if prize.VoucherExpiryDays < 0 || prize.VoucherMaxUsage < 0 {
			return validationf("voucher expiry days and max usage cannot be negative")
		}
	default:
		return validationf("prizeType must be one of points, reward, voucher")
	}
	return nil
}

// DeletePrize removes a prize that was never won
func (s *DrawServiceImpl) DeletePrize(ctx context.Context, merchantID, drawID, prizeID primitive.ObjectID) error {
	return s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, prize, err := s.ownedPrize(ctx, merchantID, drawID, prizeID)
		if err != nil {
			return err
		}
		wins, err := s.repos.History.CountByPrize(ctx, prize.ID)
		if err != nil {
			return fmt.Errorf("failed to count wins: %w", err)
		}
		if wins > 0 {
			return validationf("cannot delete a prize that has been won; set its weight to 0 instead")
		}
		if err := s.repos.Prizes.Delete(ctx, prize.ID); err != nil {
			return fmt.Errorf("failed to delete prize: %w", err)
		}
		return nil
	})
}

// GetStatistics aggregates the spin ledger of a draw
func (s *DrawServiceImpl) GetStatistics(ctx context.Context, merchantID, drawID primitive.ObjectID) (*models.DrawStatistics, error) {
	draw, err := s.ownedDraw(ctx, merchantID, drawID)
	if err != nil {
		return nil, err
	}
	summary, err := s.repos.History.SummarizeDraw(ctx, draw.ID)
	if err != nil {
		slog.Error("Failed to summarize draw", "error", err, "drawId", drawID.Hex())
		return nil, fmt.Errorf("failed to summarize draw: %w", err)
	}
	prizes, err := s.repos.Prizes.FindByDraw(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prizes: %w", err)
	}

	distribution := make([]models.PrizeDistribution, 0, len(prizes))
	for _, p := range prizes {
		distribution = append(distribution, models.PrizeDistribution{
			PrizeID:   p.ID,
			PrizeName: p.Name,
			PrizeType: p.PrizeType,
			WonCount:  summary.WinsByPrize[p.ID],
		})
	}

	return &models.DrawStatistics{
		DrawID:             draw.ID,
		DrawName:           draw.Name,
		TotalSpins:         summary.TotalSpins,
		Day7Spins:          summary.Day7Spins,
		PointsSpins:        summary.PointsSpins,
		TotalPointsAwarded: summary.TotalPointsAwarded,
		TotalPointsSpent:   summary.TotalPointsSpent,
		UniqueParticipants: summary.UniqueParticipants,
		PrizeDistribution:  distribution,
		RemainingSpins:     draw.RemainingSpins,
		IsActive:           draw.IsActive,
	}, nil
}

func intPtr(v int) *int {
	return &v
}
