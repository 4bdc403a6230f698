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

// Compile-time check to ensure SpinServiceImpl implements SpinService
var _ SpinService = (*SpinServiceImpl)(nil)

// WonPrize describes the prize a spin awarded.
type WonPrize struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	Type        models.PrizeType   `json:"type"`
	Description string             `json:"description,omitempty"`
	ImageURL    string             `json:"imageUrl,omitempty"`
	Value       models.PrizeValue  `json:"value"`
}

// SpinResult is the outcome of a committed spin.
type SpinResult struct {
	HistoryID      primitive.ObjectID `json:"historyId"`
	DrawID         primitive.ObjectID `json:"drawId"`
	SpinType       models.SpinType    `json:"spinType"`
	Prize          WonPrize           `json:"prize"`
	PointsSpent    int                `json:"pointsSpent"`
	NewBalance     int                `json:"newBalance"`
	PointsLifetime int                `json:"pointsLifetime"`
	userID         primitive.ObjectID
}

// SpinServiceImpl coordinates spins and the customer-facing draw queries
type SpinServiceImpl struct {
	repos       Repositories
	fulfillment *FulfillmentDispatcher
	notifier    NotificationService
	rnd         RandomSource
	metrics     *Metrics
	now         func() time.Time
}

// NewSpinService creates a new SpinServiceImpl
func NewSpinService(
	repos Repositories,
	fulfillment *FulfillmentDispatcher,
	notifier NotificationService,
	rnd RandomSource,
	metrics *Metrics,
) *SpinServiceImpl {
	return &SpinServiceImpl{
		repos:       repos,
		fulfillment: fulfillment,
		notifier:    notifier,
		rnd:         rnd,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Spin validates, selects, fulfills and records one spin atomically. A lost
// race on a guarded decrement is retried once before it is reported as an
// unavailable draw or an empty prize pool.
func (s *SpinServiceImpl) Spin(ctx context.Context, userID, drawID primitive.ObjectID, spinType models.SpinType) (*SpinResult, error) {
	if !spinType.Valid() {
		return nil, ErrInvalidSpinType
	}

	attempt := func() (*SpinResult, error) {
		var result *SpinResult
		err := s.repos.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
			now := s.now()
			user, err := s.repos.Users.Lock(txCtx, userID, now)
			if errors.Is(err, repositories.ErrNotFound) {
				return &NotFoundError{Resource: "user"}
			}
			if err != nil {
				return fmt.Errorf("failed to lock user: %w", err)
			}
			draw, err := s.repos.Draws.FindByID(txCtx, drawID)
			if errors.Is(err, repositories.ErrNotFound) {
				return &NotFoundError{Resource: "lucky draw"}
			}
			if err != nil {
				return fmt.Errorf("failed to load draw: %w", err)
			}
			result, err = s.spinInTx(txCtx, user, draw, spinType, now)
			return err
		})
		return result, err
	}

	result, err := attempt()
	var conflict *ConcurrencyConflictError
	if errors.As(err, &conflict) {
		s.metrics.conflict()
		slog.Warn("Spin lost a concurrent update, retrying", "userId", userID.Hex(), "drawId", drawID.Hex(), "resource", conflict.Resource)
		result, err = attempt()
		if errors.As(err, &conflict) {
			s.metrics.conflict()
			if conflict.Resource == ResourceDrawSpins {
				err = ErrDrawUnavailable
			} else {
				err = ErrNoPrizesAvailable
			}
		}
	}
	if err != nil {
		if isSpinRejection(err) {
			s.metrics.spinRejected(rejectionReason(err))
		} else {
			slog.Error("Spin failed", "error", err, "userId", userID.Hex(), "drawId", drawID.Hex())
		}
		return nil, err
	}

	s.afterSpin(ctx, result)
	return result, nil
}

// spinInTx runs the spin steps against an already locked user. It must be
// called inside a transaction; any error aborts every mutation it made.
func (s *SpinServiceImpl) spinInTx(ctx context.Context, user *models.User, draw *models.Draw, spinType models.SpinType, now time.Time) (*SpinResult, error) {
	if err := CheckDrawAvailable(draw, now); err != nil {
		return nil, err
	}
	if err := CheckSpinType(draw, spinType); err != nil {
		return nil, err
	}

	spinsToday, err := s.repos.History.CountForUserSince(ctx, user.ID, draw.ID, models.UTCDay(now))
	if err != nil {
		return nil, fmt.Errorf("failed to count today's spins: %w", err)
	}
	if err := CheckDailyLimit(int(spinsToday), draw.MaxSpinsPerUserDay); err != nil {
		return nil, err
	}

	historyID := primitive.NewObjectID()
	pointsSpent := 0
	if spinType == models.SpinTypePointsRedemption {
		cost := draw.PointsCostPerSpin
		if err := CheckPoints(user.PointsBalance, cost); err != nil {
			return nil, err
		}
		if cost > 0 {
			err := s.repos.Users.DebitPoints(ctx, user.ID, cost)
			if errors.Is(err, repositories.ErrGuardFailed) {
				return nil, &InsufficientPointsError{Required: cost, Current: user.PointsBalance}
			}
			if err != nil {
				return nil, fmt.Errorf("failed to debit spin cost: %w", err)
			}
			if err := s.repos.PointTransactions.Create(ctx, &models.PointTransaction{
				UserID:      user.ID,
				Delta:       -cost,
				Reason:      models.PointsReasonSpinCost,
				ReferenceID: &historyID,
			}); err != nil {
				return nil, fmt.Errorf("failed to record spin cost: %w", err)
			}
		}
		pointsSpent = cost
	}

	prizes, err := s.repos.Prizes.FindEligibleByDraw(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prizes: %w", err)
	}
	prize, err := SelectPrize(prizes, s.rnd)
	if err != nil {
		return nil, err
	}

	if draw.RemainingSpins != nil {
		err := s.repos.Draws.DecrementRemainingSpins(ctx, draw.ID)
		if errors.Is(err, repositories.ErrGuardFailed) {
			return nil, &ConcurrencyConflictError{Resource: ResourceDrawSpins}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decrement draw spins: %w", err)
		}
	}
	if prize.StockRemaining != nil {
		err := s.repos.Prizes.DecrementStock(ctx, prize.ID)
		if errors.Is(err, repositories.ErrGuardFailed) {
			return nil, &ConcurrencyConflictError{Resource: ResourcePrizeStock}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decrement prize stock: %w", err)
		}
	}

	award, err := s.fulfillment.Fulfill(ctx, FulfillmentRequest{
		UserID:    user.ID,
		Draw:      draw,
		Prize:     prize,
		SpinType:  spinType,
		HistoryID: historyID,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}

	prizeID := prize.ID
	history := &models.SpinHistory{
		ID:            historyID,
		UserID:        user.ID,
		DrawID:        draw.ID,
		MerchantID:    draw.MerchantID,
		DrawName:      draw.Name,
		PrizeID:       &prizeID,
		PointsSpent:   pointsSpent,
		SpinType:      spinType,
		PrizeType:     prize.PrizeType,
		PrizeName:     prize.Name,
		PrizeValue:    award.Value,
		AwardedPoints: award.AwardedPoints,
		VoucherCode:   award.VoucherCode,
		VoucherExpiry: award.VoucherExpiry,
		CreatedAt:     now,
	}
	if spinType == models.SpinTypeDay7Checkin {
		history.IsClaimed = true
		history.ClaimedAt = &now
	}
	if err := s.repos.History.Create(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record spin: %w", err)
	}

	updated, err := s.repos.Users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	return &SpinResult{
		HistoryID: historyID,
		DrawID:    draw.ID,
		SpinType:  spinType,
		Prize: WonPrize{
			ID:          prize.ID,
			Name:        prize.Name,
			Type:        prize.PrizeType,
			Description: prize.Description,
			ImageURL:    prize.ImageURL,
			Value:       award.Value,
		},
		PointsSpent:    pointsSpent,
		NewBalance:     updated.PointsBalance,
		PointsLifetime: updated.PointsLifetime,
		userID:         user.ID,
	}, nil
}

// afterSpin runs once the spin is committed.
func (s *SpinServiceImpl) afterSpin(ctx context.Context, result *SpinResult) {
	s.metrics.spinCompleted(string(result.SpinType), string(result.Prize.Type))
	slog.Info("Lucky draw spin completed",
		"userId", result.userID.Hex(), "drawId", result.DrawID.Hex(),
		"historyId", result.HistoryID.Hex(), "prizeType", result.Prize.Type)

	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, result.userID, models.NotificationLuckyDrawWon,
		"You won a prize!",
		fmt.Sprintf("You won %s in the lucky draw.", result.Prize.Name),
		map[string]interface{}{
			"historyId": result.HistoryID.Hex(),
			"drawId":    result.DrawID.Hex(),
			"prizeId":   result.Prize.ID.Hex(),
			"prizeType": string(result.Prize.Type),
			"spinType":  string(result.SpinType),
		})
}

func rejectionReason(err error) string {
	var (
		limitErr    *DailySpinLimitError
		pointsErr   *InsufficientPointsError
		conflictErr *ConcurrencyConflictError
	)
	switch {
	case errors.Is(err, ErrDrawUnavailable):
		return "draw_unavailable"
	case errors.Is(err, ErrInvalidSpinType):
		return "invalid_spin_type"
	case errors.Is(err, ErrNoPrizesAvailable):
		return "no_prizes_available"
	case errors.As(err, &limitErr):
		return "daily_limit"
	case errors.As(err, &pointsErr):
		return "insufficient_points"
	case errors.As(err, &conflictErr):
		return "concurrency_conflict"
	default:
		return "other"
	}
}
