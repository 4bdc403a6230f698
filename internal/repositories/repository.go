package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrGuardFailed is returned when a conditional update matched no record
	// because its guard (remaining > 0, balance >= cost) no longer held.
	ErrGuardFailed = errors.New("conditional update guard failed")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// Transactor runs fn atomically. Repository calls made with the context passed
// to fn join the transaction; a non-nil error from fn rolls everything back.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// Lock writes the user's lastSpinAt so concurrent transactions touching the
	// same user conflict, and returns the current document.
	Lock(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.User, error)
	CreditPoints(ctx context.Context, id primitive.ObjectID, points int) error
	// DebitPoints returns ErrGuardFailed when the balance is below points.
	DebitPoints(ctx context.Context, id primitive.ObjectID, points int) error
	UpdateCheckIn(ctx context.Context, id primitive.ObjectID, day time.Time, streak int) error
}

// DrawRepository defines the interface for draw data operations
type DrawRepository interface {
	Create(ctx context.Context, draw *models.Draw) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Draw, error)
	FindByMerchant(ctx context.Context, merchantID primitive.ObjectID) ([]*models.Draw, error)
	FindActiveByMerchant(ctx context.Context, merchantID primitive.ObjectID) ([]*models.Draw, error)
	// FindActiveDay7 returns the active Day-7 draw of a merchant, or of any
	// merchant when merchantID is nil.
	FindActiveDay7(ctx context.Context, merchantID *primitive.ObjectID) (*models.Draw, error)
	CountActiveDay7(ctx context.Context, merchantID primitive.ObjectID, excludeID *primitive.ObjectID) (int64, error)
	// Update writes the editable fields of draw. The spin budget is left alone.
	Update(ctx context.Context, draw *models.Draw) error
	// ResizeSpins sets a new spin total. When from is set, remaining spins move
	// by to - from; otherwise they start at to - used. Remaining never drops
	// below zero and a nil to makes the budget unlimited. ErrGuardFailed means
	// the stored total is no longer from.
	ResizeSpins(ctx context.Context, id primitive.ObjectID, from, to *int, used int) error
	// Delete tombstones a draw, deactivating it, and removes its prizes.
	// Tombstoned draws are invisible to every lookup.
	Delete(ctx context.Context, id primitive.ObjectID) error
	// DecrementRemainingSpins returns ErrGuardFailed when no spins remain.
	DecrementRemainingSpins(ctx context.Context, id primitive.ObjectID) error
}

// PrizeRepository defines the interface for prize data operations
type PrizeRepository interface {
	Create(ctx context.Context, prize *models.Prize) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prize, error)
	// FindByDraw returns all prizes of a draw ordered by display order, then id.
	FindByDraw(ctx context.Context, drawID primitive.ObjectID) ([]*models.Prize, error)
	// FindEligibleByDraw is FindByDraw restricted to positive weight and stock.
	FindEligibleByDraw(ctx context.Context, drawID primitive.ObjectID) ([]*models.Prize, error)
	// Update writes the editable fields of prize. Stock is left alone.
	Update(ctx context.Context, prize *models.Prize) error
	// ResizeStock is ResizeSpins for a prize's stock quantity.
	ResizeStock(ctx context.Context, id primitive.ObjectID, from, to *int, used int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// DecrementStock returns ErrGuardFailed when no stock remains.
	DecrementStock(ctx context.Context, id primitive.ObjectID) error
}

// SpinHistoryRepository defines the interface for the append-only spin ledger
type SpinHistoryRepository interface {
	Create(ctx context.Context, history *models.SpinHistory) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.SpinHistory, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID, drawID *primitive.ObjectID, skip, limit int64) ([]*models.SpinHistory, int64, error)
	CountForUserSince(ctx context.Context, userID, drawID primitive.ObjectID, since time.Time) (int64, error)
	CountByDraw(ctx context.Context, drawID primitive.ObjectID) (int64, error)
	CountByPrize(ctx context.Context, prizeID primitive.ObjectID) (int64, error)
	ExistsByVoucherCode(ctx context.Context, code string) (bool, error)
	SummarizeDraw(ctx context.Context, drawID primitive.ObjectID) (*models.SpinLedgerSummary, error)
}

// RewardRepository defines the interface for the merchant reward catalog
type RewardRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Reward, error)
	// Upsert writes a catalog entry. A changed stock quantity moves the
	// remaining stock by the same amount.
	Upsert(ctx context.Context, reward *models.Reward) error
	// DecrementStock returns ErrGuardFailed when no stock remains or the
	// reward is inactive.
	DecrementStock(ctx context.Context, id primitive.ObjectID) error
}

// RedemptionRepository defines the interface for reward redemption operations
type RedemptionRepository interface {
	Create(ctx context.Context, redemption *models.RewardRedemption) error
	FindByCode(ctx context.Context, code string) (*models.RewardRedemption, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID, status models.RedemptionStatus) ([]*models.RewardRedemption, error)
	// FindByMerchant lists a merchant's redemptions newest first, optionally
	// restricted to those used at branchID.
	FindByMerchant(ctx context.Context, merchantID primitive.ObjectID, branchID *primitive.ObjectID, status models.RedemptionStatus) ([]*models.RewardRedemption, error)
	CountByUserAndReward(ctx context.Context, userID, rewardID primitive.ObjectID) (int64, error)
	UpdateStatus(ctx context.Context, redemption *models.RewardRedemption) error
	// ExpireOverdue marks active redemptions past their expiry as expired.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// CheckInRepository defines the interface for daily check-in records
type CheckInRepository interface {
	Create(ctx context.Context, checkIn *models.DailyCheckIn) error
	FindByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.DailyCheckIn, error)
}

// PointTransactionRepository defines the interface for point transaction operations
type PointTransactionRepository interface {
	Create(ctx context.Context, transaction *models.PointTransaction) error
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.PointTransaction, error)
}

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindByUser(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id primitive.ObjectID, at time.Time) error
}
