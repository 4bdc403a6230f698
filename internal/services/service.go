package services

import (
	"context"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repositories bundles the stores the services share.
type Repositories struct {
	Tx                repositories.Transactor
	Users             repositories.UserRepository
	Draws             repositories.DrawRepository
	Prizes            repositories.PrizeRepository
	History           repositories.SpinHistoryRepository
	Rewards           repositories.RewardRepository
	Redemptions       repositories.RedemptionRepository
	CheckIns          repositories.CheckInRepository
	PointTransactions repositories.PointTransactionRepository
	Notifications     repositories.NotificationRepository
}

// SpinService defines the customer-facing lucky draw operations
type SpinService interface {
	// Spin runs one spin as a single transaction
	Spin(ctx context.Context, userID, drawID primitive.ObjectID, spinType models.SpinType) (*SpinResult, error)

	// ListAvailableDraws lists a merchant's open draws with the caller's eligibility
	ListAvailableDraws(ctx context.Context, userID, merchantID primitive.ObjectID) ([]*DrawAvailability, error)

	// GetDraw returns an active draw with its prizes and the caller's eligibility
	GetDraw(ctx context.Context, userID, drawID primitive.ObjectID) (*DrawAvailability, error)

	// GetSpinHistory pages through the caller's spins
	GetSpinHistory(ctx context.Context, userID primitive.ObjectID, drawID *primitive.ObjectID, page, perPage int) (*models.SpinHistoryPage, error)

	// GetSpinDetail returns one of the caller's spins
	GetSpinDetail(ctx context.Context, userID, historyID primitive.ObjectID) (*models.SpinHistory, error)
}

// CheckInService defines the daily check-in operations
type CheckInService interface {
	CheckIn(ctx context.Context, userID primitive.ObjectID, merchantID *primitive.ObjectID) (*CheckInResult, error)
	Status(ctx context.Context, userID primitive.ObjectID) (*CheckInStatus, error)

	// GetDay7Draw returns the Day-7 draw a check-in would spin, if any
	GetDay7Draw(ctx context.Context, merchantID *primitive.ObjectID) (*models.DrawWithPrizes, error)
}

// DrawService defines the merchant administration of draws and prizes
type DrawService interface {
	ListDraws(ctx context.Context, merchantID primitive.ObjectID) ([]*models.Draw, error)
	GetDraw(ctx context.Context, merchantID, drawID primitive.ObjectID) (*models.DrawWithPrizes, error)
	CreateDraw(ctx context.Context, merchantID primitive.ObjectID, input DrawInput) (*models.Draw, error)
	UpdateDraw(ctx context.Context, merchantID, drawID primitive.ObjectID, input DrawInput) (*models.Draw, error)
	DeleteDraw(ctx context.Context, merchantID, drawID primitive.ObjectID) error
	AddPrize(ctx context.Context, merchantID, drawID primitive.ObjectID, input PrizeInput) (*models.Prize, error)
	UpdatePrize(ctx context.Context, merchantID, drawID, prizeID primitive.ObjectID, input PrizeInput) (*models.Prize, error)
	DeletePrize(ctx context.Context, merchantID, drawID, prizeID primitive.ObjectID) error
	GetStatistics(ctx context.Context, merchantID, drawID primitive.ObjectID) (*models.DrawStatistics, error)
}

// RedemptionService defines the reward redemption operations
type RedemptionService interface {
	// Redeem exchanges points for a catalog reward as a single transaction
	Redeem(ctx context.Context, userID, rewardID primitive.ObjectID) (*RedeemResult, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, status models.RedemptionStatus) ([]*models.RewardRedemption, error)
	// ListForMerchant lists the staff member's merchant redemptions. Staff of
	// other than the main branch only see codes used at their own branch.
	ListForMerchant(ctx context.Context, staff *models.Identity, filter RedemptionFilter) ([]*models.RewardRedemption, error)
	Validate(ctx context.Context, staff *models.Identity, code string) (*models.RewardRedemption, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

// NotificationService defines the in-app notification operations
type NotificationService interface {
	// Notify is best-effort: failures are logged, never returned
	Notify(ctx context.Context, userID primitive.ObjectID, event, title, message string, data map[string]interface{})
	List(ctx context.Context, userID primitive.ObjectID, page, perPage int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error
}

// UserService defines the points balance operations
type UserService interface {
	GetPoints(ctx context.Context, userID primitive.ObjectID) (*models.PointsSummary, error)
	GetPointHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.PointTransaction, error)
}

// pageBounds normalizes page/perPage and returns skip and limit.
func pageBounds(page, perPage int) (int, int, int64, int64) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage, int64((page - 1) * perPage), int64(perPage)
}
