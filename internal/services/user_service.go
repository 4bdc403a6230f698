package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure UserServiceImpl implements UserService
var _ UserService = (*UserServiceImpl)(nil)

// UserServiceImpl handles user-related business logic
type UserServiceImpl struct {
	userRepo             repositories.UserRepository
	pointTransactionRepo repositories.PointTransactionRepository
}

// NewUserService creates a new UserServiceImpl
func NewUserService(userRepo repositories.UserRepository, pointTransactionRepo repositories.PointTransactionRepository) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo:             userRepo,
		pointTransactionRepo: pointTransactionRepo,
	}
}

// GetPoints returns the user's balance, lifetime points and rank
func (s *UserServiceImpl) GetPoints(ctx context.Context, userID primitive.ObjectID) (*models.PointsSummary, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &models.PointsSummary{
		UserID:         user.ID,
		PointsBalance:  user.PointsBalance,
		PointsLifetime: user.PointsLifetime,
		Rank:           user.Rank(),
	}, nil
}

// GetPointHistory returns the user's point transactions, newest first
func (s *UserServiceImpl) GetPointHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.PointTransaction, error) {
	transactions, err := s.pointTransactionRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load point history: %w", err)
	}
	return transactions, nil
}
