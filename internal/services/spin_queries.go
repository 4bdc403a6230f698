package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawAvailability is a draw as seen by one customer.
type DrawAvailability struct {
	*models.Draw
	Prizes              []*models.Prize `json:"prizes,omitempty"`
	UserCanSpin         bool            `json:"userCanSpin"`
	UserSpinsToday      int             `json:"userSpinsToday"`
	UserHasEnoughPoints bool            `json:"userHasEnoughPoints"`
	Reason              string          `json:"reason,omitempty"`
}

// ListAvailableDraws lists a merchant's draws that are open right now
func (s *SpinServiceImpl) ListAvailableDraws(ctx context.Context, userID, merchantID primitive.ObjectID) ([]*DrawAvailability, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	draws, err := s.repos.Draws.FindActiveByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}

	now := s.now()
	available := []*DrawAvailability{}
	for _, draw := range draws {
		if !draw.IsAvailable(now) {
			continue
		}
		view, err := s.availability(ctx, user, draw)
		if err != nil {
			return nil, err
		}
		available = append(available, view)
	}
	return available, nil
}

// GetDraw returns an active draw with prizes and the caller's eligibility
func (s *SpinServiceImpl) GetDraw(ctx context.Context, userID, drawID primitive.ObjectID) (*DrawAvailability, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	draw, err := s.repos.Draws.FindByID(ctx, drawID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && !draw.IsActive) {
		return nil, &NotFoundError{Resource: "lucky draw"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draw: %w", err)
	}

	view, err := s.availability(ctx, user, draw)
	if err != nil {
		return nil, err
	}
	view.Prizes, err = s.repos.Prizes.FindByDraw(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prizes: %w", err)
	}
	return view, nil
}

func (s *SpinServiceImpl) availability(ctx context.Context, user *models.User, draw *models.Draw) (*DrawAvailability, error) {
	now := s.now()
	spinsToday, err := s.repos.History.CountForUserSince(ctx, user.ID, draw.ID, models.UTCDay(now))
	if err != nil {
		return nil, fmt.Errorf("failed to count today's spins: %w", err)
	}
	view := &DrawAvailability{
		Draw:                draw,
		UserSpinsToday:      int(spinsToday),
		UserHasEnoughPoints: draw.IsDay7Draw || user.PointsBalance >= draw.PointsCostPerSpin,
	}

	switch {
	case draw.IsDay7Draw:
		view.Reason = "spun by the day 7 check-in"
	case CheckDrawAvailable(draw, now) != nil:
		view.Reason = ErrDrawUnavailable.Error()
	case CheckDailyLimit(view.UserSpinsToday, draw.MaxSpinsPerUserDay) != nil:
		view.Reason = "daily spin limit reached"
	case !view.UserHasEnoughPoints:
		view.Reason = "insufficient points"
	default:
		view.UserCanSpin = true
	}
	return view, nil
}

// GetSpinHistory pages through a user's spins, newest first
func (s *SpinServiceImpl) GetSpinHistory(ctx context.Context, userID primitive.ObjectID, drawID *primitive.ObjectID, page, perPage int) (*models.SpinHistoryPage, error) {
	page, perPage, skip, limit := pageBounds(page, perPage)
	history, total, err := s.repos.History.FindByUser(ctx, userID, drawID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load spin history: %w", err)
	}
	rows := make([]models.SpinHistory, 0, len(history))
	for _, h := range history {
		rows = append(rows, *h)
	}
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &models.SpinHistoryPage{
		History: rows,
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pages,
	}, nil
}

// GetSpinDetail returns one of the user's spins
func (s *SpinServiceImpl) GetSpinDetail(ctx context.Context, userID, historyID primitive.ObjectID) (*models.SpinHistory, error) {
	history, err := s.repos.History.FindByID(ctx, historyID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && history.UserID != userID) {
		return nil, &NotFoundError{Resource: "spin"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load spin: %w", err)
	}
	return history, nil
}
