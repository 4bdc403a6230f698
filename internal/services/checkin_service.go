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

// Day-7 draw lookup scopes.
const (
	Day7ScopeMerchant = "merchant"
	Day7ScopeGlobal   = "global"
)

// checkInSchedule holds the points for cycle days 1 through 6.
var checkInSchedule = [6]int{1, 1, 2, 2, 4, 7}

// fallbackRoll maps a uniform value onto the Day-7 lucky roll tiers.
func fallbackRoll(u float64) int {
	switch {
	case u < 0.50:
		return 7
	case u < 0.80:
		return 9
	case u < 0.95:
		return 15
	default:
		return 20
	}
}

var errDay7SpinRejected = errors.New("day 7 draw rejected the spin")

// Compile-time check to ensure CheckInServiceImpl implements CheckInService
var _ CheckInService = (*CheckInServiceImpl)(nil)

// CheckInResult is the outcome of a daily check-in.
type CheckInResult struct {
	PointsAdded    int         `json:"pointsAdded"`
	Streak         int         `json:"streak"`
	CycleDay       int         `json:"cycleDay"`
	IsDay7         bool        `json:"isDay7"`
	Prize          string      `json:"prize"`
	PrizeDetails   *SpinResult `json:"prizeDetails,omitempty"`
	LuckyRoll      bool        `json:"luckyRoll"`
	PointsBalance  int         `json:"pointsBalance"`
	PointsLifetime int         `json:"pointsLifetime"`
	userID         primitive.ObjectID
}

// CheckInStatus is the check-in state shown before checking in.
type CheckInStatus struct {
	CanCheckIn     bool       `json:"canCheckIn"`
	TotalStreak    int        `json:"totalStreak"`
	CycleDay       int        `json:"cycleDay"`
	NextCycleDay   int        `json:"nextCycleDay"`
	NextReward     string     `json:"nextReward"`
	LastCheckIn    *time.Time `json:"lastCheckIn"`
	PointsBalance  int        `json:"pointsBalance"`
	PointsLifetime int        `json:"pointsLifetime"`
	Rank           string     `json:"rank"`
}

// CheckInServiceImpl runs the daily check-in streak and the Day-7 reward
type CheckInServiceImpl struct {
	repos     Repositories
	spins     *SpinServiceImpl
	notifier  NotificationService
	rnd       RandomSource
	metrics   *Metrics
	day7Scope string
	now       func() time.Time
}

// NewCheckInService creates a new CheckInServiceImpl
func NewCheckInService(
	repos Repositories,
	spins *SpinServiceImpl,
	notifier NotificationService,
	rnd RandomSource,
	metrics *Metrics,
	day7Scope string,
) *CheckInServiceImpl {
	return &CheckInServiceImpl{
		repos:     repos,
		spins:     spins,
		notifier:  notifier,
		rnd:       rnd,
		metrics:   metrics,
		day7Scope: day7Scope,
		now:       time.Now,
	}
}

// CheckIn records today's check-in. On cycle day 7 the active Day-7 draw is
// spun for free; when there is none, or it rejects the spin, the check-in is
// redone with the points lucky roll so day 7 always pays out.
func (s *CheckInServiceImpl) CheckIn(ctx context.Context, userID primitive.ObjectID, merchantID *primitive.ObjectID) (*CheckInResult, error) {
	now := s.now()

	attempt := func(useDraw bool) (*CheckInResult, error) {
		var result *CheckInResult
		err := s.repos.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
			var err error
			result, err = s.checkInTx(txCtx, userID, merchantID, now, useDraw)
			return err
		})
		return result, err
	}

	result, err := attempt(true)
	if errors.Is(err, errDay7SpinRejected) {
		result, err = attempt(false)
	}
	if err != nil {
		if !errors.Is(err, ErrAlreadyCheckedIn) {
			slog.Error("Check-in failed", "error", err, "userId", userID.Hex())
		}
		return nil, err
	}

	s.afterCheckIn(ctx, result)
	return result, nil
}

func (s *CheckInServiceImpl) checkInTx(ctx context.Context, userID primitive.ObjectID, merchantID *primitive.ObjectID, now time.Time, useDraw bool) (*CheckInResult, error) {
	user, err := s.repos.Users.Lock(ctx, userID, now)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	today := models.UTCDay(now)
	streak := 1
	if user.LastCheckInDate != nil {
		last := models.UTCDay(*user.LastCheckInDate)
		if last.Equal(today) {
			return nil, ErrAlreadyCheckedIn
		}
		if last.Equal(today.AddDate(0, 0, -1)) {
			streak = user.TotalStreak + 1
		}
	}
	if err := s.repos.Users.UpdateCheckIn(ctx, user.ID, today, streak); err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}

	cycleDay := models.CycleDay(streak)
	result := &CheckInResult{
		Streak:   streak,
		CycleDay: cycleDay,
		IsDay7:   cycleDay == models.CheckInCycleLength,
		userID:   user.ID,
	}
	checkIn := &models.DailyCheckIn{
		UserID:      user.ID,
		MerchantID:  merchantID,
		CheckInDate: today,
		CycleDay:    cycleDay,
		Streak:      streak,
	}

	if !result.IsDay7 {
		points := checkInSchedule[cycleDay-1]
		if err := s.credit(ctx, user.ID, points, models.PointsReasonDailyCheckIn); err != nil {
			return nil, err
		}
		result.PointsAdded = points
		result.Prize = fmt.Sprintf("%d points", points)
	} else {
		var spin *SpinResult
		if useDraw {
			spin, err = s.day7Spin(ctx, user, merchantID, now)
			if err != nil {
				return nil, err
			}
		}
		if spin != nil {
			result.PrizeDetails = spin
			result.Prize = spin.Prize.Name
			result.PointsAdded = spin.Prize.Value.PointsAmount
			checkIn.SpinHistoryID = &spin.HistoryID
		} else {
			points := fallbackRoll(s.rnd.Float64())
			if err := s.credit(ctx, user.ID, points, models.PointsReasonDay7Fallback); err != nil {
				return nil, err
			}
			result.LuckyRoll = true
			result.PointsAdded = points
			result.Prize = fmt.Sprintf("Lucky roll: %d points", points)
		}
	}

	checkIn.PointsEarned = result.PointsAdded
	if err := s.repos.CheckIns.Create(ctx, checkIn); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}

	updated, err := s.repos.Users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	result.PointsBalance = updated.PointsBalance
	result.PointsLifetime = updated.PointsLifetime
	return result, nil
}

// day7Draw finds the Day-7 draw a check-in at merchantID would spin. In
// merchant scope a check-in without a merchant has none.
func (s *CheckInServiceImpl) day7Draw(ctx context.Context, merchantID *primitive.ObjectID) (*models.Draw, error) {
	scope := merchantID
	if s.day7Scope == Day7ScopeGlobal {
		scope = nil
	} else if merchantID == nil {
		return nil, repositories.ErrNotFound
	}
	return s.repos.Draws.FindActiveDay7(ctx, scope)
}

// GetDay7Draw returns the Day-7 draw with its prizes, resolved the way CheckIn
// resolves it
func (s *CheckInServiceImpl) GetDay7Draw(ctx context.Context, merchantID *primitive.ObjectID) (*models.DrawWithPrizes, error) {
	draw, err := s.day7Draw(ctx, merchantID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Resource: "day 7 draw"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load day 7 draw: %w", err)
	}
	prizes, err := s.repos.Prizes.FindByDraw(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prizes: %w", err)
	}
	return &models.DrawWithPrizes{Draw: draw, Prizes: prizes}, nil
}

// day7Spin spins the active Day-7 draw, returning nil when there is none.
func (s *CheckInServiceImpl) day7Spin(ctx context.Context, user *models.User, merchantID *primitive.ObjectID, now time.Time) (*SpinResult, error) {
	draw, err := s.day7Draw(ctx, merchantID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load day 7 draw: %w", err)
	}

	spin, err := s.spins.spinInTx(ctx, user, draw, models.SpinTypeDay7Checkin, now)
	if err != nil {
		if isSpinRejection(err) {
			slog.Info("Day 7 draw rejected the spin, using lucky roll", "userId", user.ID.Hex(), "drawId", draw.ID.Hex(), "reason", err)
			return nil, errDay7SpinRejected
		}
		return nil, err
	}
	return spin, nil
}

func (s *CheckInServiceImpl) credit(ctx context.Context, userID primitive.ObjectID, points int, reason string) error {
	if err := s.repos.Users.CreditPoints(ctx, userID, points); err != nil {
		return fmt.Errorf("failed to credit check-in points: %w", err)
	}
	if err := s.repos.PointTransactions.Create(ctx, &models.PointTransaction{
		UserID: userID,
		Delta:  points,
		Reason: reason,
	}); err != nil {
		return fmt.Errorf("failed to record check-in points: %w", err)
	}
	return nil
}

func (s *CheckInServiceImpl) afterCheckIn(ctx context.Context, result *CheckInResult) {
	outcome := "points"
	switch {
	case result.PrizeDetails != nil:
		outcome = "draw"
		s.spins.afterSpin(ctx, result.PrizeDetails)
	case result.LuckyRoll:
		outcome = "lucky_roll"
	}
	s.metrics.checkedIn(result.CycleDay, outcome)
	slog.Info("Daily check-in recorded", "userId", result.userID.Hex(), "streak", result.Streak, "cycleDay", result.CycleDay, "outcome", outcome)

	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, result.userID, models.NotificationDailyCheckIn,
		"Daily check-in",
		fmt.Sprintf("Day %d of your streak: you received %s.", result.CycleDay, result.Prize),
		map[string]interface{}{
			"streak":      result.Streak,
			"cycleDay":    result.CycleDay,
			"pointsAdded": result.PointsAdded,
		})
}

// Status reports whether the user can check in today and what comes next
func (s *CheckInServiceImpl) Status(ctx context.Context, userID primitive.ObjectID) (*CheckInStatus, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	today := models.UTCDay(s.now())
	status := &CheckInStatus{
		CanCheckIn:     true,
		LastCheckIn:    user.LastCheckInDate,
		PointsBalance:  user.PointsBalance,
		PointsLifetime: user.PointsLifetime,
		Rank:           user.Rank(),
	}
	if user.LastCheckInDate != nil {
		last := models.UTCDay(*user.LastCheckInDate)
		switch {
		case last.Equal(today):
			status.CanCheckIn = false
			status.TotalStreak = user.TotalStreak
		case last.Equal(today.AddDate(0, 0, -1)):
			status.TotalStreak = user.TotalStreak
		}
	}
	if status.TotalStreak > 0 {
		status.CycleDay = models.CycleDay(status.TotalStreak)
	}
	status.NextCycleDay = models.CycleDay(status.TotalStreak + 1)
	if status.NextCycleDay == models.CheckInCycleLength {
		status.NextReward = "Day 7 lucky draw"
	} else {
		status.NextReward = fmt.Sprintf("%d points", checkInSchedule[status.NextCycleDay-1])
	}
	return status, nil
}
