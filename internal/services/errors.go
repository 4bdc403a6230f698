package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the caller is not authenticated.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden is returned when the caller may not act on a resource.
	ErrForbidden = errors.New("access denied")
	// ErrDrawUnavailable is returned for inactive, out-of-window or exhausted draws.
	ErrDrawUnavailable = errors.New("lucky draw is not available")
	// ErrInvalidSpinType is returned when the spin type does not match the draw kind.
	ErrInvalidSpinType = errors.New("invalid spin type for this draw")
	// ErrNoPrizesAvailable is returned when no prize has both weight and stock.
	ErrNoPrizesAvailable = errors.New("no prizes available")
	// ErrAlreadyCheckedIn is returned for a second check-in on the same UTC day.
	ErrAlreadyCheckedIn = errors.New("already checked in today")
)

// ValidationError reports bad input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// DailySpinLimitError is returned when the user used up today's spins on a draw.
type DailySpinLimitError struct {
	SpinsToday int
	MaxSpins   int
}

func (e *DailySpinLimitError) Error() string {
	return fmt.Sprintf("daily spin limit reached (%d/%d)", e.SpinsToday, e.MaxSpins)
}

// InsufficientPointsError is returned when the balance does not cover the spin cost.
type InsufficientPointsError struct {
	Required int
	Current  int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: need %d, have %d", e.Required, e.Current)
}

// RankRequiredError is returned when a reward needs a higher member tier.
type RankRequiredError struct {
	Required string
}

func (e *RankRequiredError) Error() string {
	return fmt.Sprintf("you need %s rank or higher to redeem this reward", e.Required)
}

// Counters protected by guarded decrements.
const (
	ResourceDrawSpins  = "draw_spins"
	ResourcePrizeStock = "prize_stock"
)

// ConcurrencyConflictError is returned when a guarded decrement lost a race.
type ConcurrencyConflictError struct {
	Resource string
}

func (e *ConcurrencyConflictError) Error() string {
	return "concurrent update on " + e.Resource
}

// isSpinRejection reports whether err is a business rejection of a spin rather
// than an infrastructure failure.
func isSpinRejection(err error) bool {
	var (
		limitErr    *DailySpinLimitError
		pointsErr   *InsufficientPointsError
		conflictErr *ConcurrencyConflictError
	)
	return errors.Is(err, ErrDrawUnavailable) ||
		errors.Is(err, ErrInvalidSpinType) ||
		errors.Is(err, ErrNoPrizesAvailable) ||
		errors.As(err, &limitErr) ||
		errors.As(err, &pointsErr) ||
		errors.As(err, &conflictErr)
}

// isClientError reports whether err rejects the request rather than reporting
// a failure.
func isClientError(err error) bool {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		rank       *RankRequiredError
	)
	return errors.As(err, &validation) ||
		errors.As(err, &notFound) ||
		errors.As(err, &rank) ||
		errors.Is(err, ErrForbidden) ||
		isSpinRejection(err)
}
