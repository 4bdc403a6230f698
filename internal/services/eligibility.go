package services

import (
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
)

// CheckDrawAvailable rejects inactive, out-of-window and exhausted draws.
func CheckDrawAvailable(draw *models.Draw, now time.Time) error {
	if !draw.IsAvailable(now) {
		return ErrDrawUnavailable
	}
	return nil
}

// CheckSpinType requires Day-7 draws to be spun by check-ins and every other
// draw to be spun with points.
func CheckSpinType(draw *models.Draw, spinType models.SpinType) error {
	if draw.IsDay7Draw && spinType != models.SpinTypeDay7Checkin {
		return ErrInvalidSpinType
	}
	if !draw.IsDay7Draw && spinType != models.SpinTypePointsRedemption {
		return ErrInvalidSpinType
	}
	return nil
}

// CheckDailyLimit rejects a spin once spinsToday reaches the per-user cap.
// A cap of zero means no cap.
func CheckDailyLimit(spinsToday, maxPerDay int) error {
	if maxPerDay > 0 && spinsToday >= maxPerDay {
		return &DailySpinLimitError{SpinsToday: spinsToday, MaxSpins: maxPerDay}
	}
	return nil
}

// CheckPoints rejects a spin the balance cannot pay for.
func CheckPoints(balance, cost int) error {
	if balance < cost {
		return &InsufficientPointsError{Required: cost, Current: balance}
	}
	return nil
}
