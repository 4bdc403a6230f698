package services

import (
	"errors"
	"testing"
	"time"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCheckDrawAvailable(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		draw models.Draw
		ok   bool
	}{
		{"active", models.Draw{IsActive: true}, true},
		{"inactive", models.Draw{IsActive: false}, false},
		{"not started", models.Draw{IsActive: true, StartDate: &future}, false},
		{"ended", models.Draw{IsActive: true, EndDate: &past}, false},
		{"in window", models.Draw{IsActive: true, StartDate: &past, EndDate: &future}, true},
		{"spins exhausted", models.Draw{IsActive: true, TotalAvailableSpins: intPtr(5), RemainingSpins: intPtr(0)}, false},
		{"spins left", models.Draw{IsActive: true, TotalAvailableSpins: intPtr(5), RemainingSpins: intPtr(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDrawAvailable(&tt.draw, now)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrDrawUnavailable)
			}
		})
	}
}

func TestCheckSpinType(t *testing.T) {
	day7 := &models.Draw{IsDay7Draw: true}
	regular := &models.Draw{}

	assert.NoError(t, CheckSpinType(day7, models.SpinTypeDay7Checkin))
	assert.ErrorIs(t, CheckSpinType(day7, models.SpinTypePointsRedemption), ErrInvalidSpinType)
	assert.NoError(t, CheckSpinType(regular, models.SpinTypePointsRedemption))
	assert.ErrorIs(t, CheckSpinType(regular, models.SpinTypeDay7Checkin), ErrInvalidSpinType)
}

func TestCheckDailyLimit(t *testing.T) {
	assert.NoError(t, CheckDailyLimit(0, 1))
	assert.NoError(t, CheckDailyLimit(100, 0))

	err := CheckDailyLimit(2, 2)
	var limitErr *DailySpinLimitError
	assert.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 2, limitErr.SpinsToday)
	assert.Equal(t, 2, limitErr.MaxSpins)
}

func TestCheckPoints(t *testing.T) {
	assert.NoError(t, CheckPoints(10, 10))
	assert.NoError(t, CheckPoints(0, 0))

	var pointsErr *InsufficientPointsError
	assert.True(t, errors.As(CheckPoints(5, 10), &pointsErr))
	assert.Equal(t, 10, pointsErr.Required)
	assert.Equal(t, 5, pointsErr.Current)
}
