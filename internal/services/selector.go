package services

import (
	"github.com/ArowuTest/loyalty-backend/internal/models"
)

// SelectPrize picks one prize with probability proportional to its weight.
// Only prizes with positive weight and remaining stock take part; they are
// walked in display order, then by id, and the first whose cumulative weight
// exceeds r = u*W wins.
func SelectPrize(prizes []*models.Prize, rnd RandomSource) (*models.Prize, error) {
	eligible := make([]*models.Prize, 0, len(prizes))
	total := 0
	for _, p := range prizes {
		if p.IsEligible() {
			eligible = append(eligible, p)
			total += p.ProbabilityWeight
		}
	}
	if len(eligible) == 0 || total <= 0 {
		return nil, ErrNoPrizesAvailable
	}
	models.SortPrizes(eligible)

	r := rnd.Float64() * float64(total)
	cumulative := 0
	for _, p := range eligible {
		cumulative += p.ProbabilityWeight
		if float64(cumulative) > r {
			return p, nil
		}
	}
	// Unreachable for u < 1; guards against rounding at the top of the range.
	return eligible[len(eligible)-1], nil
}
