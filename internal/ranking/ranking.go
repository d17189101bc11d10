// Package ranking orders a scored field and converts composites into win probabilities.
package ranking

import (
	"math"
	"sort"

	"github.com/yourusername/race-forecast/internal/models"
)

// Temperature of the softmax over normalized scores.
const Temperature = 0.3

// degenerateNormalized is assigned to every entrant when all composites are equal.
const degenerateNormalized = 0.5

// Scored pairs an entrant with its breakdown.
type Scored struct {
	Entrant   *models.Entrant
	Breakdown models.ScoreBreakdown
}

// Rank sorts the field by composite, descending and stable, and derives normalized score,
// win probability, rank and expected value. An empty field yields an empty result.
func Rank(scored []Scored) []models.Forecast {
	forecasts := make([]models.Forecast, len(scored))
	if len(scored) == 0 {
		return forecasts
	}

	ordered := make([]Scored, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Breakdown.Composite > ordered[j].Breakdown.Composite
	})

	lo, hi := ordered[len(ordered)-1].Breakdown.Composite, ordered[0].Breakdown.Composite
	degenerate := hi == lo

	// Subtracting the max exponent keeps exp() bounded without changing the ratios.
	maxExp := 1.0 / Temperature
	weights := make([]float64, len(ordered))
	var total float64
	for i, s := range ordered {
		norm := degenerateNormalized
		if !degenerate {
			norm = (s.Breakdown.Composite - lo) / (hi - lo)
		}
		forecasts[i] = models.Forecast{
			Entrant:         s.Entrant,
			Breakdown:       s.Breakdown,
			NormalizedScore: norm,
			Rank:            i + 1,
		}
		weights[i] = math.Exp(norm/Temperature - maxExp)
		total += weights[i]
	}

	uniform := 1 / float64(len(ordered))
	for i := range forecasts {
		if degenerate {
			forecasts[i].WinProbability = uniform
		} else {
			forecasts[i].WinProbability = weights[i] / total
		}
		forecasts[i].ExpectedValue = expectedValue(forecasts[i])
	}

	return forecasts
}

func expectedValue(f models.Forecast) float64 {
	if f.Entrant == nil || !f.Entrant.HasOdds() {
		return 0
	}
	return f.WinProbability * f.Entrant.Odds
}

// TopByExpectedValue returns up to n forecasts with a positive expected value,
// highest first. Ties keep rank order.
func TopByExpectedValue(forecasts []models.Forecast, n int) []models.Forecast {
	var picks []models.Forecast
	for _, f := range forecasts {
		if f.ExpectedValue > 0 {
			picks = append(picks, f)
		}
	}
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].ExpectedValue > picks[j].ExpectedValue
	})
	if n >= 0 && len(picks) > n {
		picks = picks[:n]
	}
	return picks
}
