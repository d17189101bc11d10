package scoring

import (
	"errors"
	"fmt"
	"sort"

	"github.com/yourusername/race-forecast/internal/models"
)

// Named weight presets.
const (
	PresetStandard  = "standard"
	PresetFormHeavy = "form_heavy"
)

// ErrUnknownPreset is returned for a preset name with no registered weights.
var ErrUnknownPreset = errors.New("unknown weight preset")

// maxWeightSum keeps the composite within [0,100]; the slack absorbs float rounding.
const maxWeightSum = 1.0 + 1e-9

// Weights are the per-factor multipliers of the composite score.
type Weights struct {
	RecentForm     float64 `json:"recent_form" mapstructure:"recent_form"`
	WinPlaceRate   float64 `json:"win_place_rate" mapstructure:"win_place_rate"`
	DistanceFit    float64 `json:"distance_fit" mapstructure:"distance_fit"`
	CourseFit      float64 `json:"course_fit" mapstructure:"course_fit"`
	PostPosition   float64 `json:"post_position" mapstructure:"post_position"`
	OddsImplied    float64 `json:"odds_implied" mapstructure:"odds_implied"`
	Consistency    float64 `json:"consistency" mapstructure:"consistency"`
	WeightRelative float64 `json:"weight_relative" mapstructure:"weight_relative"`
}

// StandardWeights is the canonical preset.
func StandardWeights() Weights {
	return Weights{
		RecentForm:     0.35,
		WinPlaceRate:   0.15,
		DistanceFit:    0.12,
		CourseFit:      0.08,
		PostPosition:   0.08,
		OddsImplied:    0.10,
		Consistency:    0.07,
		WeightRelative: 0.05,
	}
}

// FormHeavyWeights leans harder on recent form at the expense of draw and weight.
func FormHeavyWeights() Weights {
	return Weights{
		RecentForm:     0.40,
		WinPlaceRate:   0.15,
		DistanceFit:    0.11,
		CourseFit:      0.08,
		PostPosition:   0.05,
		OddsImplied:    0.10,
		Consistency:    0.07,
		WeightRelative: 0.04,
	}
}

var presets = map[string]func() Weights{
	PresetStandard:  StandardWeights,
	PresetFormHeavy: FormHeavyWeights,
}

// PresetNames returns the registered preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsPreset reports whether name is a registered preset.
func IsPreset(name string) bool {
	_, ok := presets[name]
	return ok
}

// WeightsForPreset returns the weights registered under name.
func WeightsForPreset(name string) (Weights, error) {
	build, ok := presets[name]
	if !ok {
		return Weights{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return build(), nil
}

// Get returns the weight of f.
func (w Weights) Get(f models.Factor) float64 {
	switch f {
	case models.FactorRecentForm:
		return w.RecentForm
	case models.FactorWinPlaceRate:
		return w.WinPlaceRate
	case models.FactorDistanceFit:
		return w.DistanceFit
	case models.FactorCourseFit:
		return w.CourseFit
	case models.FactorPostPosition:
		return w.PostPosition
	case models.FactorOddsImplied:
		return w.OddsImplied
	case models.FactorConsistency:
		return w.Consistency
	case models.FactorWeightRelative:
		return w.WeightRelative
	default:
		return 0
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var sum float64
	for _, f := range models.Factors {
		sum += w.Get(f)
	}
	return sum
}

// Validate rejects negative weights and sets whose total exceeds 1.
func (w Weights) Validate() error {
	for _, f := range models.Factors {
		if v := w.Get(f); v < 0 {
			return fmt.Errorf("weight %s is negative: %.3f", f, v)
		}
	}
	sum := w.Sum()
	if sum <= 0 {
		return fmt.Errorf("weights sum to %.3f, expected a positive total", sum)
	}
	if sum > maxWeightSum {
		return fmt.Errorf("weights sum to %.3f, expected at most 1.000", sum)
	}
	return nil
}
