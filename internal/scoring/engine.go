// Package scoring computes the eight-factor breakdown and weighted composite for an entrant.
package scoring

import (
	"github.com/yourusername/race-forecast/internal/models"
)

// PresetCustom names weights supplied directly rather than by preset.
const PresetCustom = "custom"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithPreset selects a named weight preset. Unknown names are ignored.
func WithPreset(name string) Option {
	return func(e *Engine) {
		if w, err := WeightsForPreset(name); err == nil {
			e.weights = w
			e.preset = name
		}
	}
}

// WithWeights sets explicit weights. Invalid sets are ignored.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.Validate() == nil {
			e.weights = w
			e.preset = PresetCustom
		}
	}
}

// Engine scores entrants. It holds no state beyond its weights and is safe for concurrent use.
type Engine struct {
	weights Weights
	preset  string
}

// NewEngine creates an engine using the standard preset unless an option overrides it.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights: StandardWeights(),
		preset:  PresetStandard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the engine's weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Preset returns the preset name, or PresetCustom.
func (e *Engine) Preset() string {
	return e.preset
}

// Score computes the breakdown for entrant racing in race against field.
// field is the full set of entrants, entrant included.
func (e *Engine) Score(entrant *models.Entrant, race models.RaceInfo, field []models.Entrant) models.ScoreBreakdown {
	b := models.ScoreBreakdown{
		RecentForm:     recentForm(entrant),
		WinPlaceRate:   winPlaceRate(entrant),
		DistanceFit:    distanceFit(entrant, race),
		CourseFit:      courseFit(entrant, race),
		PostPosition:   postPosition(entrant, race, len(field)),
		OddsImplied:    oddsImplied(entrant),
		Consistency:    consistency(entrant),
		WeightRelative: weightRelative(entrant, field),
	}

	for _, f := range models.Factors {
		b.Composite += b.Get(f) * e.weights.Get(f)
	}
	return b
}

// ScoreField scores every entrant of field, in field order.
func (e *Engine) ScoreField(race models.RaceInfo, field []models.Entrant) []models.ScoreBreakdown {
	out := make([]models.ScoreBreakdown, len(field))
	for i := range field {
		out[i] = e.Score(&field[i], race, field)
	}
	return out
}
