package models

import (
	"time"

	"github.com/google/uuid"
)

// Factor names one sub-score of the composite.
type Factor string

const (
	FactorRecentForm     Factor = "recent_form"
	FactorWinPlaceRate   Factor = "win_place_rate"
	FactorDistanceFit    Factor = "distance_fit"
	FactorCourseFit      Factor = "course_fit"
	FactorPostPosition   Factor = "post_position"
	FactorOddsImplied    Factor = "odds_implied"
	FactorConsistency    Factor = "consistency"
	FactorWeightRelative Factor = "weight_relative"
)

// Factors lists every sub-score in composite order.
var Factors = []Factor{
	FactorRecentForm,
	FactorWinPlaceRate,
	FactorDistanceFit,
	FactorCourseFit,
	FactorPostPosition,
	FactorOddsImplied,
	FactorConsistency,
	FactorWeightRelative,
}

// ScoreBreakdown holds the eight sub-scores, each in [0,100], and their weighted composite.
type ScoreBreakdown struct {
	RecentForm     float64 `json:"recent_form"`
	WinPlaceRate   float64 `json:"win_place_rate"`
	DistanceFit    float64 `json:"distance_fit"`
	CourseFit      float64 `json:"course_fit"`
	PostPosition   float64 `json:"post_position"`
	OddsImplied    float64 `json:"odds_implied"`
	Consistency    float64 `json:"consistency"`
	WeightRelative float64 `json:"weight_relative"`
	Composite      float64 `json:"composite"`
}

// Get returns the sub-score for f.
func (b ScoreBreakdown) Get(f Factor) float64 {
	switch f {
	case FactorRecentForm:
		return b.RecentForm
	case FactorWinPlaceRate:
		return b.WinPlaceRate
	case FactorDistanceFit:
		return b.DistanceFit
	case FactorCourseFit:
		return b.CourseFit
	case FactorPostPosition:
		return b.PostPosition
	case FactorOddsImplied:
		return b.OddsImplied
	case FactorConsistency:
		return b.Consistency
	case FactorWeightRelative:
		return b.WeightRelative
	default:
		return 0
	}
}

// AsMap returns the sub-scores keyed by factor name.
func (b ScoreBreakdown) AsMap() map[Factor]float64 {
	m := make(map[Factor]float64, len(Factors))
	for _, f := range Factors {
		m[f] = b.Get(f)
	}
	return m
}

// Forecast is the ranked outcome for one entrant.
type Forecast struct {
	Entrant         *Entrant       `json:"entrant"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	NormalizedScore float64        `json:"normalized_score"` // [0,1]
	WinProbability  float64        `json:"win_probability"`  // (0,1)
	Rank            int            `json:"rank"`
	ExpectedValue   float64        `json:"expected_value"` // 0 when odds unknown
}

// ForecastRun is one complete forecast of a race.
type ForecastRun struct {
	ID               uuid.UUID     `json:"id"`
	Race             RaceInfo      `json:"race"`
	Preset           string        `json:"preset"`
	Forecasts        []Forecast    `json:"forecasts"`
	ValuePicks       []Forecast    `json:"value_picks,omitempty"`
	HistoriesFetched int           `json:"histories_fetched"`
	HistoriesMissing int           `json:"histories_missing"`
	Duration         time.Duration `json:"duration"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Favourite returns the top-ranked forecast, or nil for an empty field.
func (r *ForecastRun) Favourite() *Forecast {
	if len(r.Forecasts) == 0 {
		return nil
	}
	return &r.Forecasts[0]
}
