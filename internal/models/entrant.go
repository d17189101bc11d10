package models

// MaxHistoryRuns bounds the history kept per entrant.
const MaxHistoryRuns = 20

// Sex is the sex marker printed next to an entrant's age.
type Sex string

const (
	SexColt    Sex = "colt"
	SexFilly   Sex = "filly"
	SexGelding Sex = "gelding"
	SexUnknown Sex = Unknown
)

var sexLabels = map[string]Sex{
	"牡": SexColt,
	"牝": SexFilly,
	"セ": SexGelding,
}

// ParseSex converts a printed sex marker.
func ParseSex(label string) Sex {
	if s, ok := sexLabels[label]; ok {
		return s
	}
	return SexUnknown
}

// Entrant is one competitor in a race.
type Entrant struct {
	Number         int             `json:"number" validate:"gte=1"`
	Gate           int             `json:"gate"`
	Name           string          `json:"name" validate:"required"`
	Sex            Sex             `json:"sex"`
	Age            int             `json:"age"`
	Jockey         string          `json:"jockey"`
	Trainer        string          `json:"trainer"`
	WeightCarried  float64         `json:"weight_carried"` // kg, one decimal
	BodyWeight     int             `json:"body_weight"`    // kg, 0 when not announced
	BodyWeightDiff string          `json:"body_weight_diff"`
	Odds           float64         `json:"odds"` // 0 when not yet posted
	Popularity     int             `json:"popularity"`
	HorseID        string          `json:"horse_id"`
	Results        []HistoricalRun `json:"results"`

	historyAttached bool
}

// NewEntrant returns an Entrant with unknown defaults.
func NewEntrant() Entrant {
	return Entrant{Sex: SexUnknown}
}

// HasOdds reports whether win odds have been posted.
func (e *Entrant) HasOdds() bool {
	return e.Odds > 0
}

// HasHistory reports whether any past runs are recorded.
func (e *Entrant) HasHistory() bool {
	return len(e.Results) > 0
}

// HistoryAttached reports whether AttachHistory has been called.
func (e *Entrant) HistoryAttached() bool {
	return e.historyAttached
}

// AttachHistory sets the entrant's past runs, most recent first.
// It may be called once per entrant; runs beyond MaxHistoryRuns are discarded.
func (e *Entrant) AttachHistory(runs []HistoricalRun) error {
	if e.historyAttached {
		return ErrHistoryAlreadyAttached
	}
	if len(runs) > MaxHistoryRuns {
		runs = runs[:MaxHistoryRuns]
	}
	e.Results = append([]HistoricalRun(nil), runs...)
	e.historyAttached = true
	return nil
}

// RecentFinishes returns up to n finishing positions, most recent first.
func (e *Entrant) RecentFinishes(n int) []int {
	if n > len(e.Results) {
		n = len(e.Results)
	}
	finishes := make([]int, n)
	for i := 0; i < n; i++ {
		finishes[i] = e.Results[i].Finish
	}
	return finishes
}
