package models

import (
	"strings"
	"time"
)

// Unknown is the sentinel stored in free-text fields that could not be extracted.
const Unknown = "unknown"

// Venue is a racecourse name as printed on entry pages.
type Venue string

// VenueUnknown marks a race whose course could not be matched.
const VenueUnknown Venue = Unknown

// National circuit courses.
const (
	VenueTokyo     Venue = "東京"
	VenueNakayama  Venue = "中山"
	VenueHanshin   Venue = "阪神"
	VenueKyoto     Venue = "京都"
	VenueChukyo    Venue = "中京"
	VenueNiigata   Venue = "新潟"
	VenueFukushima Venue = "福島"
	VenueKokura    Venue = "小倉"
	VenueSapporo   Venue = "札幌"
	VenueHakodate  Venue = "函館"
)

// Regional circuit courses.
const (
	VenueOi        Venue = "大井"
	VenueFunabashi Venue = "船橋"
	VenueKawasaki  Venue = "川崎"
	VenueUrawa     Venue = "浦和"
	VenueMonbetsu  Venue = "門別"
	VenueSonoda    Venue = "園田"
	VenueHimeji    Venue = "姫路"
	VenueKochi     Venue = "高知"
	VenueSaga      Venue = "佐賀"
	VenueNagoya    Venue = "名古屋"
	VenueKasamatsu Venue = "笠松"
	VenueKanazawa  Venue = "金沢"
	VenueMorioka   Venue = "盛岡"
	VenueMizusawa  Venue = "水沢"
)

// KnownVenues lists every course in match order: national circuit first, then regional.
var KnownVenues = []Venue{
	VenueTokyo, VenueNakayama, VenueHanshin, VenueKyoto, VenueChukyo,
	VenueNiigata, VenueFukushima, VenueKokura, VenueSapporo, VenueHakodate,
	VenueOi, VenueFunabashi, VenueKawasaki, VenueUrawa, VenueMonbetsu,
	VenueSonoda, VenueHimeji, VenueKochi, VenueSaga, VenueNagoya,
	VenueKasamatsu, VenueKanazawa, VenueMorioka, VenueMizusawa,
}

// MatchVenue returns the first venue in venues whose name occurs in text.
// A nil list searches KnownVenues.
func MatchVenue(text string, venues []Venue) Venue {
	if venues == nil {
		venues = KnownVenues
	}
	for _, v := range venues {
		if strings.Contains(text, string(v)) {
			return v
		}
	}
	return VenueUnknown
}

// IsKnown reports whether the venue was resolved.
func (v Venue) IsKnown() bool {
	return v != "" && v != VenueUnknown
}

// Surface is the running surface of a race.
type Surface string

const (
	SurfaceTurf    Surface = "turf"
	SurfaceDirt    Surface = "dirt"
	SurfaceUnknown Surface = Unknown
)

// TrackCondition is the going reported for the surface.
type TrackCondition string

const (
	ConditionGood          TrackCondition = "good"
	ConditionSlightlyHeavy TrackCondition = "slightly_heavy"
	ConditionHeavy         TrackCondition = "heavy"
	ConditionBad           TrackCondition = "bad"
	ConditionUnknown       TrackCondition = Unknown
)

// conditionLabels maps the printed going labels to conditions.
var conditionLabels = map[string]TrackCondition{
	"良":  ConditionGood,
	"稍重": ConditionSlightlyHeavy,
	"重":  ConditionHeavy,
	"不良": ConditionBad,
}

// ParseTrackCondition converts a printed going label. Unrecognised labels map to ConditionUnknown.
func ParseTrackCondition(label string) TrackCondition {
	if c, ok := conditionLabels[strings.TrimSpace(label)]; ok {
		return c
	}
	return ConditionUnknown
}

// RaceInfo describes one race as printed on its entry page.
// Fields that could not be extracted hold their Unknown sentinel or zero value.
type RaceInfo struct {
	ID        string         `json:"id" validate:"required"`
	Name      string         `json:"name"`
	Number    int            `json:"number"`
	Venue     Venue          `json:"venue"`
	Distance  int            `json:"distance"` // meters, 0 when unknown
	Surface   Surface        `json:"surface"`
	Condition TrackCondition `json:"condition"`
	Weather   string         `json:"weather"`
	Date      time.Time      `json:"date"`       // zero when unknown
	StartTime string         `json:"start_time"` // "HH:MM", empty when unknown
}

// NewRaceInfo returns a RaceInfo with every field at its unknown default.
func NewRaceInfo(id string) RaceInfo {
	return RaceInfo{
		ID:        id,
		Venue:     VenueUnknown,
		Surface:   SurfaceUnknown,
		Condition: ConditionUnknown,
		Weather:   Unknown,
	}
}

// HasDistance reports whether the distance was extracted.
func (r RaceInfo) HasDistance() bool {
	return r.Distance > 0
}

// IsSprint reports whether the race is run at 1400m or shorter.
func (r RaceInfo) IsSprint() bool {
	return r.Distance <= 1400
}

// ScheduledAt combines Date and StartTime in the given location.
// It returns the zero time when either part is unknown.
func (r RaceInfo) ScheduledAt(loc *time.Location) time.Time {
	if r.Date.IsZero() || r.StartTime == "" {
		return time.Time{}
	}
	clock, err := time.Parse("15:04", r.StartTime)
	if err != nil {
		return time.Time{}
	}
	return time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}
