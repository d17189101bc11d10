package extract

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/yourusername/race-forecast/internal/metrics"
	"github.com/yourusername/race-forecast/internal/models"
)

var (
	distancePattern   = regexp.MustCompile(`(\d{3,4})m`)
	weatherPattern    = regexp.MustCompile(`天候\s*:\s*([^\s/]+)`)
	goingPattern      = regexp.MustCompile(`馬場\s*:\s*(良|稍重|重|不良)`)
	bareGoingPattern  = regexp.MustCompile(`(良|稍重|重|不良)`)
	startTimePattern  = regexp.MustCompile(`(\d{1,2}:\d{2})\s*発走`)
	raceNumPattern    = regexp.MustCompile(`(\d{1,2})\s*R`)
	fullDatePattern   = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	monthDayPattern   = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)
	horseIDPattern    = regexp.MustCompile(`horse/([0-9A-Za-z]+)`)
	sexPattern        = regexp.MustCompile(`(牡|牝|セ)`)
	bodyWeightPattern = regexp.MustCompile(`(\d{3})\s*(?:\(([+-]?\d+)\))?`)
)

// Surface markers. Dirt is tested first: dirt pages also carry decorative turf glyphs.
const (
	dirtMarker = "ダ"
	turfMarker = "芝"
)

// EntryOption configures an EntryExtractor.
type EntryOption func(*EntryExtractor)

// WithEntryLogger records dropped rows at debug level.
func WithEntryLogger(entry *logrus.Entry) EntryOption {
	return func(x *EntryExtractor) {
		if entry != nil {
			x.logger = entry
		}
	}
}

// WithVenues replaces the ordered venue list used to resolve the course.
func WithVenues(venues []models.Venue) EntryOption {
	return func(x *EntryExtractor) {
		if len(venues) > 0 {
			x.venues = append([]models.Venue(nil), venues...)
		}
	}
}

// EntryExtractor reads a race-entry page into a RaceInfo and its entrants.
type EntryExtractor struct {
	logger   *logrus.Entry
	validate *validator.Validate
	venues   []models.Venue

	weightCarried Chain
	odds          Chain
	popularity    Chain
	gate          Chain
	number        Chain
}

// NewEntryExtractor creates an extractor for the standard entry layout.
func NewEntryExtractor(opts ...EntryOption) *EntryExtractor {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	x := &EntryExtractor{
		logger:   logrus.NewEntry(discard),
		validate: validator.New(),
		venues:   models.KnownVenues,
		weightCarried: Chain{
			ByTextPattern(ByMarker(tagWithClassContaining("td", "Futan")), carryWeight),
			ByCellPattern(carryWeight),
		},
		odds: Chain{
			ByMarker(func(n *html.Node) bool {
				return tagWithIDPrefix("span", "odds-")(n) && n.Parent != nil && hasClass(n.Parent, "Popular")
			}),
			ByMarker(tagWithIDPrefix("span", "odds-")),
			ByMarker(tagWithClass("td", "Odds")),
		},
		popularity: Chain{
			ByMarker(tagWithClass("td", "Popular_Ninki")),
			ByMarker(tagWithIDPrefix("span", "ninki-")),
		},
		gate: Chain{
			ByMarker(tagWithClassContaining("td", "Waku")),
		},
		number: Chain{
			ByMarker(tagWithClassContaining("td", "Umaban")),
		},
	}

	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract parses doc. It never fails: fields that cannot be read keep their defaults,
// and rows without a name or a positive program number are dropped.
func (x *EntryExtractor) Extract(raceID string, doc io.Reader) (models.RaceInfo, []models.Entrant) {
	race := models.NewRaceInfo(raceID)
	root := parseDocument(doc)
	if root == nil {
		return race, nil
	}

	x.readRaceHeader(root, &race)

	var entrants []models.Entrant
	seen := make(map[int]bool)
	for _, row := range findAll(root, tagWithClass("tr", "HorseList")) {
		e := x.readEntrant(row)
		if err := x.validate.Struct(e); err != nil {
			x.logger.WithFields(logrus.Fields{
				"race_id": raceID,
				"number":  e.Number,
				"name":    e.Name,
			}).Debug("Dropping entry row without name or program number")
			metrics.RecordDroppedRow("invalid")
			continue
		}
		if seen[e.Number] {
			x.logger.WithFields(logrus.Fields{
				"race_id": raceID,
				"number":  e.Number,
			}).Debug("Dropping entry row with duplicate program number")
			metrics.RecordDroppedRow("duplicate")
			continue
		}
		seen[e.Number] = true
		entrants = append(entrants, e)
	}

	return race, entrants
}

func (x *EntryExtractor) readRaceHeader(root *html.Node, race *models.RaceInfo) {
	if name := textOf(findFirst(root, withClass("RaceName"))); name != "" {
		race.Name = name
	}

	race.Number = raceNumber(root, race.ID)

	if data := findFirst(root, withClass("RaceData01")); data != nil {
		text := blockText(data)

		if m := distancePattern.FindStringSubmatch(text); m != nil {
			race.Distance, _ = strconv.Atoi(m[1])
		}
		race.Surface = surfaceOf(text)
		if m := weatherPattern.FindStringSubmatch(text); m != nil {
			race.Weather = m[1]
		}
		race.Condition = conditionOf(text)
		if m := startTimePattern.FindStringSubmatch(text); m != nil {
			race.StartTime = zeroPadClock(m[1])
		}
	}

	if data := findFirst(root, withClass("RaceData02")); data != nil {
		race.Venue = models.MatchVenue(blockText(data), x.venues)
	}

	race.Date = raceDate(root, race.ID)
}

func (x *EntryExtractor) readEntrant(row *html.Node) models.Entrant {
	e := models.NewEntrant()

	if text, ok := x.gate.Locate(row); ok {
		e.Gate = parseIntOr(text, 0)
	}
	if text, ok := x.number.Locate(row); ok {
		e.Number = parseIntOr(text, 0)
	}

	if link := findFirst(findFirst(row, tagWithClass("span", "HorseName")), isTag("a")); link != nil {
		e.Name = normalizeText(attr(link, "title"))
		if e.Name == "" {
			e.Name = textOf(link)
		}
		if m := horseIDPattern.FindStringSubmatch(attr(link, "href")); m != nil {
			e.HorseID = m[1]
		}
	}

	if barei := findFirst(row, tagWithClass("td", "Barei")); barei != nil {
		text := textOf(barei)
		if m := sexPattern.FindStringSubmatch(text); m != nil {
			e.Sex = models.ParseSex(m[1])
		}
		if m := leadingInt.FindStringSubmatch(text); m != nil {
			e.Age, _ = strconv.Atoi(m[1])
		}
	}

	if text, ok := x.weightCarried.Locate(row); ok {
		e.WeightCarried = parseDecimal(text, 1)
	}

	if cell := findFirst(row, tagWithClass("td", "Jockey")); cell != nil {
		e.Jockey = linkOrText(cell)
	}
	if cell := findFirst(row, tagWithClass("td", "Trainer")); cell != nil {
		e.Trainer = linkOrText(cell)
	}

	if cell := findFirst(row, tagWithClass("td", "Weight")); cell != nil {
		if m := bodyWeightPattern.FindStringSubmatch(textOf(cell)); m != nil {
			e.BodyWeight, _ = strconv.Atoi(m[1])
			e.BodyWeightDiff = m[2]
		}
	}

	if text, ok := x.odds.Locate(row); ok {
		e.Odds = parseOdds(text)
	}
	if text, ok := x.popularity.Locate(row); ok {
		e.Popularity = parseIntOr(text, 0)
	}

	return e
}

func surfaceOf(text string) models.Surface {
	switch {
	case strings.Contains(text, dirtMarker):
		return models.SurfaceDirt
	case strings.Contains(text, turfMarker):
		return models.SurfaceTurf
	default:
		return models.SurfaceUnknown
	}
}

func conditionOf(text string) models.TrackCondition {
	if m := goingPattern.FindStringSubmatch(text); m != nil {
		return models.ParseTrackCondition(m[1])
	}
	if m := bareGoingPattern.FindStringSubmatch(text); m != nil {
		return models.ParseTrackCondition(m[1])
	}
	return models.ConditionUnknown
}

// raceNumber reads "11R" from the header, else the last two digits of a 12-digit race ID.
func raceNumber(root *html.Node, raceID string) int {
	if m := raceNumPattern.FindStringSubmatch(textOf(findFirst(root, withClass("RaceNum")))); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if len(raceID) == 12 {
		if n, ok := parsePlainInt(raceID[10:]); ok {
			return n
		}
	}
	return 0
}

// raceDate reads the meeting date from the active date tab or the page title.
// A month/day without a year borrows the year from the race ID.
func raceDate(root *html.Node, raceID string) time.Time {
	candidates := []string{
		textOf(findFirst(root, func(n *html.Node) bool {
			return n.Data == "dd" && hasClass(n, "Active")
		})),
		textOf(findFirst(root, isTag("title"))),
	}

	for _, text := range candidates {
		if m := fullDatePattern.FindStringSubmatch(text); m != nil {
			if d, ok := buildDate(m[1], m[2], m[3]); ok {
				return d
			}
		}
	}
	if len(raceID) >= 4 {
		for _, text := range candidates {
			if m := monthDayPattern.FindStringSubmatch(text); m != nil {
				if d, ok := buildDate(raceID[:4], m[1], m[2]); ok {
					return d
				}
			}
		}
	}
	return time.Time{}
}

func buildDate(year, month, day string) (time.Time, bool) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}

func zeroPadClock(clock string) string {
	if len(clock) == 4 {
		return "0" + clock
	}
	return clock
}
