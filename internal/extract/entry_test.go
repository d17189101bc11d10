package extract

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-forecast/internal/metrics"
	"github.com/yourusername/race-forecast/internal/models"
)

const derbyRaceID = "202505021211"

func TestEntryExtractorRaceInfo(t *testing.T) {
	race, _ := NewEntryExtractor().Extract(derbyRaceID, strings.NewReader(entryPage))

	assert.Equal(t, derbyRaceID, race.ID)
	assert.Equal(t, "東京優駿", race.Name)
	assert.Equal(t, 11, race.Number)
	assert.Equal(t, models.VenueTokyo, race.Venue)
	assert.Equal(t, 2400, race.Distance)
	assert.Equal(t, models.SurfaceTurf, race.Surface)
	assert.Equal(t, models.ConditionGood, race.Condition)
	assert.Equal(t, "晴", race.Weather)
	assert.Equal(t, "15:40", race.StartTime)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), race.Date)
}

func TestEntryExtractorEntrants(t *testing.T) {
	_, entrants := NewEntryExtractor().Extract(derbyRaceID, strings.NewReader(entryPage))
	require.Len(t, entrants, 2)

	first := entrants[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 1, first.Gate)
	assert.Equal(t, "クロワデュノール", first.Name)
	assert.Equal(t, "2022105081", first.HorseID)
	assert.Equal(t, models.SexColt, first.Sex)
	assert.Equal(t, 3, first.Age)
	assert.Equal(t, 57.0, first.WeightCarried)
	assert.Equal(t, "北村友", first.Jockey)
	assert.Equal(t, "斉藤崇", first.Trainer)
	assert.Equal(t, 506, first.BodyWeight)
	assert.Equal(t, "+2", first.BodyWeightDiff)
	assert.Equal(t, 2.1, first.Odds)
	assert.Equal(t, 1, first.Popularity)
	assert.Empty(t, first.Results)

	second := entrants[1]
	assert.Equal(t, 3, second.Number, "full-width digit inside a nested span")
	assert.Equal(t, 2, second.Gate)
	assert.Equal(t, "マスカレードボール", second.Name, "falls back to link text without a title")
	assert.Equal(t, models.SexFilly, second.Sex)
	assert.Equal(t, 55.0, second.WeightCarried)
	assert.Equal(t, "坂井", second.Jockey)
	assert.Equal(t, 0, second.BodyWeight)
	assert.Equal(t, 0.0, second.Odds, "placeholder odds mean not posted")
	assert.False(t, second.HasOdds())
	assert.Equal(t, 0, second.Popularity)
}

func TestEntryExtractorDropsDecorativeRows(t *testing.T) {
	doc := `<table>
<tr class="HorseList"><td class="Umaban">0</td><td><span class="HorseName"><a title="取消">取消</a></span></td></tr>
<tr class="HorseList"><td class="Umaban7">7</td><td><span class="HorseName"><a title="">  </a></span></td></tr>
<tr class="HorseList"><td class="Umaban2">2</td><td><span class="HorseName"><a title="ミュージアムマイル">x</a></span></td></tr>
</table>`

	invalid := testutil.ToFloat64(metrics.EntryRowsDroppedTotal.WithLabelValues("invalid"))

	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	_, entrants := NewEntryExtractor(WithEntryLogger(log.WithField("component", "test"))).
		Extract("r", strings.NewReader(doc))

	require.Len(t, entrants, 1)
	assert.Equal(t, 2, entrants[0].Number)
	assert.Equal(t, "ミュージアムマイル", entrants[0].Name)
	assert.Contains(t, buf.String(), "Dropping entry row")
	assert.Equal(t, invalid+2, testutil.ToFloat64(metrics.EntryRowsDroppedTotal.WithLabelValues("invalid")))
}

func TestEntryExtractorDropsDuplicateNumbers(t *testing.T) {
	doc := `<table>
<tr class="HorseList"><td class="Umaban1">1</td><td><span class="HorseName"><a>First</a></span></td></tr>
<tr class="HorseList"><td class="Umaban1">1</td><td><span class="HorseName"><a>Second</a></span></td></tr>
</table>`

	duplicate := testutil.ToFloat64(metrics.EntryRowsDroppedTotal.WithLabelValues("duplicate"))

	_, entrants := NewEntryExtractor().Extract("r", strings.NewReader(doc))
	require.Len(t, entrants, 1)
	assert.Equal(t, "First", entrants[0].Name)
	assert.Equal(t, duplicate+1, testutil.ToFloat64(metrics.EntryRowsDroppedTotal.WithLabelValues("duplicate")))
}

func TestEntryExtractorDecoratedWeightCell(t *testing.T) {
	doc := `<table>
<tr class="HorseList"><td class="Umaban3">3</td><td><span class="HorseName"><a title="エリキング">x</a></span></td><td class="Futan">☆55.0</td><td>55.0</td></tr>
</table>`

	_, entrants := NewEntryExtractor().Extract("r", strings.NewReader(doc))
	require.Len(t, entrants, 1)
	assert.Equal(t, 55.0, entrants[0].WeightCarried)
}

func TestEntryExtractorDirtPrecedence(t *testing.T) {
	race, entrants := NewEntryExtractor().Extract("202544082011", strings.NewReader(dirtEntryPage))

	assert.Equal(t, models.SurfaceDirt, race.Surface)
	assert.Equal(t, 1200, race.Distance)
	assert.Equal(t, models.VenueOi, race.Venue)
	assert.Equal(t, models.ConditionSlightlyHeavy, race.Condition)
	assert.Equal(t, "曇", race.Weather)
	assert.Equal(t, "20:10", race.StartTime)
	assert.Equal(t, 11, race.Number, "race number from the race ID")

	require.Len(t, entrants, 1)
	assert.Equal(t, 54.5, entrants[0].WeightCarried, "structural marker wins over the cell scan")
	assert.Equal(t, "2021100001", entrants[0].HorseID)
}

func TestEntryExtractorMalformedDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"plain text", "not html at all"},
		{"no rows", "<html><body><div class=\"RaceName\">X</div></body></html>"},
		{"unclosed tags", "<div class=\"RaceData01\"><span>芝"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			race, entrants := NewEntryExtractor().Extract("r", strings.NewReader(tt.doc))
			assert.Empty(t, entrants)
			assert.Equal(t, "r", race.ID)
			assert.Equal(t, 0, race.Distance)
			assert.Equal(t, models.ConditionUnknown, race.Condition)
		})
	}
}

func TestEntryExtractorNilReader(t *testing.T) {
	race, entrants := NewEntryExtractor().Extract("r", nil)
	assert.Nil(t, entrants)
	assert.Equal(t, models.VenueUnknown, race.Venue)
}

func TestEntryExtractorCustomVenues(t *testing.T) {
	doc := `<div class="RaceData02">帯広 ばんえい</div>`
	race, _ := NewEntryExtractor(WithVenues([]models.Venue{"帯広"})).Extract("r", strings.NewReader(doc))
	assert.Equal(t, models.Venue("帯広"), race.Venue)
}

func TestConditionOf(t *testing.T) {
	assert.Equal(t, models.ConditionBad, conditionOf("馬場:不良"))
	assert.Equal(t, models.ConditionSlightlyHeavy, conditionOf("稍重"))
	assert.Equal(t, models.ConditionHeavy, conditionOf("天候:雨 / 馬場:重"))
	assert.Equal(t, models.ConditionUnknown, conditionOf("天候:晴"))
}

func TestRaceDateFromMonthDay(t *testing.T) {
	doc := `<html><body><dl><dd class="Active"><a>10月19日(日)</a></dd></dl></body></html>`
	root := parseDocument(strings.NewReader(doc))
	assert.Equal(t, time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC), raceDate(root, "202508040701"))
	assert.True(t, raceDate(root, "").IsZero())
}
