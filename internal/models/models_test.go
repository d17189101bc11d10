package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchVenue(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Venue
	}{
		{"national", "2回 東京 7日目 サラ系３歳", VenueTokyo},
		{"regional", "大井 11R", VenueOi},
		{"national wins over regional", "中山 (船橋所属馬出走)", VenueNakayama},
		{"none", "ロンシャン", VenueUnknown},
		{"empty", "", VenueUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchVenue(tt.text, nil))
		})
	}
}

func TestMatchVenueCustomList(t *testing.T) {
	regional := []Venue{VenueOi}

	assert.Equal(t, VenueOi, MatchVenue("大井 11R", regional))
	assert.Equal(t, VenueUnknown, MatchVenue("2回 東京 7日目", regional))
	assert.Equal(t, VenueUnknown, MatchVenue("大井 11R", []Venue{}))
}

func TestNewRaceInfoDefaults(t *testing.T) {
	race := NewRaceInfo("202505021211")

	assert.Equal(t, "202505021211", race.ID)
	assert.Equal(t, VenueUnknown, race.Venue)
	assert.Equal(t, SurfaceUnknown, race.Surface)
	assert.Equal(t, ConditionUnknown, race.Condition)
	assert.Equal(t, Unknown, race.Weather)
	assert.False(t, race.HasDistance())
	assert.False(t, race.Venue.IsKnown())
	assert.True(t, race.ScheduledAt(time.UTC).IsZero())
}

func TestRaceInfoScheduledAt(t *testing.T) {
	race := NewRaceInfo("x")
	race.Date = time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)
	race.StartTime = "15:40"

	got := race.ScheduledAt(time.UTC)
	assert.Equal(t, time.Date(2025, 5, 4, 15, 40, 0, 0, time.UTC), got)

	race.StartTime = "late"
	assert.True(t, race.ScheduledAt(time.UTC).IsZero())
}

func TestParseTrackCondition(t *testing.T) {
	assert.Equal(t, ConditionGood, ParseTrackCondition("良"))
	assert.Equal(t, ConditionSlightlyHeavy, ParseTrackCondition("稍重"))
	assert.Equal(t, ConditionHeavy, ParseTrackCondition(" 重 "))
	assert.Equal(t, ConditionBad, ParseTrackCondition("不良"))
	assert.Equal(t, ConditionUnknown, ParseTrackCondition("firm"))
}

func TestParseSex(t *testing.T) {
	assert.Equal(t, SexColt, ParseSex("牡"))
	assert.Equal(t, SexFilly, ParseSex("牝"))
	assert.Equal(t, SexGelding, ParseSex("セ"))
	assert.Equal(t, SexUnknown, ParseSex("?"))
}

func TestAttachHistoryOnce(t *testing.T) {
	e := NewEntrant()
	runs := []HistoricalRun{{Finish: 1}, {Finish: 4}}

	require.NoError(t, e.AttachHistory(runs))
	assert.True(t, e.HistoryAttached())
	assert.Len(t, e.Results, 2)

	err := e.AttachHistory([]HistoricalRun{{Finish: 2}})
	assert.ErrorIs(t, err, ErrHistoryAlreadyAttached)
	assert.Equal(t, 1, e.Results[0].Finish)
}

func TestAttachHistoryTruncates(t *testing.T) {
	runs := make([]HistoricalRun, 25)
	for i := range runs {
		runs[i].Finish = i + 1
	}

	e := NewEntrant()
	require.NoError(t, e.AttachHistory(runs))
	assert.Len(t, e.Results, MaxHistoryRuns)
	assert.Equal(t, 1, e.Results[0].Finish)

	// the caller's slice is not aliased
	runs[0].Finish = 99
	assert.Equal(t, 1, e.Results[0].Finish)
}

func TestAttachEmptyHistory(t *testing.T) {
	e := NewEntrant()
	require.NoError(t, e.AttachHistory(nil))
	assert.True(t, e.HistoryAttached())
	assert.False(t, e.HasHistory())
}

func TestRecentFinishes(t *testing.T) {
	e := Entrant{Results: []HistoricalRun{{Finish: 3}, {Finish: 1}, {Finish: 7}}}
	assert.Equal(t, []int{3, 1}, e.RecentFinishes(2))
	assert.Equal(t, []int{3, 1, 7}, e.RecentFinishes(10))
}

func TestHistoricalRunPlacing(t *testing.T) {
	assert.True(t, HistoricalRun{Finish: 1}.IsWin())
	assert.True(t, HistoricalRun{Finish: 3}.IsPlace())
	assert.False(t, HistoricalRun{Finish: 4}.IsPlace())
	assert.False(t, HistoricalRun{Finish: 0}.IsPlace())
}

func TestScoreBreakdownAsMap(t *testing.T) {
	b := ScoreBreakdown{RecentForm: 80, OddsImplied: 100, Composite: 70}
	m := b.AsMap()

	assert.Len(t, m, len(Factors))
	assert.Equal(t, 80.0, m[FactorRecentForm])
	assert.Equal(t, 100.0, m[FactorOddsImplied])
	assert.Equal(t, 0.0, b.Get(Factor("bogus")))
}

func TestForecastRunFavourite(t *testing.T) {
	run := &ForecastRun{}
	assert.Nil(t, run.Favourite())

	run.Forecasts = []Forecast{{Rank: 1}, {Rank: 2}}
	require.NotNil(t, run.Favourite())
	assert.Equal(t, 1, run.Favourite().Rank)
}
