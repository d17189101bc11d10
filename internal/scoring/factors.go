package scoring

import (
	"math"
	"strings"

	"github.com/yourusername/race-forecast/internal/models"
)

const (
	neutralScore = 50.0
	maxScore     = 100.0

	recentFormRuns     = 5
	finishPenalty      = 12.0
	consistencyRuns    = 10
	consistencyMinRuns = 3
	consistencyPenalty = 12.0

	// Distance fit window, metres either side of the race distance.
	distanceWindow = 100

	sprintInnerBias = 0.2
	routeInnerBias  = 0.1

	oddsLogPenalty    = 18.0
	weightDiffPenalty = 8.0
)

// recentFormWeights apply to the five most recent runs, most recent first.
var recentFormWeights = [recentFormRuns]float64{0.35, 0.25, 0.20, 0.12, 0.08}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return neutralScore
	}
	return math.Max(0, math.Min(maxScore, v))
}

// finishScore maps a finishing position to 100 for a win, losing 12 per place.
func finishScore(finish int) float64 {
	return math.Max(0, maxScore-float64(finish-1)*finishPenalty)
}

// placeRate is the share of runs finishing in the first three.
func placeRate(runs []models.HistoricalRun) float64 {
	if len(runs) == 0 {
		return 0
	}
	places := 0
	for _, r := range runs {
		if r.IsPlace() {
			places++
		}
	}
	return float64(places) / float64(len(runs))
}

// recentForm weights the finish score of up to five recent runs. Fewer runs are not rescaled.
func recentForm(e *models.Entrant) float64 {
	if !e.HasHistory() {
		return neutralScore
	}
	var sum float64
	for i, finish := range e.RecentFinishes(recentFormRuns) {
		sum += finishScore(finish) * recentFormWeights[i]
	}
	return clamp(sum)
}

func winPlaceRate(e *models.Entrant) float64 {
	if !e.HasHistory() {
		return neutralScore
	}
	wins := 0
	for _, r := range e.Results {
		if r.IsWin() {
			wins++
		}
	}
	winRate := float64(wins) / float64(len(e.Results))
	return clamp(50*winRate + 50*placeRate(e.Results))
}

func distanceFit(e *models.Entrant, race models.RaceInfo) float64 {
	if !e.HasHistory() || !race.HasDistance() {
		return neutralScore
	}
	var similar []models.HistoricalRun
	for _, r := range e.Results {
		if absInt(r.Distance-race.Distance) <= distanceWindow {
			similar = append(similar, r)
		}
	}
	if len(similar) == 0 {
		return neutralScore
	}
	return clamp(placeRate(similar) * maxScore)
}

func courseFit(e *models.Entrant, race models.RaceInfo) float64 {
	if !e.HasHistory() || !race.Venue.IsKnown() {
		return neutralScore
	}
	var sameCourse []models.HistoricalRun
	for _, r := range e.Results {
		if strings.Contains(r.Venue, string(race.Venue)) {
			sameCourse = append(sameCourse, r)
		}
	}
	if len(sameCourse) == 0 {
		return neutralScore
	}
	return clamp(placeRate(sameCourse) * maxScore)
}

// postPosition favours inside draws, more strongly over sprint distances.
func postPosition(e *models.Entrant, race models.RaceInfo, fieldSize int) float64 {
	if e.Number < 1 || fieldSize < 1 {
		return neutralScore
	}
	span := fieldSize - 1
	if span < 1 {
		span = 1
	}
	position := float64(e.Number-1) / float64(span)

	bias := routeInnerBias
	if race.IsSprint() {
		bias = sprintInnerBias
	}
	return clamp((1 - position*bias) * maxScore)
}

// oddsImplied is 0 while odds are not posted.
func oddsImplied(e *models.Entrant) float64 {
	if !e.HasOdds() {
		return 0
	}
	return clamp(maxScore - math.Log(e.Odds)*oddsLogPenalty)
}

// consistency penalises the sample deviation of up to ten recent finishes.
func consistency(e *models.Entrant) float64 {
	if len(e.Results) < consistencyMinRuns {
		return neutralScore
	}
	return clamp(maxScore - sampleStdDev(e.RecentFinishes(consistencyRuns))*consistencyPenalty)
}

// weightRelative rewards carrying less than the field average.
func weightRelative(e *models.Entrant, field []models.Entrant) float64 {
	if e.WeightCarried <= 0 {
		return neutralScore
	}
	var total float64
	n := 0
	for i := range field {
		if w := field[i].WeightCarried; w > 0 {
			total += w
			n++
		}
	}
	if n == 0 {
		return neutralScore
	}
	return clamp(neutralScore - weightDiffPenalty*(e.WeightCarried-total/float64(n)))
}

func sampleStdDev(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += float64(v)
	}
	mean /= float64(len(values))

	var ss float64
	for _, v := range values {
		d := float64(v) - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
