package extract

import (
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/yourusername/race-forecast/internal/models"
)

// Result table column positions.
const (
	colDate       = 0
	colVenue      = 1
	colRaceName   = 4
	colFieldSize  = 6
	colOdds       = 9
	colPopularity = 10
	colFinish     = 11
	colCourse     = 14

	minResultCells = 15
)

// Known result table classes, in lookup order.
var resultTableClasses = []string{"db_h_race_results", "nk_tb_common"}

// courseToken matches "芝1600", "ダ1200" or "障3000".
var courseToken = regexp.MustCompile(`([芝ダ障])(\d{3,4})`)

var historyDateLayouts = []string{"2006/01/02", "2006-01-02", "2006.01.02"}

// HistoryOption configures a HistoryExtractor.
type HistoryOption func(*HistoryExtractor)

// WithHistoryLogger records skipped rows at debug level.
func WithHistoryLogger(entry *logrus.Entry) HistoryOption {
	return func(x *HistoryExtractor) {
		if entry != nil {
			x.logger = entry
		}
	}
}

// WithMaxRuns overrides the number of runs kept.
func WithMaxRuns(n int) HistoryOption {
	return func(x *HistoryExtractor) {
		if n > 0 && n <= models.MaxHistoryRuns {
			x.maxRuns = n
		}
	}
}

// HistoryExtractor reads a horse's result table.
type HistoryExtractor struct {
	logger  *logrus.Entry
	maxRuns int
}

// NewHistoryExtractor creates an extractor keeping up to models.MaxHistoryRuns runs.
func NewHistoryExtractor(opts ...HistoryOption) *HistoryExtractor {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	x := &HistoryExtractor{
		logger:  logrus.NewEntry(discard),
		maxRuns: models.MaxHistoryRuns,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract returns the runs in table order, most recent first. A document without a result
// table yields an empty slice. Rows whose finish is not a plain integer are excluded.
func (x *HistoryExtractor) Extract(doc io.Reader) []models.HistoricalRun {
	runs := make([]models.HistoricalRun, 0)

	table := resultTable(parseDocument(doc))
	if table == nil {
		return runs
	}

	for _, row := range findAll(table, isTag("tr")) {
		cells := children(row, "td")
		if len(cells) < minResultCells {
			continue
		}

		run, ok := readRun(cells)
		if !ok {
			x.logger.WithField("finish", textOf(cells[colFinish])).Debug("Skipping run without numeric finish")
			continue
		}
		runs = append(runs, run)
		if len(runs) == x.maxRuns {
			break
		}
	}

	return runs
}

func resultTable(root *html.Node) *html.Node {
	if root == nil {
		return nil
	}
	for _, cls := range resultTableClasses {
		if table := findFirst(root, tagWithClass("table", cls)); table != nil {
			return table
		}
	}
	return nil
}

// readRun decodes one result row. ok is false when the finish cell is not a positive integer.
func readRun(cells []*html.Node) (models.HistoricalRun, bool) {
	finish, ok := parsePlainInt(textOf(cells[colFinish]))
	if !ok || finish < 1 {
		return models.HistoricalRun{}, false
	}

	run := models.HistoricalRun{
		Date:       parseRunDate(linkOrText(cells[colDate])),
		Venue:      linkOrText(cells[colVenue]),
		RaceName:   linkOrText(cells[colRaceName]),
		Finish:     finish,
		FieldSize:  parseIntOr(textOf(cells[colFieldSize]), 0),
		Odds:       parseOdds(textOf(cells[colOdds])),
		Popularity: parseIntOr(textOf(cells[colPopularity]), 0),
		Surface:    models.SurfaceUnknown,
	}

	if m := courseToken.FindStringSubmatch(textOf(cells[colCourse])); m != nil {
		run.Distance, _ = strconv.Atoi(m[2])
		if m[1] == dirtMarker {
			run.Surface = models.SurfaceDirt
		} else {
			run.Surface = models.SurfaceTurf
		}
	}

	return run, true
}

func parseRunDate(text string) time.Time {
	for _, layout := range historyDateLayouts {
		if d, err := time.Parse(layout, text); err == nil {
			return d
		}
	}
	return time.Time{}
}
