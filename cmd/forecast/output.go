package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"

	"github.com/yourusername/race-forecast/internal/models"
)

const (
	formatText = "text"
	formatJSON = "json"

	nameColumn = 20
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q: want %s or %s", format, formatText, formatJSON)
	}
}

// render writes run to w. top limits the ranked rows; 0 shows every entrant.
func render(w io.Writer, run *models.ForecastRun, format string, top int) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case formatText:
		return renderText(w, run, top)
	default:
		return checkFormat(format)
	}
}

func renderText(w io.Writer, run *models.ForecastRun, top int) error {
	var b strings.Builder
	race := run.Race

	fmt.Fprintf(&b, "%s %s (%s)\n", race.Venue, raceLabel(race), race.ID)
	fmt.Fprintf(&b, "%s %dm  %s  %s  %s  preset=%s\n\n",
		surfaceLabel(race.Surface), race.Distance, race.Condition, race.Weather, orDash(race.StartTime), run.Preset)

	if len(run.Forecasts) == 0 {
		b.WriteString("No valid entrants.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "%-4s %-3s %s %7s %6s %6s %5s\n", "Rank", "No", padDisplay("Horse", nameColumn), "Odds", "Score", "Win%", "EV")
	for i, f := range run.Forecasts {
		if top > 0 && i >= top {
			break
		}
		fmt.Fprintf(&b, "%-4d %-3d %s %7s %6.1f %5.1f%% %5s\n",
			f.Rank, f.Entrant.Number, padDisplay(f.Entrant.Name, nameColumn),
			oddsLabel(f.Entrant), f.Breakdown.Composite, f.WinProbability*100, evLabel(f))
	}

	if len(run.ValuePicks) > 0 {
		b.WriteString("\nValue picks:\n")
		for _, p := range run.ValuePicks {
			fmt.Fprintf(&b, "  #%d %s  EV %.2f (odds %.1f, win %.1f%%)\n",
				p.Entrant.Number, p.Entrant.Name, p.ExpectedValue, p.Entrant.Odds, p.WinProbability*100)
		}
	}

	fmt.Fprintf(&b, "\nHistories: %d fetched, %d missing  (%s)\n",
		run.HistoriesFetched, run.HistoriesMissing, run.Duration.Round(1e6))

	_, err := io.WriteString(w, b.String())
	return err
}

func raceLabel(race models.RaceInfo) string {
	if race.Number > 0 {
		return fmt.Sprintf("%dR %s", race.Number, race.Name)
	}
	return race.Name
}

func surfaceLabel(s models.Surface) string {
	switch s {
	case models.SurfaceTurf:
		return "芝"
	case models.SurfaceDirt:
		return "ダ"
	default:
		return "?"
	}
}

func oddsLabel(e *models.Entrant) string {
	if !e.HasOdds() {
		return "---.-"
	}
	return fmt.Sprintf("%.1f", e.Odds)
}

func evLabel(f models.Forecast) string {
	if f.ExpectedValue == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", f.ExpectedValue)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// displayWidth counts terminal cells: wide and fullwidth runes take two.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// padDisplay pads s with spaces to cells terminal cells. Longer strings are returned unchanged.
func padDisplay(s string, cells int) string {
	if w := displayWidth(s); w < cells {
		return s + strings.Repeat(" ", cells-w)
	}
	return s
}
