package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-forecast/internal/models"
)

// Plausible bounds for a flat or jump race on either circuit.
const (
	minRaceDistance = 800
	maxRaceDistance = 4300
	maxFieldSize    = 18
	maxGate         = 8
	minCarried      = 48.0
	maxCarried      = 63.0
)

// DataValidator reports implausible extracted data. Findings are warnings:
// a forecast is still produced from whatever was extracted.
type DataValidator struct {
	logger *logrus.Entry
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger *logrus.Entry) *DataValidator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &DataValidator{logger: logger.WithField("component", "data_validator")}
}

// ValidateRace checks the race header.
func (v *DataValidator) ValidateRace(race models.RaceInfo) []string {
	var warnings []string

	if race.Name == "" || race.Name == models.Unknown {
		warnings = append(warnings, "race name not found")
	}

	if !race.Venue.IsKnown() {
		warnings = append(warnings, "venue not recognised")
	}

	if race.Surface == models.SurfaceUnknown {
		warnings = append(warnings, "surface not found")
	}

	if !race.HasDistance() {
		warnings = append(warnings, "distance not found")
	} else if race.Distance < minRaceDistance || race.Distance > maxRaceDistance {
		warnings = append(warnings, fmt.Sprintf("distance out of range (%d-%dm), got %d", minRaceDistance, maxRaceDistance, race.Distance))
	}

	return warnings
}

// ValidateEntrant checks one entrant's fields.
func (v *DataValidator) ValidateEntrant(e *models.Entrant) []string {
	var warnings []string

	if e.Gate < 0 || e.Gate > maxGate {
		warnings = append(warnings, fmt.Sprintf("#%d: gate must be 1-%d, got %d", e.Number, maxGate, e.Gate))
	}

	if e.WeightCarried != 0 && (e.WeightCarried < minCarried || e.WeightCarried > maxCarried) {
		warnings = append(warnings, fmt.Sprintf("#%d: weight carried %.1fkg out of range", e.Number, e.WeightCarried))
	}

	if e.Odds < 0 {
		warnings = append(warnings, fmt.Sprintf("#%d: odds cannot be negative", e.Number))
	}

	if e.HorseID == "" {
		warnings = append(warnings, fmt.Sprintf("#%d: no horse id, history cannot be fetched", e.Number))
	}

	return warnings
}

// ValidateField checks the field as a whole and every entrant in it.
func (v *DataValidator) ValidateField(field []models.Entrant) []string {
	var warnings []string

	if len(field) == 0 {
		return append(warnings, "no valid entrants")
	}

	if len(field) > maxFieldSize {
		warnings = append(warnings, fmt.Sprintf("field of %d exceeds %d runners", len(field), maxFieldSize))
	}

	withOdds := 0
	for i := range field {
		e := &field[i]
		if e.HasOdds() {
			withOdds++
		}
		if e.Number > maxFieldSize {
			warnings = append(warnings, fmt.Sprintf("#%d: number exceeds %d", e.Number, maxFieldSize))
		}
		warnings = append(warnings, v.ValidateEntrant(e)...)
	}

	if withOdds == 0 {
		warnings = append(warnings, "no odds posted")
	}

	return warnings
}

// Check runs every rule and logs the findings. It returns the number of warnings.
func (v *DataValidator) Check(race models.RaceInfo, field []models.Entrant) int {
	warnings := append(v.ValidateRace(race), v.ValidateField(field)...)
	for _, w := range warnings {
		v.logger.WithField("race_id", race.ID).Warn(w)
	}
	return len(warnings)
}
