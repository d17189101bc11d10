package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ForecastLogger provides dedicated logging for forecast runs.
type ForecastLogger struct {
	*logrus.Entry
}

// NewForecastLogger creates a new forecast logger.
func NewForecastLogger(baseLogger *logrus.Logger) *ForecastLogger {
	return &ForecastLogger{
		Entry: baseLogger.WithField("component", "forecast"),
	}
}

// LogRaceExtracted logs the result of reading an entry page.
func (fl *ForecastLogger) LogRaceExtracted(raceID, raceName, venue string, distance, entrants int) {
	fl.WithFields(logrus.Fields{
		"race_id":   raceID,
		"race_name": raceName,
		"venue":     venue,
		"distance":  distance,
		"entrants":  entrants,
	}).Info("Race entry page extracted")
}

// LogHistoryAttached logs an entrant's attached history.
func (fl *ForecastLogger) LogHistoryAttached(raceID string, number int, horseID string, runs int) {
	fl.WithFields(logrus.Fields{
		"race_id":  raceID,
		"number":   number,
		"horse_id": horseID,
		"runs":     runs,
	}).Debug("History attached")
}

// LogHistoryMissing logs an entrant scored without history.
func (fl *ForecastLogger) LogHistoryMissing(raceID string, number int, horseID string, err error) {
	fl.WithFields(logrus.Fields{
		"race_id":  raceID,
		"number":   number,
		"horse_id": horseID,
		"error":    err,
	}).Warn("History unavailable, scoring with neutral defaults")
}

// LogForecastCompleted logs a finished forecast.
func (fl *ForecastLogger) LogForecastCompleted(raceID, preset string, entrants int, favourite string, probability float64, duration time.Duration) {
	fl.WithFields(logrus.Fields{
		"race_id":         raceID,
		"preset":          preset,
		"entrants":        entrants,
		"favourite":       favourite,
		"win_probability": probability,
		"duration_ms":     duration.Milliseconds(),
	}).Info("Forecast completed")
}

// LogForecastFailed logs a race that could not be forecast.
func (fl *ForecastLogger) LogForecastFailed(raceID string, err error) {
	fl.WithFields(logrus.Fields{
		"race_id": raceID,
		"error":   err,
	}).Error("Forecast failed")
}
