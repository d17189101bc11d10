package models

import "time"

// HistoricalRun is one past race of an entrant. Runs without a numeric finish are never recorded.
type HistoricalRun struct {
	Date       time.Time `json:"date"`
	Venue      string    `json:"venue"` // free text, e.g. "5東京3"
	RaceName   string    `json:"race_name"`
	Distance   int       `json:"distance"`
	Surface    Surface   `json:"surface"`
	Finish     int       `json:"finish"`
	FieldSize  int       `json:"field_size"`
	Odds       float64   `json:"odds"`
	Popularity int       `json:"popularity"`
}

// IsWin reports a first-place finish.
func (r HistoricalRun) IsWin() bool {
	return r.Finish == 1
}

// IsPlace reports a finish in the first three.
func (r HistoricalRun) IsPlace() bool {
	return r.Finish >= 1 && r.Finish <= 3
}
