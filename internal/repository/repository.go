// Package repository persists forecast runs.
package repository

import (
	"fmt"

	"github.com/yourusername/race-forecast/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Forecast ForecastRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Forecast: NewPostgresForecastRepository(db.GetPool()),
	}, nil
}
