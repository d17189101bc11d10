package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/race-forecast/internal/models"
)

const errScanForecast = "failed to scan forecast run: %w"

// PostgresForecastRepository implements ForecastRepository for PostgreSQL
type PostgresForecastRepository struct {
	db DBTX
}

// NewPostgresForecastRepository creates a new forecast repository
func NewPostgresForecastRepository(db DBTX) *PostgresForecastRepository {
	return &PostgresForecastRepository{db: db}
}

// Save inserts a forecast run. A run without an ID is assigned one.
func (r *PostgresForecastRepository) Save(ctx context.Context, run *models.ForecastRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	race, err := json.Marshal(run.Race)
	if err != nil {
		return fmt.Errorf("failed to encode race: %w", err)
	}
	forecasts, err := json.Marshal(nonNil(run.Forecasts))
	if err != nil {
		return fmt.Errorf("failed to encode forecasts: %w", err)
	}
	picks, err := json.Marshal(nonNil(run.ValuePicks))
	if err != nil {
		return fmt.Errorf("failed to encode value picks: %w", err)
	}

	query := `
		INSERT INTO forecast_runs (id, race_id, race, preset, forecasts, value_picks,
		                           histories_fetched, histories_missing, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.Exec(ctx, query,
		run.ID, run.Race.ID, race, run.Preset, forecasts, picks,
		run.HistoriesFetched, run.HistoriesMissing, run.Duration.Milliseconds(), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save forecast run: %w", err)
	}

	return nil
}

// GetLatestByRace retrieves the most recent run for a race.
func (r *PostgresForecastRepository) GetLatestByRace(ctx context.Context, raceID string) (*models.ForecastRun, error) {
	query := `
		SELECT id, race, preset, forecasts, value_picks,
		       histories_fetched, histories_missing, duration_ms, created_at
		FROM forecast_runs
		WHERE race_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		run                    models.ForecastRun
		race, forecasts, picks []byte
		durationMS             int64
	)
	err := r.db.QueryRow(ctx, query, raceID).Scan(
		&run.ID, &race, &run.Preset, &forecasts, &picks,
		&run.HistoriesFetched, &run.HistoriesMissing, &durationMS, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast run: %w", err)
	}

	if err := json.Unmarshal(race, &run.Race); err != nil {
		return nil, fmt.Errorf(errScanForecast, err)
	}
	if err := json.Unmarshal(forecasts, &run.Forecasts); err != nil {
		return nil, fmt.Errorf(errScanForecast, err)
	}
	if len(picks) > 0 {
		if err := json.Unmarshal(picks, &run.ValuePicks); err != nil {
			return nil, fmt.Errorf(errScanForecast, err)
		}
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond

	return &run, nil
}

// DeleteOlderThan removes runs created before cutoff and returns how many were removed.
func (r *PostgresForecastRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM forecast_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete forecast runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nonNil(forecasts []models.Forecast) []models.Forecast {
	if forecasts == nil {
		return []models.Forecast{}
	}
	return forecasts
}
