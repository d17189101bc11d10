package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/race-forecast/internal/models"
)

// ForecastRepository defines the interface for forecast run storage
type ForecastRepository interface {
	Save(ctx context.Context, run *models.ForecastRun) error
	GetLatestByRace(ctx context.Context, raceID string) (*models.ForecastRun, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DBTX is the subset of pgxpool.Pool and pgx.Tx the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
