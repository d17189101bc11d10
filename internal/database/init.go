package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-forecast/internal/config"
)

// Schema creates the forecast run table when it does not exist yet.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS forecast_runs (
		id                UUID PRIMARY KEY,
		race_id           TEXT NOT NULL,
		race              JSONB NOT NULL,
		preset            TEXT NOT NULL,
		forecasts         JSONB NOT NULL,
		value_picks       JSONB NOT NULL DEFAULT '[]',
		histories_fetched INTEGER NOT NULL DEFAULT 0,
		histories_missing INTEGER NOT NULL DEFAULT 0,
		duration_ms       BIGINT NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS forecast_runs_race_created_idx ON forecast_runs (race_id, created_at DESC)`,
}

// Initialize creates a database connection pool and applies the schema.
func Initialize(ctx context.Context, cfg *config.Config, logger *logrus.Entry) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	err = db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, stmt := range Schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}
