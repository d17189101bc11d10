// Package database manages the PostgreSQL connection pool used to persist forecast runs.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-forecast/internal/config"
)

// DB wraps the pgxpool.Pool to provide database operations
type DB struct {
	pool *pgxpool.Pool
}

// PoolConfig builds the pool configuration from the database settings.
// Statements are traced to logger at warn level and above; a nil logger disables tracing.
func PoolConfig(cfg *config.DatabaseConfig, logger *logrus.Entry) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// One writer per forecast run is plenty; keep the pool small by default.
	poolConfig.MaxConns = 4
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	if logger != nil {
		poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   pgxLogger{entry: logger.WithField("component", "database")},
			LogLevel: tracelog.LogLevelWarn,
		}
	}

	return poolConfig, nil
}

// NewDB opens the pool and verifies connectivity.
func NewDB(ctx context.Context, cfg *config.DatabaseConfig, logger *logrus.Entry) (*DB, error) {
	poolConfig, err := PoolConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database %s@%s: %w", cfg.Name, cfg.Host, err)
	}

	return &DB{pool: pool}, nil
}

// Ping verifies database connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// WithTransaction runs fn in a transaction, rolling back if it returns an error.
func (db *DB) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %w", err, rollbackErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPool returns the underlying connection pool for repositories.
func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}

// pgxLogger adapts logrus to pgx's tracelog.Logger.
type pgxLogger struct {
	entry *logrus.Entry
}

func (l pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	entry := l.entry.WithFields(logrus.Fields(data))
	switch level {
	case tracelog.LogLevelError:
		entry.Error(msg)
	case tracelog.LogLevelWarn:
		entry.Warn(msg)
	case tracelog.LogLevelInfo:
		entry.Info(msg)
	default:
		entry.Debug(msg)
	}
}
