package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/race-forecast/internal/config"
)

// TestDSNEnv names the variable holding the integration test database settings.
const TestDSNEnv = "RACE_FORECAST_TEST_DATABASE_HOST"

// SetupTestDB connects to the integration test database, skipping the test when none is configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv(TestDSNEnv)
	if host == "" {
		t.Skipf("Integration test - set %s to run", TestDSNEnv)
	}

	cfg := &config.Config{Database: config.DatabaseConfig{
		Enabled:        true,
		Host:           host,
		Port:           5432,
		Name:           envOr("RACE_FORECAST_TEST_DATABASE_NAME", "race_forecast_test"),
		User:           envOr("RACE_FORECAST_TEST_DATABASE_USER", "postgres"),
		Password:       os.Getenv("RACE_FORECAST_TEST_DATABASE_PASSWORD"),
		SSLMode:        "disable",
		MaxConnections: 2,
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Initialize(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	t.Cleanup(db.Close)

	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
