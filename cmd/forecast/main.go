package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/race-forecast/internal/config"
	"github.com/yourusername/race-forecast/internal/database"
	"github.com/yourusername/race-forecast/internal/datasource"
	"github.com/yourusername/race-forecast/internal/logger"
	"github.com/yourusername/race-forecast/internal/metrics"
	"github.com/yourusername/race-forecast/internal/repository"
	"github.com/yourusername/race-forecast/internal/scoring"
	"github.com/yourusername/race-forecast/internal/service"
	"github.com/yourusername/race-forecast/internal/tracing"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	logLevel   string
	preset     string

	cfg *config.Config
	log *logrus.Logger

	// forecastDB is set by buildService when persistence is enabled.
	forecastDB *database.DB
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "Override the scoring weight preset")

	rootCmd.AddCommand(predictCmd, parseCmd, watchCmd, pruneCmd)
}

var rootCmd = &cobra.Command{
	Use:     "forecast",
	Short:   "Forecast Japanese horse races from entry and history pages",
	Long:    `Extracts race entries and past results, scores every entrant on eight factors and ranks the field by win probability.`,
	Version: fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		log.SetOutput(os.Stderr)
		if cfg.Metrics.Enabled {
			metrics.InitRegistry()
		}
		if cfg.Tracing.ServiceVersion == "" {
			cfg.Tracing.ServiceVersion = Version
		}
		if err := tracing.Initialize(cfg.Tracing, log); err != nil {
			log.WithError(err).Warn("Tracing disabled")
		}
		return nil
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}
	if preset != "" {
		cfg.Scoring.Preset = preset
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if cfg.Secrets.SecretName != "" {
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

// buildService wires the data source, scoring engine and optional persistence.
// The returned cleanup releases the database pool.
func buildService(ctx context.Context) (*service.ForecastService, func(), error) {
	entry := logrus.NewEntry(log)

	source, err := datasource.NewFactory(cfg.Scraper, entry).Create()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create data source: %w", err)
	}

	opts := []service.Option{
		service.WithEngine(scoring.NewEngine(scoring.WithPreset(cfg.Scoring.Preset))),
		service.WithHistoryConcurrency(cfg.Scraper.HistoryConcurrency),
		service.WithValuePicks(cfg.Scoring.ValuePicks),
	}

	cleanup := func() {}
	if cfg.Database.Enabled {
		db, err := database.Initialize(ctx, cfg, entry)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repos, err := repository.NewRepositories(db)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to initialize repositories: %w", err)
		}
		opts = append(opts, service.WithRepository(repos.Forecast))
		forecastDB = db
		cleanup = db.Close
	}

	return service.NewForecastService(source, logger.NewForecastLogger(log), opts...), cleanup, nil
}
