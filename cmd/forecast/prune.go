package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/race-forecast/internal/database"
	"github.com/yourusername/race-forecast/internal/repository"
)

var pruneOlderThan time.Duration

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "Delete stored forecasts created before this age")
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old stored forecast runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cfg.Database.Enabled {
			return fmt.Errorf("database persistence is disabled")
		}
		if pruneOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		ctx := cmd.Context()
		db, err := database.Initialize(ctx, cfg, logrus.NewEntry(log))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repos, err := repository.NewRepositories(db)
		if err != nil {
			return err
		}

		cutoff := time.Now().Add(-pruneOlderThan)
		removed, err := repos.Forecast.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{"removed": removed, "cutoff": cutoff.Format(time.RFC3339)}).Info("Pruned forecast runs")
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d forecast runs\n", removed)
		return nil
	},
}
