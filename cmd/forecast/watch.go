package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/race-forecast/internal/health"
	"github.com/yourusername/race-forecast/internal/models"
	"github.com/yourusername/race-forecast/internal/scheduler"
)

var watchSchedule string

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "Cron expression overriding watch.schedule")
}

var watchCmd = &cobra.Command{
	Use:   "watch [race-id...]",
	Short: "Re-forecast races on a schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		raceIDs := args
		if len(raceIDs) == 0 {
			raceIDs = cfg.Watch.RaceIDs
		}
		if len(raceIDs) == 0 {
			return fmt.Errorf("no races to watch: pass race IDs or set watch.race_ids")
		}
		schedule := cfg.Watch.Schedule
		if watchSchedule != "" {
			schedule = watchSchedule
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, cleanup, err := buildService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		var server *health.Server
		out := cmd.OutOrStdout()
		sched := scheduler.NewScheduler(svc, logrus.NewEntry(log),
			scheduler.WithLocation(cfg.Location()),
			scheduler.WithResultHandler(func(run *models.ForecastRun) {
				if server != nil {
					server.RecordForecast(run)
				}
				if err := render(out, run, formatText, 0); err != nil {
					log.WithError(err).Error("Failed to print forecast")
				}
			}),
		)
		for _, raceID := range raceIDs {
			if _, err := sched.WatchRace(schedule, raceID); err != nil {
				return err
			}
		}

		if cfg.Metrics.Enabled {
			hc := health.Config{
				ServiceName: cfg.App.Name,
				Version:     Version,
				Commit:      GitCommit,
				Port:        cfg.Metrics.Port,
				MetricsPath: cfg.Metrics.Path,
				Logger:      log,
				Scheduler:   sched,
			}
			if forecastDB != nil {
				hc.DB = forecastDB
			}
			server = health.NewServer(hc)
			if err := server.Start(ctx); err != nil {
				return err
			}
		}

		if err := sched.Start(); err != nil {
			return err
		}
		if server != nil {
			server.SetReady(true)
		}
		log.WithFields(logrus.Fields{
			"races":    len(raceIDs),
			"schedule": schedule,
			"next_run": sched.GetNextRun(),
		}).Info("Watching races")

		<-ctx.Done()
		log.Info("Shutdown signal received")
		return sched.Stop()
	},
}
