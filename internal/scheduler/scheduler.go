// Package scheduler re-forecasts watched races on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-forecast/internal/metrics"
	"github.com/yourusername/race-forecast/internal/models"
)

// ErrAlreadyWatched is returned when a race already has a schedule.
var ErrAlreadyWatched = errors.New("race already watched")

// Forecaster produces a forecast for one race.
type Forecaster interface {
	ForecastRace(ctx context.Context, raceID string) (*models.ForecastRun, error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation evaluates cron expressions in loc.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithJobTimeout bounds a single scheduled forecast.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithResultHandler is called after every successful scheduled forecast.
func WithResultHandler(fn func(*models.ForecastRun)) Option {
	return func(s *Scheduler) {
		s.onResult = fn
	}
}

// Scheduler manages scheduled re-forecast jobs
type Scheduler struct {
	cron            *cron.Cron
	forecaster      Forecaster
	logger          *logrus.Entry
	location        *time.Location
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	onResult        func(*models.ForecastRun)

	mu        sync.RWMutex
	isRunning bool
	jobs      map[string]cron.EntryID
}

// NewScheduler creates a new scheduler
func NewScheduler(forecaster Forecaster, logger *logrus.Entry, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Scheduler{
		forecaster:      forecaster,
		logger:          logger.WithField("component", "scheduler"),
		location:        time.UTC,
		jobTimeout:      2 * time.Minute,
		gracefulTimeout: 30 * time.Second,
		jobs:            make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}

	cronLogger := cronLogger{entry: s.logger}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	return s
}

// WatchRace schedules raceID to be re-forecast on cronExpression.
// Races can be watched before or after Start.
func (s *Scheduler) WatchRace(cronExpression, raceID string) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[raceID]; ok {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyWatched, raceID)
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() { s.runJob(raceID) })
	if err != nil {
		return 0, fmt.Errorf("failed to add job: %w", err)
	}

	s.jobs[raceID] = entryID
	metrics.UpdateWatchedRaces(len(s.jobs))
	s.logger.WithFields(logrus.Fields{
		"race_id":  raceID,
		"schedule": cronExpression,
	}).Info("Watching race")

	return entryID, nil
}

// UnwatchRace removes a race's schedule. It reports whether the race was watched.
func (s *Scheduler) UnwatchRace(raceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.jobs[raceID]
	if !ok {
		return false
	}
	s.cron.Remove(entryID)
	delete(s.jobs, raceID)
	metrics.UpdateWatchedRaces(len(s.jobs))
	s.logger.WithField("race_id", raceID).Info("Stopped watching race")
	return true
}

func (s *Scheduler) runJob(raceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	run, err := s.forecaster.ForecastRace(ctx, raceID)
	if err != nil {
		metrics.RecordScheduledRun("error")
		s.logger.WithError(err).WithField("race_id", raceID).Error("Scheduled forecast failed")
		return
	}

	metrics.RecordScheduledRun("ok")
	s.logger.WithFields(logrus.Fields{
		"race_id":     raceID,
		"entrants":    len(run.Forecasts),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Scheduled forecast completed")

	if s.onResult != nil {
		s.onResult(run)
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobs) == 0 {
		return fmt.Errorf("no races watched")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("races", len(s.jobs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler, waiting up to the graceful timeout for running forecasts.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %v", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// WatchedRaces returns the number of watched races.
func (s *Scheduler) WatchedRaces() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// GetNextRun returns the time of the next scheduled forecast
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}

	return nextRun
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) fields(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).WithError(err).Error(msg)
}
