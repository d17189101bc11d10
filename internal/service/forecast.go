// Package service runs a race forecast end to end: fetch, extract, attach histories, score and rank.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/race-forecast/internal/datasource"
	"github.com/yourusername/race-forecast/internal/extract"
	"github.com/yourusername/race-forecast/internal/logger"
	"github.com/yourusername/race-forecast/internal/metrics"
	"github.com/yourusername/race-forecast/internal/models"
	"github.com/yourusername/race-forecast/internal/ranking"
	"github.com/yourusername/race-forecast/internal/repository"
	"github.com/yourusername/race-forecast/internal/scoring"
	"github.com/yourusername/race-forecast/internal/tracing"
)

// ErrEntryPageUnavailable means the race's entry page could not be fetched; the race is not forecast.
var ErrEntryPageUnavailable = errors.New("entry page unavailable")

const (
	defaultHistoryConcurrency = 4
	defaultValuePicks         = 3
)

// Option configures a ForecastService.
type Option func(*ForecastService)

// WithRepository persists every completed run.
func WithRepository(repo repository.ForecastRepository) Option {
	return func(s *ForecastService) {
		s.repo = repo
	}
}

// WithEngine replaces the default scoring engine.
func WithEngine(engine *scoring.Engine) Option {
	return func(s *ForecastService) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithHistoryConcurrency bounds parallel history fetches. Values below 1 are ignored.
func WithHistoryConcurrency(n int) Option {
	return func(s *ForecastService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithValuePicks sets how many value picks a run lists. Negative values are ignored.
func WithValuePicks(n int) Option {
	return func(s *ForecastService) {
		if n >= 0 {
			s.valuePicks = n
		}
	}
}

// WithExtractors replaces the entry and history extractors.
func WithExtractors(entries *extract.EntryExtractor, histories *extract.HistoryExtractor) Option {
	return func(s *ForecastService) {
		if entries != nil {
			s.entries = entries
		}
		if histories != nil {
			s.histories = histories
		}
	}
}

// ForecastService orchestrates a forecast of one race.
type ForecastService struct {
	source      datasource.Source
	entries     *extract.EntryExtractor
	histories   *extract.HistoryExtractor
	engine      *scoring.Engine
	validator   *DataValidator
	repo        repository.ForecastRepository
	logger      *logger.ForecastLogger
	concurrency int
	valuePicks  int
	now         func() time.Time
}

// NewForecastService creates a service reading pages from source.
func NewForecastService(source datasource.Source, log *logger.ForecastLogger, opts ...Option) *ForecastService {
	if log == nil {
		log = &logger.ForecastLogger{Entry: logger.Discard()}
	}

	s := &ForecastService{
		source:      source,
		entries:     extract.NewEntryExtractor(extract.WithEntryLogger(log.Entry)),
		histories:   extract.NewHistoryExtractor(extract.WithHistoryLogger(log.Entry)),
		engine:      scoring.NewEngine(),
		validator:   NewDataValidator(log.Entry),
		logger:      log,
		concurrency: defaultHistoryConcurrency,
		valuePicks:  defaultValuePicks,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForecastRace fetches the race's entry page and forecasts it.
func (s *ForecastService) ForecastRace(ctx context.Context, raceID string) (run *models.ForecastRun, err error) {
	start := s.now()
	ctx, seg := tracing.StartSegment(ctx, "ForecastRace")
	defer func() { tracing.End(seg, err) }()
	tracing.AddAnnotation(ctx, "race_id", raceID)

	doc, err := s.source.FetchEntryPage(ctx, raceID)
	if err != nil {
		err = fmt.Errorf("%w: race %s: %w", ErrEntryPageUnavailable, raceID, err)
		metrics.RecordForecast("unavailable", s.now().Sub(start).Seconds())
		s.logger.LogForecastFailed(raceID, err)
		return nil, err
	}

	return s.forecast(ctx, raceID, doc, start)
}

// ForecastDocuments forecasts a race from an entry page already in hand. History pages
// are still read from the service's source.
func (s *ForecastService) ForecastDocuments(ctx context.Context, raceID string, entryDoc []byte) (run *models.ForecastRun, err error) {
	ctx, seg := tracing.StartSegment(ctx, "ForecastDocuments")
	defer func() { tracing.End(seg, err) }()
	tracing.AddAnnotation(ctx, "race_id", raceID)

	return s.forecast(ctx, raceID, entryDoc, s.now())
}

func (s *ForecastService) forecast(ctx context.Context, raceID string, entryDoc []byte, start time.Time) (*models.ForecastRun, error) {
	race, field := s.entries.Extract(raceID, bytes.NewReader(entryDoc))
	metrics.RecordEntrants(len(field))
	s.logger.LogRaceExtracted(race.ID, race.Name, string(race.Venue), race.Distance, len(field))
	s.validator.Check(race, field)

	fetched, missing, err := s.attachHistories(ctx, race.ID, field)
	if err != nil {
		metrics.RecordForecast("cancelled", s.now().Sub(start).Seconds())
		s.logger.LogForecastFailed(race.ID, err)
		return nil, err
	}

	breakdowns := s.engine.ScoreField(race, field)
	scored := make([]ranking.Scored, len(field))
	for i := range field {
		scored[i] = ranking.Scored{Entrant: &field[i], Breakdown: breakdowns[i]}
	}
	forecasts := ranking.Rank(scored)

	run := &models.ForecastRun{
		ID:               uuid.New(),
		Race:             race,
		Preset:           s.engine.Preset(),
		Forecasts:        forecasts,
		ValuePicks:       ranking.TopByExpectedValue(forecasts, s.valuePicks),
		HistoriesFetched: fetched,
		HistoriesMissing: missing,
		CreatedAt:        s.now().UTC(),
	}
	run.Duration = s.now().Sub(start)

	if s.repo != nil {
		if err := s.repo.Save(ctx, run); err != nil {
			s.logger.WithError(err).WithField("race_id", race.ID).Warn("Failed to save forecast run")
		}
	}

	metrics.RecordForecast("ok", run.Duration.Seconds())
	favourite, probability := "", 0.0
	if f := run.Favourite(); f != nil {
		favourite, probability = f.Entrant.Name, f.WinProbability
		metrics.UpdateFavouriteProbability(race.ID, probability)
	}
	s.logger.LogForecastCompleted(race.ID, run.Preset, len(forecasts), favourite, probability, run.Duration)

	return run, nil
}

// attachHistories fetches every entrant's history in parallel and attaches it exactly once.
// A missing page leaves the entrant with an empty history.
func (s *ForecastService) attachHistories(ctx context.Context, raceID string, field []models.Entrant) (_ int, _ int, err error) {
	ctx, seg := tracing.StartSubsegment(ctx, "attach_histories")
	defer func() { tracing.End(seg, err) }()

	var fetched, missing atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range field {
		e := &field[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			runs, err := s.history(gctx, e.HorseID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				missing.Add(1)
				metrics.RecordHistory(false)
				s.logger.LogHistoryMissing(raceID, e.Number, e.HorseID, err)
			} else {
				fetched.Add(1)
				metrics.RecordHistory(true)
				s.logger.LogHistoryAttached(raceID, e.Number, e.HorseID, len(runs))
			}

			return e.AttachHistory(runs)
		})
	}

	if err := g.Wait(); err != nil {
		return int(fetched.Load()), int(missing.Load()), fmt.Errorf("attaching histories for race %s: %w", raceID, err)
	}
	return int(fetched.Load()), int(missing.Load()), nil
}

func (s *ForecastService) history(ctx context.Context, horseID string) ([]models.HistoricalRun, error) {
	if horseID == "" {
		return nil, datasource.NewDataSourceError(s.source.Name(), datasource.ErrCodeNotFound, "entrant has no horse id", nil)
	}
	page, err := s.source.FetchHistoryPage(ctx, horseID)
	if err != nil {
		return nil, err
	}
	return s.histories.Extract(bytes.NewReader(page)), nil
}
