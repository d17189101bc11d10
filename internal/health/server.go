// Package health serves probes, metrics and the latest forecast per watched race.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-forecast/internal/metrics"
	"github.com/yourusername/race-forecast/internal/models"
)

// DatabasePinger checks database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// SchedulerStatus reports on scheduled forecasts.
type SchedulerStatus interface {
	IsRunning() bool
	WatchedRaces() int
	GetNextRun() time.Time
}

// StatusResponse is served on /health and /live.
type StatusResponse struct {
	Status       string     `json:"status"`
	Service      string     `json:"service"`
	Version      string     `json:"version,omitempty"`
	Commit       string     `json:"commit,omitempty"`
	WatchedRaces int        `json:"watched_races"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	LastForecast *time.Time `json:"last_forecast,omitempty"`
}

// ReadyResponse is served on /ready.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks"`
	Duration string            `json:"duration"`
}

// RaceSummary is the latest forecast for one race.
type RaceSummary struct {
	RaceID         string    `json:"race_id"`
	RaceName       string    `json:"race_name"`
	Preset         string    `json:"preset"`
	Entrants       int       `json:"entrants"`
	Favourite      string    `json:"favourite,omitempty"`
	WinProbability float64   `json:"win_probability,omitempty"`
	ValuePicks     []string  `json:"value_picks,omitempty"`
	ForecastAt     time.Time `json:"forecast_at"`
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        int
	MetricsPath string
	Logger      *logrus.Logger
	DB          DatabasePinger
	Scheduler   SchedulerStatus
}

// Server exposes watch-mode state over HTTP.
type Server struct {
	cfg    Config
	server *http.Server

	mu        sync.RWMutex
	ready     bool
	latest    map[string]RaceSummary
	lastRunAt time.Time
}

// NewServer creates a server; it listens only once Start is called.
func NewServer(cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Server{cfg: cfg, latest: make(map[string]RaceSummary)}
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// RecordForecast keeps run as the latest forecast for its race.
func (s *Server) RecordForecast(run *models.ForecastRun) {
	if run == nil {
		return
	}

	summary := RaceSummary{
		RaceID:     run.Race.ID,
		RaceName:   run.Race.Name,
		Preset:     run.Preset,
		Entrants:   len(run.Forecasts),
		ForecastAt: run.CreatedAt,
	}
	if fav := run.Favourite(); fav != nil && fav.Entrant != nil {
		summary.Favourite = fav.Entrant.Name
		summary.WinProbability = fav.WinProbability
	}
	for _, pick := range run.ValuePicks {
		if pick.Entrant == nil {
			continue
		}
		summary.ValuePicks = append(summary.ValuePicks, pick.Entrant.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[summary.RaceID] = summary
	if run.CreatedAt.After(s.lastRunAt) {
		s.lastRunAt = run.CreatedAt
	}
}

// Latest returns the stored summaries ordered by race ID.
func (s *Server) Latest() []RaceSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RaceSummary, 0, len(s.latest))
	for _, summary := range s.latest {
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RaceID < out[j].RaceID })
	return out
}

// Handler returns the routes served by the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleStatus)
	mux.HandleFunc("/live", s.handleStatus)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/forecasts", s.handleForecasts)
	mux.Handle(s.cfg.MetricsPath, metrics.Handler())
	return mux
}

// Start serves in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.cfg.Logger.WithField("port", s.cfg.Port).Info("Health server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.cfg.Logger.WithError(err).Error("Health server error")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status:  "ok",
		Service: s.cfg.ServiceName,
		Version: s.cfg.Version,
		Commit:  s.cfg.Commit,
	}
	if sched := s.cfg.Scheduler; sched != nil {
		resp.WatchedRaces = sched.WatchedRaces()
		if next := sched.GetNextRun(); !next.IsZero() {
			resp.NextRun = &next
		}
	}

	s.mu.RLock()
	if !s.lastRunAt.IsZero() {
		last := s.lastRunAt
		resp.LastForecast = &last
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := map[string]string{"service": "ok"}
	healthy := true

	fail := func(name, msg string) {
		checks[name] = msg
		healthy = false
	}

	if !s.IsReady() {
		fail("service", "not_ready")
	}

	if sched := s.cfg.Scheduler; sched != nil {
		switch {
		case !sched.IsRunning():
			fail("scheduler", "stopped")
		case sched.WatchedRaces() == 0:
			fail("scheduler", "no races watched")
		default:
			checks["scheduler"] = fmt.Sprintf("ok: %d races", sched.WatchedRaces())
		}
	}

	if s.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.cfg.DB.Ping(ctx); err != nil {
			fail("database", fmt.Sprintf("error: %v", err))
		} else {
			checks["database"] = "ok"
		}
	}

	resp := ReadyResponse{
		Status:   "ok",
		Service:  s.cfg.ServiceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (s *Server) handleForecasts(w http.ResponseWriter, r *http.Request) {
	if raceID := r.URL.Query().Get("race_id"); raceID != "" {
		s.mu.RLock()
		summary, ok := s.latest[raceID]
		s.mu.RUnlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no forecast for race " + raceID})
			return
		}
		writeJSON(w, http.StatusOK, summary)
		return
	}
	writeJSON(w, http.StatusOK, s.Latest())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
