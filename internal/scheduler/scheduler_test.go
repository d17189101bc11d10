package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yourusername/race-forecast/internal/logger"
	"github.com/yourusername/race-forecast/internal/models"
)

type fakeForecaster struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeForecaster) ForecastRace(_ context.Context, raceID string) (*models.ForecastRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, raceID)
	if f.err != nil {
		return nil, f.err
	}
	return &models.ForecastRun{Race: models.NewRaceInfo(raceID)}, nil
}

func (f *fakeForecaster) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestWatchRace(t *testing.T) {
	s := NewScheduler(&fakeForecaster{}, logger.Discard())

	_, err := s.WatchRace("*/5 * * * *", "202505021211")
	require.NoError(t, err)
	assert.Equal(t, 1, s.WatchedRaces())

	_, err = s.WatchRace("@every 1m", "202505021211")
	assert.ErrorIs(t, err, ErrAlreadyWatched)

	_, err = s.WatchRace("not a schedule", "202505021212")
	assert.Error(t, err)
	assert.Equal(t, 1, s.WatchedRaces())

	assert.True(t, s.UnwatchRace("202505021211"))
	assert.False(t, s.UnwatchRace("202505021211"))
	assert.Equal(t, 0, s.WatchedRaces())
}

func TestStartRequiresRaces(t *testing.T) {
	s := NewScheduler(&fakeForecaster{}, logger.Discard())
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop())
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	s := NewScheduler(&fakeForecaster{}, logger.Discard(), WithLocation(tokyo))
	_, err = s.WatchRace("0 15 * * 0", "202505021211")
	require.NoError(t, err)

	assert.True(t, s.GetNextRun().IsZero(), "no next run before start")
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	next := s.GetNextRun().In(tokyo)
	assert.Equal(t, time.Sunday, next.Weekday())
	assert.Equal(t, 15, next.Hour())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestRunJob(t *testing.T) {
	forecaster := &fakeForecaster{}
	var got []*models.ForecastRun
	s := NewScheduler(forecaster, logger.Discard(), WithResultHandler(func(run *models.ForecastRun) {
		got = append(got, run)
	}))

	s.runJob("202505021211")
	require.Len(t, got, 1)
	assert.Equal(t, "202505021211", got[0].Race.ID)

	forecaster.err = errors.New("entry page unavailable")
	s.runJob("202505021211")
	assert.Len(t, got, 1, "failed runs are not reported")
	assert.Equal(t, 2, forecaster.callCount())
}

func TestScheduledForecastRuns(t *testing.T) {
	defer goleak.VerifyNone(t)

	forecaster := &fakeForecaster{}
	s := NewScheduler(forecaster, logger.Discard(), WithJobTimeout(time.Second))
	_, err := s.WatchRace("@every 1s", "202505021211")
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return forecaster.callCount() > 0 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop())
}
