package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-forecast/internal/models"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

// fakeDB stores the last inserted run and serves it back.
type fakeDB struct {
	execSQL  []string
	lastArgs []any
	execErr  error
	rowErr   error
	tag      pgconn.CommandTag
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if len(args) == 10 {
		f.lastArgs = args
	}
	return f.tag, nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if f.rowErr != nil {
		return fakeRow{err: f.rowErr}
	}
	if f.lastArgs == nil || f.lastArgs[1] != args[0] {
		return fakeRow{err: pgx.ErrNoRows}
	}
	a := f.lastArgs
	return fakeRow{values: []any{a[0], a[2], a[3], a[4], a[5], a[6], a[7], a[8], a[9]}}
}

func sampleRun() *models.ForecastRun {
	race := models.NewRaceInfo("202505021211")
	race.Name = "東京優駿"
	race.Venue = models.VenueTokyo
	race.Distance = 2400

	e := models.NewEntrant()
	e.Number = 3
	e.Name = "クロワデュノール"
	e.Odds = 2.1

	f := models.Forecast{Entrant: &e, NormalizedScore: 1, WinProbability: 0.42, Rank: 1, ExpectedValue: 0.882}
	return &models.ForecastRun{
		Race:             race,
		Preset:           "standard",
		Forecasts:        []models.Forecast{f},
		HistoriesFetched: 1,
		Duration:         1500 * time.Millisecond,
	}
}

func TestForecastRepositorySaveAndGetLatest(t *testing.T) {
	db := &fakeDB{}
	repo := NewPostgresForecastRepository(db)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, repo.Save(ctx, run))
	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], "INSERT INTO forecast_runs")

	got, err := repo.GetLatestByRace(ctx, "202505021211")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Race, got.Race)
	assert.Equal(t, "standard", got.Preset)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, 1, got.HistoriesFetched)
	assert.Empty(t, got.ValuePicks)

	require.Len(t, got.Forecasts, 1)
	assert.Equal(t, "クロワデュノール", got.Forecasts[0].Entrant.Name)
	assert.Equal(t, 0.42, got.Forecasts[0].WinProbability)
	assert.Equal(t, 1, got.Forecasts[0].Rank)
}

func TestForecastRepositoryKeepsGivenID(t *testing.T) {
	db := &fakeDB{}
	run := sampleRun()
	id := uuid.New()
	run.ID = id

	require.NoError(t, NewPostgresForecastRepository(db).Save(context.Background(), run))
	assert.Equal(t, id, db.lastArgs[0])
	assert.Equal(t, []byte(`[]`), db.lastArgs[5], "nil value picks stored as an empty array")
}

func TestForecastRepositoryNotFound(t *testing.T) {
	_, err := NewPostgresForecastRepository(&fakeDB{}).GetLatestByRace(context.Background(), "202505021211")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestForecastRepositoryErrors(t *testing.T) {
	boom := errors.New("connection reset")

	err := NewPostgresForecastRepository(&fakeDB{execErr: boom}).Save(context.Background(), sampleRun())
	assert.ErrorIs(t, err, boom)

	_, err = NewPostgresForecastRepository(&fakeDB{rowErr: boom}).GetLatestByRace(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, models.ErrNotFound))
}

func TestForecastRepositoryDeleteOlderThan(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("DELETE 3")}
	n, err := NewPostgresForecastRepository(db).DeleteOlderThan(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Contains(t, db.execSQL[0], "DELETE FROM forecast_runs")
}
