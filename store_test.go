package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"picks-dashboard/chart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

func testStore(t *testing.T) *store {
	t.Helper()

	db, err := openDB(filepath.Join(t.TempDir(), "picks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := newStore(db)
	s.now = func() time.Time { return testNow }
	return s
}

func nbaPayload() chart.Payload {
	return chart.Payload{
		Dates:        []string{"2024-01-01", "2024-01-02"},
		LockCounts:   []float64{3, 5},
		RockCounts:   []float64{1, 2},
		SuccessRates: []float64{75.0, 71.4},
	}
}

func TestStoreWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore(t)
	require.NoError(t, s.upsertDaily(ctx, "NBA", "test", nbaPayload()))

	p, err := s.window(ctx, "NBA", 14)
	require.NoError(t, err)
	assert.Equal(t, nbaPayload(), p)

	p, err = s.window(ctx, "NBA", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-02"}, p.Dates)
	assert.Equal(t, []float64{5}, p.LockCounts)
}

func TestStoreWindowEmpty(t *testing.T) {
	t.Parallel()

	p, err := testStore(t).window(context.Background(), "NHL", 14)
	require.NoError(t, err)
	assert.NotNil(t, p.Dates)
	assert.Empty(t, p.Dates)
	assert.True(t, p.Empty())
}

func TestStoreUpsertReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore(t)
	require.NoError(t, s.upsertDaily(ctx, "NBA", "first", nbaPayload()))

	again := chart.Payload{
		Dates:        []string{"2024-01-02"},
		LockCounts:   []float64{6},
		RockCounts:   []float64{2},
		SuccessRates: []float64{75},
	}
	require.NoError(t, s.upsertDaily(ctx, "NBA", "second", again))

	p, err := s.window(ctx, "NBA", 14)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, p.Dates)
	assert.Equal(t, []float64{3, 6}, p.LockCounts)

	var imports int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM imports`).Scan(&imports))
	assert.Equal(t, 2, imports)
}

func TestStoreUpsertRejects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore(t)

	for name, tc := range map[string]struct {
		sport   string
		payload chart.Payload
	}{
		"UnknownSport": {sport: "NFL", payload: nbaPayload()},
		"All":          {sport: sportAll, payload: nbaPayload()},
		"BadDay": {sport: "NBA", payload: chart.Payload{
			Dates: []string{"Jan 01"}, LockCounts: []float64{1}, RockCounts: []float64{1}, SuccessRates: []float64{50},
		}},
		"FractionalCount": {sport: "NBA", payload: chart.Payload{
			Dates: []string{"2024-01-01"}, LockCounts: []float64{1.5}, RockCounts: []float64{1}, SuccessRates: []float64{60},
		}},
		"LengthMismatch": {sport: "NBA", payload: chart.Payload{
			Dates: []string{"2024-01-01"}, LockCounts: []float64{}, RockCounts: []float64{1}, SuccessRates: []float64{50},
		}},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.upsertDaily(ctx, tc.sport, "test", tc.payload), errInvalidImport)
		})
	}

	p, err := s.window(ctx, "NBA", 14)
	require.NoError(t, err)
	assert.Empty(t, p.Dates)
}

func TestStoreWindowAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore(t)
	require.NoError(t, s.upsertDaily(ctx, "NBA", "test", nbaPayload()))
	require.NoError(t, s.upsertDaily(ctx, "NHL", "test", chart.Payload{
		Dates:        []string{"2024-01-02", "2024-01-03"},
		LockCounts:   []float64{1, 2},
		RockCounts:   []float64{1, 0},
		SuccessRates: []float64{50, 100},
	}))

	p, err := s.window(ctx, sportAll, 14)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, p.Dates)
	assert.Equal(t, []float64{3, 6, 2}, p.LockCounts)
	assert.Equal(t, []float64{1, 3, 0}, p.RockCounts)
	assert.Equal(t, []float64{75, 66.7, 100}, p.SuccessRates)
}

func TestStoreSummaries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore(t)
	require.NoError(t, s.upsertDaily(ctx, "NBA", "test", nbaPayload()))

	res, err := s.summaries(ctx)
	require.NoError(t, err)
	require.Len(t, res, len(sports))

	assert.Equal(t, "NBA", res[0].Sport)
	assert.Equal(t, int64(8), res[0].Locks)
	assert.Equal(t, int64(3), res[0].Rocks)
	assert.Equal(t, 72.7, res[0].SuccessRate)
	assert.True(t, testNow.Equal(res[0].Updated))

	for _, sum := range res[1:] {
		assert.Zero(t, sum.Total(), sum.Sport)
	}
	assert.Equal(t, "MarchMadness", res[3].Sport)
}

func TestStoreLastUpdated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore(t)

	ts, err := s.lastUpdated(ctx, sportAll)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	require.NoError(t, s.upsertDaily(ctx, "MLB", "test", nbaPayload()))

	ts, err = s.lastUpdated(ctx, "MLB")
	require.NoError(t, err)
	assert.True(t, testNow.Equal(ts))

	ts, err = s.lastUpdated(ctx, "NBA")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestSuccessRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, successRate(0, 0))
	assert.Equal(t, 100.0, successRate(4, 0))
	assert.Equal(t, 71.4, successRate(5, 2))
}
