package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/evcorridor/core/metrics"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreSimulationUpsert(t *testing.T) {
	s := newStore(t)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := coremetrics.SimulationEvent{
		Name: "r0-c10", Seed: 7, Ticks: 500, ElapsedS: 5000, Injected: 10, Reached: 9, Depleted: 1,
		MeanStateTimes: map[string]float64{"OnHighway": 3600, "Charging": 900},
		Duration:       1500 * time.Millisecond, Time: at,
	}
	require.NoError(t, s.RecordSimulation(ev))

	got, err := s.Simulation("r0-c10")
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	ev.Reached, ev.Depleted = 10, 0
	ev.Incomplete = true
	ev.Err = "boom"
	ev.MeanStateTimes = map[string]float64{"OnHighway": 100}
	require.NoError(t, s.RecordSimulation(ev))
	got, err = s.Simulation("r0-c10")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Reached)
	assert.True(t, got.Incomplete)
	assert.True(t, got.Failed())
	assert.Equal(t, map[string]float64{"OnHighway": 100}, got.MeanStateTimes)

	all, err := s.Simulations()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStoreNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.Simulation("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreProgressAndBatches(t *testing.T) {
	s := newStore(t)
	for tick := 30; tick >= 10; tick -= 10 {
		require.NoError(t, s.RecordProgress(coremetrics.ProgressEvent{Name: "a", Tick: tick, Active: tick / 10}))
	}
	require.NoError(t, s.RecordProgress(coremetrics.ProgressEvent{Name: "a", Tick: 20, Active: 9}))
	require.NoError(t, s.RecordProgress(coremetrics.ProgressEvent{Name: "b", Tick: 10}))

	prog, err := s.Progress("a")
	require.NoError(t, err)
	require.Len(t, prog, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{prog[0].Tick, prog[1].Tick, prog[2].Tick})
	assert.Equal(t, 9, prog[1].Active)

	require.NoError(t, s.RecordBatch(coremetrics.BatchEvent{Units: 4, Failed: 1, Workers: 2, Duration: time.Second}))
	require.NoError(t, s.RecordBatch(coremetrics.BatchEvent{Units: 2}))
	batches, err := s.Batches()
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, 4, batches[0].Units)
	assert.Equal(t, time.Second, batches[0].Duration)
}

func TestNewSQLiteStoreEmptyPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}
