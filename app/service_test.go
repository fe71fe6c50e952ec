package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evcorridor/config"
	"github.com/kilianp07/evcorridor/core/batch"
	"github.com/kilianp07/evcorridor/core/factory"
	"github.com/kilianp07/evcorridor/infra/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Simulation.CarCount = 10
	cfg.Simulation.StdDevSeconds = 300
	cfg.Sweep = batch.Sweep{
		Cars:          batch.Single(15),
		StdDevSeconds: batch.Single(300),
		ChargerPct:    batch.Range{From: 100, To: 200, Step: 100},
		Seed:          7,
	}
	cfg.Batch.Workers = 2
	cfg.Batch.OutputDir = t.TempDir()
	cfg.Logging.Level = "warn"
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunBatchExportsAndRecords(t *testing.T) {
	cfg := testConfig(t)
	cfg.Batch.Formats = []string{"csv", "json"}
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "sqlite", Conf: map[string]any{"path": dbPath}}}

	svc, err := New(cfg)
	require.NoError(t, err)
	var calls atomic.Int32
	out, err := svc.RunBatch(context.Background(), func(_ batch.Outcome, done, total int) {
		calls.Add(1)
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	require.Len(t, out, 2)
	assert.EqualValues(t, 2, calls.Load())
	for _, o := range out {
		require.NoError(t, o.Err)
		assert.False(t, o.Result.Incomplete)
		assert.Equal(t, 15, o.Result.Injected)
		for _, suffix := range []string{"statistics.csv", "car_model_statistics.csv", "car_statistics.csv", "timeseries.csv", "report.json"} {
			_, err := os.Stat(filepath.Join(cfg.Batch.OutputDir, o.Name+"-"+suffix))
			assert.NoError(t, err, suffix)
		}
	}

	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer st.Close()
	sims, err := st.Simulations()
	require.NoError(t, err)
	assert.Len(t, sims, 2)
	batches, err := st.Batches()
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 2, batches[0].Units)
	progress, err := st.Progress(out[0].Name)
	require.NoError(t, err)
	assert.NotEmpty(t, progress)
}

func TestSimulateRunsOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Batch.Formats = []string{}
	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()

	rep, err := svc.Simulate(context.Background(), SimulateOptions{})
	require.NoError(t, err)
	r := rep.Result
	assert.Equal(t, "simulation", r.Name)
	assert.Equal(t, 10, r.Injected)
	assert.Equal(t, r.Injected, r.Reached+r.Depleted)
	assert.NotEmpty(t, rep.States)
}

func TestSimulateStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Batch.Formats = []string{}
	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Simulate(ctx, SimulateOptions{TPS: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFailsWithoutRoadData(t *testing.T) {
	cfg := testConfig(t)
	cfg.Network.DataDir = t.TempDir()
	_, err := New(cfg)
	assert.ErrorContains(t, err, "road data")
}

func TestNewLoadsCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`types:
  - name: Test EV
    population: 1
    capacity_kwh: 60
    efficiency_kwh_per_100km: 18
    max_ac_kw: 11
    max_dc_kw: 100
    connectors: [Type2, CCS]
`), 0o600))
	cfg := testConfig(t)
	cfg.CatalogFile = path
	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()
	require.Equal(t, 1, svc.Catalog().Len())
	assert.Equal(t, "Test EV", svc.Catalog().At(0).Name)
}
