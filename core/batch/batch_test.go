package batch

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evcorridor/core/metrics"
	"github.com/kilianp07/evcorridor/core/model"
	"github.com/kilianp07/evcorridor/core/route"
	"github.com/kilianp07/evcorridor/core/simulation"
	"github.com/kilianp07/evcorridor/core/station"
	"github.com/kilianp07/evcorridor/core/stats"
	"github.com/kilianp07/evcorridor/internal/eventbus"
)

type fakeData map[string]route.SegmentData

func (f fakeData) LoadSegment(id string) (route.SegmentData, error) {
	d, ok := f[id]
	if !ok {
		return route.SegmentData{}, fmt.Errorf("no segment %s", id)
	}
	return d, nil
}

func (f fakeData) TrafficWeight(id string) (float64, error) {
	if _, ok := f[id]; !ok {
		return 0, fmt.Errorf("no segment %s", id)
	}
	return 1, nil
}

func stationData(name string, pos float64) route.StationData {
	return route.StationData{
		Name:       name,
		PositionKm: pos,
		Amenities:  station.Amenities{HasFood: true},
		Chargers: []route.ChargerGroup{
			{PowerKW: 150, Type: model.CCS, Count: 2},
			{PowerKW: 50, Type: model.CHAdeMO, Count: 1},
			{PowerKW: 22, Type: model.Type2, Count: 2},
			{PowerKW: 250, Type: model.Tesla, Count: 2},
		},
	}
}

func testCorridor(t *testing.T) *route.Corridor {
	t.Helper()
	data := fakeData{
		"AB": {LengthKm: 150, Stations: []route.StationData{stationData("ab", 80)}},
		"BC": {LengthKm: 100, Stations: []route.StationData{stationData("bc", 40)}},
	}
	c, err := route.LoadCorridor([]route.SegmentSpec{{ID: "AB", Start: "A", End: "B"}, {ID: "BC", Start: "B", End: "C"}}, data, data)
	require.NoError(t, err)
	return c
}

func smallUnit(corridor *route.Corridor, name string, seed int64) Unit {
	return Unit{Name: name, Build: func() (*simulation.Simulation, error) {
		net, err := corridor.Build(1)
		if err != nil {
			return nil, err
		}
		return simulation.New(simulation.Config{
			Name:          name,
			CarCount:      10,
			MeanSeconds:   600,
			StdDevSeconds: 150,
			Seed:          seed,
		}, net, nil)
	}}
}

type countingSink struct {
	mu      sync.Mutex
	sims    []metrics.SimulationEvent
	batches int
}

func (c *countingSink) RecordSimulation(ev metrics.SimulationEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sims = append(c.sims, ev)
	return nil
}

func (c *countingSink) RecordBatch(metrics.BatchEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches++
	return nil
}

type recordingMonitor struct {
	mu   sync.Mutex
	errs []error
}

func (m *recordingMonitor) CaptureException(err error, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}

func (m *recordingMonitor) Flush(_ time.Duration) {}

func TestRunnerRunsEveryUnitOnce(t *testing.T) {
	corridor := testCorridor(t)
	var units []Unit
	for i := 0; i < 17; i++ {
		units = append(units, smallUnit(corridor, fmt.Sprintf("u%02d", i), int64(i)))
	}

	var mu sync.Mutex
	exported := make(map[string]int)
	var dones []int
	sink := &countingSink{}
	r := &Runner{
		Workers: 4,
		Sink:    sink,
		OnDone: func(_ Outcome, done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 17, total)
			dones = append(dones, done)
		},
		Exporter: ExporterFunc(func(sim *simulation.Simulation, rep stats.Report) error {
			mu.Lock()
			defer mu.Unlock()
			exported[sim.Name()]++
			return nil
		}),
	}
	out := r.Run(units)

	require.Len(t, out, 17)
	for i, o := range out {
		assert.Equal(t, units[i].Name, o.Name)
		assert.NoError(t, o.Err)
		assert.False(t, o.Result.Incomplete)
		assert.NotNil(t, o.Report)
		assert.Equal(t, 1, exported[o.Name])
	}
	assert.Len(t, exported, 17)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17}, dones)
	assert.Len(t, sink.sims, 17)
	assert.Equal(t, 1, sink.batches)
}

func TestRunnerSurvivesFailures(t *testing.T) {
	corridor := testCorridor(t)
	mon := &recordingMonitor{}
	sink := &countingSink{}
	units := []Unit{
		smallUnit(corridor, "ok-1", 1),
		{Name: "broken", Build: func() (*simulation.Simulation, error) { return nil, errors.New("no data") }},
		{Name: "panics", Build: func() (*simulation.Simulation, error) { panic("bad unit") }},
		smallUnit(corridor, "ok-2", 2),
	}
	out := (&Runner{Workers: 2, Sink: sink, Monitor: mon}).Run(units)

	require.Len(t, out, 4)
	assert.NoError(t, out[0].Err)
	assert.ErrorContains(t, out[1].Err, "no data")
	assert.ErrorContains(t, out[2].Err, "bad unit")
	assert.NoError(t, out[3].Err)
	assert.Len(t, mon.errs, 2)

	failed := 0
	for _, ev := range sink.sims {
		if ev.Failed() {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
}

func TestRunnerExportErrorFailsUnit(t *testing.T) {
	corridor := testCorridor(t)
	out := (&Runner{
		Workers:  1,
		Exporter: ExporterFunc(func(*simulation.Simulation, stats.Report) error { return errors.New("disk full") }),
	}).Run([]Unit{smallUnit(corridor, "one", 3)})
	require.Len(t, out, 1)
	assert.ErrorContains(t, out[0].Err, "disk full")
	assert.Greater(t, out[0].Result.Ticks, 0)
}

func TestRunnerPublishesProgress(t *testing.T) {
	corridor := testCorridor(t)
	bus := eventbus.NewWithBuffer[metrics.ProgressEvent](4096)
	ch := bus.Subscribe()
	out := (&Runner{Workers: 1, Bus: bus, ProgressEvery: 10}).Run([]Unit{smallUnit(corridor, "one", 4)})
	require.NoError(t, out[0].Err)
	bus.Close()

	var last metrics.ProgressEvent
	n := 0
	for ev := range ch {
		assert.Equal(t, "one", ev.Name)
		last = ev
		n++
	}
	assert.Greater(t, n, 1)
	assert.Equal(t, out[0].Result.Ticks, last.Tick)
	assert.Zero(t, last.Active)
}

func TestRangeValues(t *testing.T) {
	assert.Equal(t, []float64{100, 110, 120}, Range{From: 100, To: 120, Step: 10}.Values())
	assert.Equal(t, []float64{5}, Single(5).Values())
	assert.Equal(t, []float64{1}, Range{From: 1, To: 3}.Values())
	assert.Len(t, Range{From: 100, To: 200, Step: 10}.Values(), 11)
}

func TestSweepPoints(t *testing.T) {
	s := Sweep{
		Cars:          Range{From: 10, To: 20, Step: 10},
		StdDevSeconds: Single(21600),
		PowerPct:      Single(100),
		ChargerPct:    Range{From: 100, To: 150, Step: 50},
		EfficiencyPct: Single(120),
		Repeat:        2,
		Winter:        []bool{false, true},
		Seed:          42,
	}
	pts := s.Points()
	require.Len(t, pts, 2*2*2*2)
	assert.Equal(t, "r0-c10-s21600-p100-e120-a100-s", pts[0].Name())
	assert.Equal(t, "r0-c10-s21600-p100-e120-a100-w", pts[1].Name())
	assert.Equal(t, "r0-c10-s21600-p100-e120-a150-s", pts[2].Name())

	names := make(map[string]bool)
	for _, p := range pts {
		assert.False(t, names[p.Name()], "duplicate %s", p.Name())
		names[p.Name()] = true
	}
	again := s.Points()
	assert.Equal(t, pts, again)
}

func TestPlanBuildsIndependentUnits(t *testing.T) {
	corridor := testCorridor(t)
	s := Sweep{
		Cars:          Single(5),
		StdDevSeconds: Single(100),
		PowerPct:      Single(100),
		ChargerPct:    Range{From: 100, To: 200, Step: 100},
		EfficiencyPct: Single(100),
		Repeat:        1,
		Winter:        []bool{true},
		Seed:          1,
	}
	units, err := Plan(s, simulation.Config{}, corridor, model.DefaultCatalog(), nil)
	require.NoError(t, err)
	require.Len(t, units, 2)

	a, err := units[0].Build()
	require.NoError(t, err)
	b, err := units[1].Build()
	require.NoError(t, err)
	assert.Equal(t, units[0].Name, a.Name())
	assert.Equal(t, 400.0, a.Config().MeanSeconds)
	assert.Equal(t, 5, a.Pending())

	chargers := func(sim *simulation.Simulation) int {
		return len(sim.Network().Segments()[0].Stations(false)[0].Chargers())
	}
	assert.Equal(t, 7, chargers(a))
	assert.Equal(t, 14, chargers(b))

	tesla, _ := model.DefaultCatalog().Lookup("Tesla Model 3")
	winter, ok := a.Config().Catalog.Lookup("Tesla Model 3")
	require.True(t, ok)
	assert.InDelta(t, tesla.MaxDC*WinterChargeCoeff, winter.MaxDC, 1e-9)
	assert.InDelta(t, tesla.Efficiency/WinterDriveCoeff, winter.Efficiency, 1e-9)
}

func TestSweepSetDefaults(t *testing.T) {
	s := Sweep{ChargerPct: Range{From: 50, To: 150, Step: 50}}
	s.SetDefaults()
	require.NoError(t, s.Validate())
	assert.Equal(t, Single(1000), s.Cars)
	assert.Equal(t, Range{From: 50, To: 150, Step: 50}, s.ChargerPct)
	assert.Equal(t, 1, s.Repeat)
	assert.Equal(t, []bool{false}, s.Winter)
	assert.Len(t, s.Points(), 3)
}

func TestSweepValidate(t *testing.T) {
	s := DefaultSweep()
	require.NoError(t, s.Validate())
	s.Repeat = 0
	assert.Error(t, s.Validate())
	s = DefaultSweep()
	s.PowerPct = Single(0)
	assert.Error(t, s.Validate())
	s = DefaultSweep()
	s.Winter = nil
	assert.Error(t, s.Validate())
}
