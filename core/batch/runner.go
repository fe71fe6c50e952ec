// Package batch runs many independent simulations on a fixed pool of
// workers.
package batch

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/evcorridor/core/car"
	"github.com/kilianp07/evcorridor/core/logger"
	"github.com/kilianp07/evcorridor/core/metrics"
	"github.com/kilianp07/evcorridor/core/monitoring"
	"github.com/kilianp07/evcorridor/core/simulation"
	"github.com/kilianp07/evcorridor/core/stats"
	"github.com/kilianp07/evcorridor/internal/eventbus"
)

// Unit is one simulation to run. Build is called on the worker that picks
// the unit, so every unit gets its own network and catalog.
type Unit struct {
	Name  string
	Build func() (*simulation.Simulation, error)
}

// Outcome is the result of one unit.
type Outcome struct {
	Name     string
	Result   simulation.Result
	Report   *stats.Report
	Err      error
	Duration time.Duration
}

// Exporter persists a finished simulation.
type Exporter interface {
	Export(sim *simulation.Simulation, rep stats.Report) error
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(sim *simulation.Simulation, rep stats.Report) error

// Export calls f.
func (f ExporterFunc) Export(sim *simulation.Simulation, rep stats.Report) error { return f(sim, rep) }

// Runner executes units on Workers goroutines. Only the work list is shared
// between workers; Exporter, Sink, Bus and Monitor must be safe for
// concurrent use.
type Runner struct {
	Workers  int
	Exporter Exporter
	Sink     metrics.MetricsSink
	Bus      *eventbus.Bus[metrics.ProgressEvent]
	// ProgressEvery publishes a progress event every n ticks; zero disables it.
	ProgressEvery int
	Monitor       monitoring.Monitor
	Log           logger.Logger
	// OnDone is called after each unit with the number of finished units.
	// Calls come from worker goroutines.
	OnDone func(o Outcome, done, total int)
}

type job struct {
	idx  int
	unit Unit
}

// Run executes every unit and waits for all workers. Outcomes are returned
// in unit order. A failing or panicking unit is recorded and the worker moves
// on to the next one.
func (r *Runner) Run(units []Unit) []Outcome {
	log := logger.OrNop(r.Log)
	sink := r.Sink
	if sink == nil {
		sink = metrics.NopSink{}
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	workers = min(workers, max(1, len(units)))

	jobs := make([]job, len(units))
	for i, u := range units {
		jobs[i] = job{idx: i, unit: u}
	}
	list := NewWorkList(jobs...)
	out := make([]Outcome, len(units))

	log.Infof("batch: %d simulations on %d workers", len(units), workers)
	start := time.Now()
	var finished atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				j, ok := list.Pop()
				if !ok {
					return
				}
				out[j.idx] = r.runOne(worker, j.unit, sink, log)
				n := finished.Add(1)
				if r.OnDone != nil {
					r.OnDone(out[j.idx], int(n), len(units))
				}
			}
		}(w)
	}
	wg.Wait()

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	if rec, ok := sink.(metrics.BatchRecorder); ok {
		ev := metrics.BatchEvent{Units: len(units), Failed: failed, Workers: workers, Duration: time.Since(start), Time: time.Now()}
		if err := rec.RecordBatch(ev); err != nil {
			log.Warnf("batch: record summary: %v", err)
		}
	}
	log.Infof("batch: finished %d simulations in %s, %d failed", len(units), time.Since(start).Round(time.Millisecond), failed)
	return out
}

func (r *Runner) runOne(worker int, u Unit, sink metrics.MetricsSink, log logger.Logger) (o Outcome) {
	o.Name = u.Name
	start := time.Now()
	var sim *simulation.Simulation
	defer func() {
		if v := recover(); v != nil {
			o.Err = &monitoring.PanicError{Value: v}
		}
		o.Duration = time.Since(start)
		if sim != nil {
			o.Result = sim.Result()
		}
		if o.Err != nil {
			log.Errorf("batch: worker %d: simulation %s failed: %v", worker, u.Name, o.Err)
			monitoring.OrNop(r.Monitor).CaptureException(o.Err, map[string]string{"simulation": u.Name})
		}
		r.record(sink, o, log)
	}()

	sim, err := u.Build()
	if err != nil {
		o.Err = fmt.Errorf("build %s: %w", u.Name, err)
		return o
	}
	log.Debugf("batch: worker %d: starting %s", worker, u.Name)
	if err := r.drive(sim); err != nil {
		o.Err = err
		return o
	}
	rep := stats.Summarize(sim)
	o.Report = &rep
	if r.Exporter != nil {
		if err := r.Exporter.Export(sim, rep); err != nil {
			o.Err = fmt.Errorf("export %s: %w", u.Name, err)
		}
	}
	return o
}

// drive steps sim to completion, publishing progress samples.
func (r *Runner) drive(sim *simulation.Simulation) error {
	for {
		done, err := sim.Step()
		if err != nil {
			return err
		}
		if r.Bus != nil && r.ProgressEvery > 0 && (done || sim.Ticks()%r.ProgressEvery == 0) {
			if snap, ok := sim.Snapshot(); ok {
				r.Bus.Publish(progressOf(sim.Name(), snap))
			}
		}
		if done {
			return nil
		}
	}
}

func progressOf(name string, snap simulation.Snapshot) metrics.ProgressEvent {
	inUse := 0
	for _, n := range snap.ChargersInUse {
		inUse += n
	}
	return metrics.ProgressEvent{
		Name:          name,
		Tick:          snap.Tick,
		ElapsedS:      snap.ElapsedS,
		Active:        snap.Active(),
		Waiting:       snap.States[car.Waiting],
		Charging:      snap.States[car.Charging],
		ChargersInUse: inUse,
		Time:          time.Now(),
	}
}

func (r *Runner) record(sink metrics.MetricsSink, o Outcome, log logger.Logger) {
	ev := metrics.SimulationEvent{
		Name:        o.Name,
		Seed:        o.Result.Seed,
		Ticks:       o.Result.Ticks,
		ElapsedS:    o.Result.ElapsedS,
		Injected:    o.Result.Injected,
		NotInjected: o.Result.NotInjected,
		Reached:     o.Result.Reached,
		Depleted:    o.Result.Depleted,
		Incomplete:  o.Result.Incomplete,
		Duration:    o.Duration,
		Time:        time.Now(),
	}
	if o.Report != nil {
		ev.MeanStateTimes = o.Report.MeanStateTimes()
	}
	if o.Err != nil {
		ev.Err = o.Err.Error()
	}
	if err := sink.RecordSimulation(ev); err != nil {
		log.Warnf("batch: record %s: %v", o.Name, err)
	}
}
