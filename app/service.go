// Package app wires configuration, data, sinks and the batch runner.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kilianp07/evcorridor/api/snapshot"
	"github.com/kilianp07/evcorridor/config"
	"github.com/kilianp07/evcorridor/core/batch"
	coremetrics "github.com/kilianp07/evcorridor/core/metrics"
	"github.com/kilianp07/evcorridor/core/model"
	coremon "github.com/kilianp07/evcorridor/core/monitoring"
	"github.com/kilianp07/evcorridor/core/route"
	"github.com/kilianp07/evcorridor/core/simulation"
	"github.com/kilianp07/evcorridor/core/stats"
	"github.com/kilianp07/evcorridor/data"
	"github.com/kilianp07/evcorridor/infra/loader"
	"github.com/kilianp07/evcorridor/infra/logger"
	"github.com/kilianp07/evcorridor/infra/metrics"
	"github.com/kilianp07/evcorridor/infra/monitoring"
	"github.com/kilianp07/evcorridor/internal/eventbus"
	"github.com/kilianp07/evcorridor/pkg/export"
)

// progressBuffer absorbs bursts from many workers before samples are dropped.
const progressBuffer = 1024

// Service holds everything a run needs. Build it with New and release it
// with Close.
type Service struct {
	cfg      *config.Config
	corridor *route.Corridor
	catalog  model.Catalog
	sink     coremetrics.MetricsSink
	monitor  coremon.Monitor
	log      logger.Logger
}

// New loads the road data and catalog and creates the metrics sinks.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Options()); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}

	var fsys fs.FS = data.Corridor()
	if cfg.Network.DataDir != "" {
		fsys = os.DirFS(cfg.Network.DataDir)
	}
	ld := loader.New(fsys, cfg.Network.TrafficFile)
	corridor, err := route.LoadCorridor(cfg.Network.Segments, ld, ld)
	if err != nil {
		return nil, fmt.Errorf("road data: %w", err)
	}

	catalog := cfg.Simulation.Catalog
	if cfg.CatalogFile != "" {
		if catalog, err = model.LoadCatalog(cfg.CatalogFile); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, err
	}
	logg.Infof("loaded %d segments, %d car models, sinks %v", len(cfg.Network.Segments), catalog.Len(), sinkTypes(cfg))
	return &Service{cfg: cfg, corridor: corridor, catalog: catalog, sink: sink, monitor: mon, log: logg}, nil
}

func sinkTypes(cfg *config.Config) []string {
	out := make([]string, len(cfg.Metrics.Sinks))
	for i, s := range cfg.Metrics.Sinks {
		out[i] = s.Type
	}
	return out
}

// Corridor returns the loaded road data.
func (s *Service) Corridor() *route.Corridor { return s.corridor }

// Catalog returns the car catalog in use.
func (s *Service) Catalog() model.Catalog { return s.catalog }

func (s *Service) startPromServer(ctx context.Context) {
	if s.cfg.Metrics.PrometheusAddr == "" {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

func (s *Service) exporter() (batch.Exporter, error) {
	if len(s.cfg.Batch.Formats) == 0 {
		return nil, nil
	}
	return export.NewDirExporter(s.cfg.Batch.OutputDir, s.cfg.Batch.Formats, logger.New("export"))
}

// RunBatch expands the sweep and runs every unit on the worker pool.
// onDone, when set, is called after each unit. The returned error reports
// failed units; outcomes are returned in any case.
func (s *Service) RunBatch(ctx context.Context, onDone func(o batch.Outcome, done, total int)) ([]batch.Outcome, error) {
	units, err := batch.Plan(s.cfg.Sweep, s.cfg.Simulation, s.corridor, s.catalog, logger.New("simulation"))
	if err != nil {
		return nil, err
	}
	exp, err := s.exporter()
	if err != nil {
		return nil, err
	}
	s.startPromServer(ctx)

	bus := eventbus.NewWithBuffer[coremetrics.ProgressEvent](progressBuffer)
	wait := metrics.StartEventCollector(ctx, bus, s.sink)
	r := &batch.Runner{
		Workers:       s.cfg.Batch.Workers,
		Exporter:      exp,
		Sink:          s.sink,
		Bus:           bus,
		ProgressEvery: s.cfg.Metrics.ProgressEvery,
		Monitor:       s.monitor,
		Log:           logger.New("batch"),
		OnDone:        onDone,
	}
	out := r.Run(units)
	bus.Close()
	wait()
	if n := bus.Dropped(); n > 0 {
		s.log.Warnf("dropped %d progress samples", n)
	}

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return out, fmt.Errorf("%d of %d simulations failed", failed, len(out))
	}
	return out, nil
}

// SimulateOptions tunes a single interactive run.
type SimulateOptions struct {
	// Serve exposes the snapshot API on the configured address.
	Serve bool
	// TPS overrides the configured pace when positive.
	TPS int
}

// Simulate runs the configured simulation once at full charger capacity and
// exports it like a batch unit.
func (s *Service) Simulate(ctx context.Context, opts SimulateOptions) (stats.Report, error) {
	net, err := s.corridor.Build(1)
	if err != nil {
		return stats.Report{}, err
	}
	cfg := s.cfg.Simulation
	cfg.Catalog = s.catalog
	if cfg.Name == "" {
		cfg.Name = "simulation"
	}
	sim, err := simulation.New(cfg, net, logger.New("simulation"))
	if err != nil {
		return stats.Report{}, err
	}
	tps := s.cfg.API.TPS
	if opts.TPS > 0 {
		tps = opts.TPS
	}
	sim.SetTPS(tps)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.startPromServer(ctx)
	if opts.Serve {
		h := snapshot.NewHandler(sim, s.cfg.API.Token)
		go func() {
			if err := snapshot.Serve(ctx, s.cfg.API.Addr, h, logger.New("snapshot-api")); err != nil {
				s.log.Errorf("snapshot server: %v", err)
			}
		}()
	}

	start := time.Now()
	_, runErr := sim.Run(ctx)
	rep := stats.Summarize(sim)
	ev := coremetrics.SimulationEvent{
		Name:           rep.Result.Name,
		Seed:           rep.Result.Seed,
		Ticks:          rep.Result.Ticks,
		ElapsedS:       rep.Result.ElapsedS,
		Injected:       rep.Result.Injected,
		NotInjected:    rep.Result.NotInjected,
		Reached:        rep.Result.Reached,
		Depleted:       rep.Result.Depleted,
		Incomplete:     rep.Result.Incomplete,
		MeanStateTimes: rep.MeanStateTimes(),
		Duration:       time.Since(start),
		Time:           time.Now(),
	}
	if runErr != nil {
		ev.Err = runErr.Error()
		s.monitor.CaptureException(runErr, map[string]string{"simulation": cfg.Name})
	}
	if err := s.sink.RecordSimulation(ev); err != nil {
		s.log.Warnf("record %s: %v", cfg.Name, err)
	}
	if runErr != nil {
		return rep, runErr
	}
	exp, err := s.exporter()
	if err != nil {
		return rep, err
	}
	if exp != nil {
		if err := exp.Export(sim, rep); err != nil {
			return rep, fmt.Errorf("export: %w", err)
		}
	}
	return rep, nil
}

// Close flushes the monitor and releases sinks and log files.
func (s *Service) Close() error {
	var first error
	if c, ok := s.sink.(interface{ Close() error }); ok {
		first = c.Close()
	}
	s.monitor.Flush(time.Duration(s.cfg.Sentry.FlushTimeoutMS) * time.Millisecond)
	if err := logger.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
