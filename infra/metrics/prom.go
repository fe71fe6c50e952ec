package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/evcorridor/core/metrics"
)

// PromSink records simulation outcomes in Prometheus metrics.
type PromSink struct {
	simulations *prometheus.CounterVec
	duration    prometheus.Histogram
	cars        *prometheus.CounterVec
	stateMean   *prometheus.GaugeVec

	active   *prometheus.GaugeVec
	waiting  *prometheus.GaugeVec
	charging *prometheus.GaugeVec
	inUse    *prometheus.GaugeVec

	batchUnits    *prometheus.CounterVec
	batchDuration prometheus.Gauge
}

// NewPromSink registers the simulation metrics on the default Prometheus
// registerer. The HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.simulations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evsim_simulations_total",
		Help: "Finished simulations by status",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "evsim_simulation_duration_seconds",
		Help:    "Wall-clock time spent running one simulation",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})); err != nil {
		return nil, err
	}
	if s.cars, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evsim_cars_total",
		Help: "Cars by final outcome across finished simulations",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if s.stateMean, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evsim_state_mean_seconds",
		Help: "Mean seconds per car spent in each state in the last finished simulation",
	}, []string{"state"})); err != nil {
		return nil, err
	}
	if s.active, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evsim_active_cars",
		Help: "Cars on the road in a running simulation",
	}, []string{"simulation"})); err != nil {
		return nil, err
	}
	if s.waiting, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evsim_waiting_cars",
		Help: "Cars queued for a charger in a running simulation",
	}, []string{"simulation"})); err != nil {
		return nil, err
	}
	if s.charging, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evsim_charging_cars",
		Help: "Cars charging in a running simulation",
	}, []string{"simulation"})); err != nil {
		return nil, err
	}
	if s.inUse, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evsim_chargers_in_use",
		Help: "Occupied chargers in a running simulation",
	}, []string{"simulation"})); err != nil {
		return nil, err
	}
	if s.batchUnits, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evsim_batch_units_total",
		Help: "Simulations scheduled by finished batches",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.batchDuration, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "evsim_batch_duration_seconds",
		Help: "Wall-clock duration of the last batch",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func status(ev coremetrics.SimulationEvent) string {
	switch {
	case ev.Failed():
		return "failed"
	case ev.Incomplete:
		return "incomplete"
	default:
		return "ok"
	}
}

// RecordSimulation counts the simulation and its car outcomes.
func (s *PromSink) RecordSimulation(ev coremetrics.SimulationEvent) error {
	s.simulations.WithLabelValues(status(ev)).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	s.cars.WithLabelValues("reached").Add(float64(ev.Reached))
	s.cars.WithLabelValues("depleted").Add(float64(ev.Depleted))
	s.cars.WithLabelValues("not_injected").Add(float64(ev.NotInjected))
	for state, v := range ev.MeanStateTimes {
		s.stateMean.WithLabelValues(state).Set(v)
	}
	if !ev.Failed() {
		s.forget(ev.Name)
	}
	return nil
}

// RecordProgress sets the per-simulation gauges.
func (s *PromSink) RecordProgress(ev coremetrics.ProgressEvent) error {
	s.active.WithLabelValues(ev.Name).Set(float64(ev.Active))
	s.waiting.WithLabelValues(ev.Name).Set(float64(ev.Waiting))
	s.charging.WithLabelValues(ev.Name).Set(float64(ev.Charging))
	s.inUse.WithLabelValues(ev.Name).Set(float64(ev.ChargersInUse))
	return nil
}

// forget drops the gauges of a finished simulation.
func (s *PromSink) forget(name string) {
	s.active.DeleteLabelValues(name)
	s.waiting.DeleteLabelValues(name)
	s.charging.DeleteLabelValues(name)
	s.inUse.DeleteLabelValues(name)
}

// RecordBatch counts the batch units.
func (s *PromSink) RecordBatch(ev coremetrics.BatchEvent) error {
	s.batchUnits.WithLabelValues("ok").Add(float64(ev.Units - ev.Failed))
	s.batchUnits.WithLabelValues("failed").Add(float64(ev.Failed))
	s.batchDuration.Set(ev.Duration.Seconds())
	return nil
}
