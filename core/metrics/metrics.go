package metrics

import "time"

// SimulationEvent summarises one finished simulation of a batch.
type SimulationEvent struct {
	Name        string
	Seed        int64
	Ticks       int
	ElapsedS    float64
	Injected    int
	NotInjected int
	Reached     int
	Depleted    int
	Incomplete  bool
	// Err is set when the run aborted.
	Err string
	// MeanStateTimes maps state names to the mean seconds a car spent in them.
	MeanStateTimes map[string]float64
	Duration       time.Duration
	Time           time.Time
}

// Failed reports whether the run aborted with an error.
func (e SimulationEvent) Failed() bool { return e.Err != "" }

// MetricsSink records simulation outcomes for observability purposes.
type MetricsSink interface {
	RecordSimulation(ev SimulationEvent) error
}

// ProgressEvent is a periodic sample of a running simulation.
type ProgressEvent struct {
	Name          string
	Tick          int
	ElapsedS      float64
	Active        int
	Waiting       int
	Charging      int
	ChargersInUse int
	Time          time.Time
}

// ProgressRecorder records in-flight progress samples.
type ProgressRecorder interface {
	RecordProgress(ev ProgressEvent) error
}

// BatchEvent summarises a whole batch.
type BatchEvent struct {
	Units    int
	Failed   int
	Workers  int
	Duration time.Duration
	Time     time.Time
}

// BatchRecorder records batch completion.
type BatchRecorder interface {
	RecordBatch(ev BatchEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSimulation(SimulationEvent) error { return nil }
func (NopSink) RecordProgress(ProgressEvent) error     { return nil }
func (NopSink) RecordBatch(BatchEvent) error           { return nil }
