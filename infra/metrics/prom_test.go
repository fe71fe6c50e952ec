package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/evcorridor/core/metrics"
)

func TestPromSink_RecordSimulation(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	events := []coremetrics.SimulationEvent{
		{Name: "a", Reached: 9, Depleted: 1, Duration: 2 * time.Second, MeanStateTimes: map[string]float64{"Charging": 600}},
		{Name: "b", Reached: 5, Incomplete: true, Duration: time.Second},
		{Name: "c", Err: "boom"},
	}
	for _, ev := range events {
		if err := sink.RecordSimulation(ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	expected := `
# HELP evsim_simulations_total Finished simulations by status
# TYPE evsim_simulations_total counter
evsim_simulations_total{status="failed"} 1
evsim_simulations_total{status="incomplete"} 1
evsim_simulations_total{status="ok"} 1
`
	if err := testutil.CollectAndCompare(sink.simulations, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.cars.WithLabelValues("reached")); v != 14 {
		t.Errorf("reached = %v", v)
	}
	if v := testutil.ToFloat64(sink.stateMean.WithLabelValues("Charging")); v != 600 {
		t.Errorf("state mean = %v", v)
	}
	if c := testutil.CollectAndCount(sink.duration); c != 1 {
		t.Errorf("duration histogram not recorded")
	}
}

func TestPromSink_ProgressGaugesClearedOnFinish(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.RecordProgress(coremetrics.ProgressEvent{Name: "a", Active: 12, Waiting: 3, Charging: 4, ChargersInUse: 4}); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if v := testutil.ToFloat64(sink.waiting.WithLabelValues("a")); v != 3 {
		t.Errorf("waiting = %v", v)
	}
	if c := testutil.CollectAndCount(sink.active); c != 1 {
		t.Fatalf("expected one active series, got %d", c)
	}
	if err := sink.RecordSimulation(coremetrics.SimulationEvent{Name: "a"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if c := testutil.CollectAndCount(sink.active); c != 0 {
		t.Errorf("gauges not cleared, %d series left", c)
	}
}

func TestPromSink_RecordBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.RecordBatch(coremetrics.BatchEvent{Units: 10, Failed: 2, Duration: 3 * time.Second}); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if v := testutil.ToFloat64(sink.batchUnits.WithLabelValues("ok")); v != 8 {
		t.Errorf("ok units = %v", v)
	}
	if v := testutil.ToFloat64(sink.batchDuration); v != 3 {
		t.Errorf("duration = %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	b, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	if a.simulations != b.simulations {
		t.Fatalf("collectors not shared")
	}
}
