package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/evcorridor/core/metrics"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineRecorder) handler(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	l.mu.Lock()
	l.lines = append(l.lines, strings.TrimSpace(string(data)))
	l.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func TestInfluxSink_RecordSimulation(t *testing.T) {
	rec := &lineRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.SimulationEvent{
		Name: "r0-c10", Seed: 3, Ticks: 100, ElapsedS: 1000.1234, Injected: 10, Reached: 10,
		MeanStateTimes: map[string]float64{"Charging": 12.5},
		Duration:       250 * time.Millisecond, Time: now,
	}
	if err := sink.RecordSimulation(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("simulation_result").
		AddTag("simulation", "r0-c10").
		AddTag("incomplete", "false").
		AddTag("failed", "false").
		AddField("seed", int64(3)).
		AddField("ticks", 100).
		AddField("elapsed_s", 1000.123).
		AddField("injected", 10).
		AddField("not_injected", 0).
		AddField("reached", 10).
		AddField("depleted", 0).
		AddField("duration_ms", int64(250)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(rec.lines) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(rec.lines))
	}
	if rec.lines[0] != expected {
		t.Errorf("unexpected body: %s", rec.lines[0])
	}
	if !strings.HasPrefix(rec.lines[1], "simulation_state_mean,simulation=r0-c10 Charging=12.5") {
		t.Errorf("unexpected state line: %s", rec.lines[1])
	}
}

func TestInfluxSink_ProgressAndBatch(t *testing.T) {
	rec := &lineRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	if err := sink.RecordProgress(coremetrics.ProgressEvent{Name: "a", Tick: 5, Waiting: 2}); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := sink.RecordBatch(coremetrics.BatchEvent{Units: 3, Workers: 2}); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(rec.lines) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(rec.lines))
	}
	if !strings.HasPrefix(rec.lines[0], "simulation_progress,simulation=a ") || !strings.Contains(rec.lines[0], "waiting=2i") {
		t.Errorf("unexpected progress line: %s", rec.lines[0])
	}
	if !strings.HasPrefix(rec.lines[1], "batch_result ") || !strings.Contains(rec.lines[1], "units=3i") {
		t.Errorf("unexpected batch line: %s", rec.lines[1])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
