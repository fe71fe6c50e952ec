package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/evcorridor/core/metrics"
	"github.com/kilianp07/evcorridor/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes simulation events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSimulation writes one simulation_result point.
func (s *InfluxSink) RecordSimulation(ev coremetrics.SimulationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation_result").
		AddTag("simulation", ev.Name).
		AddTag("incomplete", strconv.FormatBool(ev.Incomplete)).
		AddTag("failed", strconv.FormatBool(ev.Failed())).
		AddField("seed", ev.Seed).
		AddField("ticks", ev.Ticks).
		AddField("elapsed_s", round3(ev.ElapsedS)).
		AddField("injected", ev.Injected).
		AddField("not_injected", ev.NotInjected).
		AddField("reached", ev.Reached).
		AddField("depleted", ev.Depleted).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(timeOr(ev.Time))
	if ev.Err != "" {
		p.AddField("error", ev.Err)
	}
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return err
	}
	if len(ev.MeanStateTimes) == 0 {
		return nil
	}
	st := write.NewPointWithMeasurement("simulation_state_mean").
		AddTag("simulation", ev.Name).
		SetTime(timeOr(ev.Time))
	for state, v := range ev.MeanStateTimes {
		st.AddField(state, round3(v))
	}
	return s.writeAPI.WritePoint(ctx, st)
}

// RecordProgress writes a progress sample.
func (s *InfluxSink) RecordProgress(ev coremetrics.ProgressEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation_progress").
		AddTag("simulation", ev.Name).
		AddField("tick", ev.Tick).
		AddField("elapsed_s", round3(ev.ElapsedS)).
		AddField("active", ev.Active).
		AddField("waiting", ev.Waiting).
		AddField("charging", ev.Charging).
		AddField("chargers_in_use", ev.ChargersInUse).
		SetTime(timeOr(ev.Time))
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordBatch writes the batch summary.
func (s *InfluxSink) RecordBatch(ev coremetrics.BatchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("batch_result").
		AddField("units", ev.Units).
		AddField("failed", ev.Failed).
		AddField("workers", ev.Workers).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(timeOr(ev.Time))
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func timeOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
