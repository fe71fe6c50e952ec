package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/evcorridor/core/logger"
	coremetrics "github.com/kilianp07/evcorridor/core/metrics"
	"github.com/kilianp07/evcorridor/core/monitoring"
)

const (
	statusOnline  = "online"
	statusOffline = "offline"
)

// Publisher is a metrics sink that publishes every event as JSON.
//
// Topics:
//
//	<prefix>/simulations/<name>  one message per finished simulation
//	<prefix>/progress/<name>     progress samples
//	<prefix>/batch               batch summaries
//	<prefix>/status              retained online/offline marker
type Publisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	maxRetries int
	backoff    time.Duration

	mu      sync.Mutex
	log     logger.Logger
	monitor monitoring.Monitor
}

// NewPublisher connects to the broker and marks the status topic online.
func NewPublisher(cfg Config, log logger.Logger, mon monitoring.Monitor) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log = logger.OrNop(log)
	p := &Publisher{
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
		monitor:    monitoring.OrNop(mon),
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
		if token := c.Publish(cfg.StatusTopic(), cfg.QoS, true, statusOnline); token.Wait() && token.Error() != nil {
			log.Errorf("mqtt: publish status: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("mqtt: connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("mqtt: reconnecting to broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", cfg.Broker, token.Error())
	}
	p.cli = c
	return p, nil
}

type envelope struct {
	EventID   string `json:"event_id"`
	Kind      string `json:"kind"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

type simulationPayload struct {
	Name           string             `json:"name"`
	Seed           int64              `json:"seed"`
	Ticks          int                `json:"ticks"`
	ElapsedS       float64            `json:"elapsed_s"`
	Injected       int                `json:"injected"`
	NotInjected    int                `json:"not_injected"`
	Reached        int                `json:"reached"`
	Depleted       int                `json:"depleted"`
	Incomplete     bool               `json:"incomplete"`
	Error          string             `json:"error,omitempty"`
	MeanStateTimes map[string]float64 `json:"mean_state_times,omitempty"`
	DurationMS     int64              `json:"duration_ms"`
}

type progressPayload struct {
	Name          string  `json:"name"`
	Tick          int     `json:"tick"`
	ElapsedS      float64 `json:"elapsed_s"`
	Active        int     `json:"active"`
	Waiting       int     `json:"waiting"`
	Charging      int     `json:"charging"`
	ChargersInUse int     `json:"chargers_in_use"`
}

type batchPayload struct {
	Units      int   `json:"units"`
	Failed     int   `json:"failed"`
	Workers    int   `json:"workers"`
	DurationMS int64 `json:"duration_ms"`
}

// RecordSimulation publishes the outcome of one simulation.
func (p *Publisher) RecordSimulation(ev coremetrics.SimulationEvent) error {
	return p.publish(p.prefix+"/simulations/"+ev.Name, "simulation", ev.Time, simulationPayload{
		Name:           ev.Name,
		Seed:           ev.Seed,
		Ticks:          ev.Ticks,
		ElapsedS:       ev.ElapsedS,
		Injected:       ev.Injected,
		NotInjected:    ev.NotInjected,
		Reached:        ev.Reached,
		Depleted:       ev.Depleted,
		Incomplete:     ev.Incomplete,
		Error:          ev.Err,
		MeanStateTimes: ev.MeanStateTimes,
		DurationMS:     ev.Duration.Milliseconds(),
	})
}

// RecordProgress publishes a progress sample.
func (p *Publisher) RecordProgress(ev coremetrics.ProgressEvent) error {
	return p.publish(p.prefix+"/progress/"+ev.Name, "progress", ev.Time, progressPayload{
		Name:          ev.Name,
		Tick:          ev.Tick,
		ElapsedS:      ev.ElapsedS,
		Active:        ev.Active,
		Waiting:       ev.Waiting,
		Charging:      ev.Charging,
		ChargersInUse: ev.ChargersInUse,
	})
}

// RecordBatch publishes the batch summary.
func (p *Publisher) RecordBatch(ev coremetrics.BatchEvent) error {
	return p.publish(p.prefix+"/batch", "batch", ev.Time, batchPayload{
		Units:      ev.Units,
		Failed:     ev.Failed,
		Workers:    ev.Workers,
		DurationMS: ev.Duration.Milliseconds(),
	})
}

func (p *Publisher) publish(topic, kind string, at time.Time, data any) error {
	if at.IsZero() {
		at = time.Now()
	}
	payload, err := json.Marshal(envelope{
		EventID:   uuid.NewString(),
		Kind:      kind,
		Timestamp: at.UnixMilli(),
		Data:      data,
	})
	if err != nil {
		return err
	}

	// Workers share one publisher; retries of one event stay in order.
	p.mu.Lock()
	defer p.mu.Unlock()
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.log.Debugf("mqtt: published %s to %s", kind, topic)
			return nil
		}
		p.log.Errorf("mqtt: publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	p.monitor.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return fmt.Errorf("mqtt: publish %s: %w", topic, publishErr)
}

// Close marks the publisher offline and disconnects.
func (p *Publisher) Close() error {
	if p.cli == nil || !p.cli.IsConnected() {
		return nil
	}
	token := p.cli.Publish(p.prefix+"/status", p.qos, true, statusOffline)
	token.Wait()
	p.cli.Disconnect(250)
	return token.Error()
}
