package metrics

import "github.com/kilianp07/evcorridor/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr serves /metrics when set, e.g. ":9090".
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
	// ProgressEvery is the tick interval between progress samples; zero disables them.
	ProgressEvery int `json:"progress_every" yaml:"progress_every"`
}
