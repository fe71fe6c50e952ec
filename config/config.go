// Package config loads the application configuration from a YAML or JSON
// file with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/evcorridor/core/batch"
	"github.com/kilianp07/evcorridor/core/metrics"
	"github.com/kilianp07/evcorridor/core/simulation"
)

// EnvPrefix prefixes environment overrides; "__" separates nested keys, so
// EVC_SIMULATION__CAR_COUNT sets simulation.car_count.
const EnvPrefix = "EVC_"

type Config struct {
	Simulation  simulation.Config `json:"simulation"`
	Network     NetworkConfig     `json:"network"`
	CatalogFile string            `json:"catalog_file"`
	Sweep       batch.Sweep       `json:"sweep"`
	Batch       BatchConfig       `json:"batch"`
	Metrics     metrics.Config    `json:"metrics"`
	Logging     LoggingConfig     `json:"logging"`
	Sentry      SentryConfig      `json:"sentry"`
	API         APIConfig         `json:"api"`
}

// Load reads path, applies environment overrides, defaults and validation.
// An empty path loads the defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Network.SetDefaults()
	c.Sweep.SetDefaults()
	c.Batch.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
	c.API.SetDefaults()
	if c.Metrics.ProgressEvery == 0 {
		c.Metrics.ProgressEvery = DefaultProgressEvery
	}
}

// DefaultProgressEvery is one progress sample per simulated hour at the
// default time step.
const DefaultProgressEvery = 360

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"simulation", c.Simulation.Validate},
		{"network", c.Network.Validate},
		{"sweep", c.Sweep.Validate},
		{"batch", c.Batch.Validate},
		{"logging", c.Logging.Validate},
		{"sentry", c.Sentry.Validate},
		{"api", c.API.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	if c.Metrics.ProgressEvery < 0 {
		return fmt.Errorf("metrics: progress_every must not be negative")
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	return nil
}
