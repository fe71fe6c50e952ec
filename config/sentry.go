package config

import "fmt"

// SentryConfig enables error reporting of failed simulations. An empty DSN
// disables it.
type SentryConfig struct {
	DSN         string `json:"dsn"`
	Environment string `json:"environment"`
	Release     string `json:"release"`
	// TracesSampleRate is the fraction of transactions sent, in [0,1].
	TracesSampleRate float64 `json:"traces_sample_rate"`
	// FlushTimeoutMS bounds how long Close waits for queued events.
	FlushTimeoutMS int `json:"flush_timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.FlushTimeoutMS == 0 {
		c.FlushTimeoutMS = 2000
	}
}

// Validate checks the sample rate and timeout.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate must be within [0,1]")
	}
	if c.FlushTimeoutMS < 0 {
		return fmt.Errorf("flush_timeout_ms must not be negative")
	}
	return nil
}
