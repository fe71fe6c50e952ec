package config

import (
	"fmt"

	"github.com/kilianp07/evcorridor/api/snapshot"
)

// APIConfig configures the live snapshot server of the simulate command.
type APIConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
	// TPS is the initial pace in ticks per second; zero runs unpaced.
	TPS int `json:"tps"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.TPS < 0 || c.TPS > snapshot.MaxTPS {
		return fmt.Errorf("tps must be within [0, %d]", snapshot.MaxTPS)
	}
	return nil
}
