package config

import (
	"fmt"
	"runtime"

	"github.com/kilianp07/evcorridor/pkg/export"
)

// BatchConfig sizes the worker pool and selects the report outputs.
type BatchConfig struct {
	// Workers defaults to the number of CPUs.
	Workers   int      `json:"workers"`
	OutputDir string   `json:"output_dir"`
	Formats   []string `json:"formats"`
}

// SetDefaults applies sane defaults.
func (c *BatchConfig) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.Formats == nil {
		c.Formats = []string{"csv"}
	}
}

// Validate checks mandatory fields.
func (c BatchConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	known := make(map[string]bool)
	for _, f := range export.Formats() {
		known[f] = true
	}
	for _, f := range c.Formats {
		if !known[f] {
			return fmt.Errorf("unknown format %q (known: %v)", f, export.Formats())
		}
	}
	return nil
}
