package simulation

import (
	"fmt"

	"github.com/kilianp07/evcorridor/core/car"
	"github.com/kilianp07/evcorridor/core/model"
)

// Config describes one simulation instance. It is passed by value; the
// catalog it carries is immutable.
type Config struct {
	Name     string `json:"name"`
	CarCount int    `json:"car_count"`
	// MeanSeconds and StdDevSeconds shape the Normal arrival curve.
	MeanSeconds   float64 `json:"mean_seconds"`
	StdDevSeconds float64 `json:"std_dev_seconds"`
	TimeStep      float64 `json:"time_step_seconds"`
	MaxTicks      int     `json:"max_ticks"`
	Seed          int64   `json:"seed"`

	MaxEntryOffsetKm float64 `json:"max_entry_offset_km"`
	MaxExitOffsetKm  float64 `json:"max_exit_offset_km"`
	MinInitialSoC    float64 `json:"min_initial_soc"`
	MaxInitialSoC    float64 `json:"max_initial_soc"`

	Car     car.Params    `json:"car"`
	Catalog model.Catalog `json:"-"`
}

// Default values.
const (
	DefaultTimeStep = 10.0
	DefaultMaxTicks = 360000
	DefaultStdDev   = 21600.0
)

// SetDefaults applies defaults to zero fields.
func (c *Config) SetDefaults() {
	if c.TimeStep == 0 {
		c.TimeStep = DefaultTimeStep
	}
	if c.MaxTicks == 0 {
		c.MaxTicks = DefaultMaxTicks
	}
	if c.StdDevSeconds == 0 {
		c.StdDevSeconds = DefaultStdDev
	}
	if c.MeanSeconds == 0 {
		c.MeanSeconds = 4 * c.StdDevSeconds
	}
	if c.MinInitialSoC == 0 && c.MaxInitialSoC == 0 {
		c.MinInitialSoC, c.MaxInitialSoC = 0.7, 1.0
	}
	if c.Catalog.Len() == 0 {
		c.Catalog = model.DefaultCatalog()
	}
	c.Car.SetDefaults()
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.CarCount < 0:
		return fmt.Errorf("car_count must not be negative")
	case c.TimeStep <= 0:
		return fmt.Errorf("time_step_seconds must be positive")
	case c.MaxTicks <= 0:
		return fmt.Errorf("max_ticks must be positive")
	case c.StdDevSeconds <= 0:
		return fmt.Errorf("std_dev_seconds must be positive")
	case c.MeanSeconds < 0:
		return fmt.Errorf("mean_seconds must not be negative")
	case c.MaxEntryOffsetKm < 0 || c.MaxExitOffsetKm < 0:
		return fmt.Errorf("offsets must not be negative")
	case c.MinInitialSoC < 0 || c.MaxInitialSoC > 1 || c.MinInitialSoC > c.MaxInitialSoC:
		return fmt.Errorf("initial soc range [%v,%v] invalid", c.MinInitialSoC, c.MaxInitialSoC)
	case c.Catalog.Len() == 0:
		return fmt.Errorf("catalog is empty")
	}
	return c.Car.Validate()
}
