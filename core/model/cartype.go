package model

import (
	"fmt"
	"slices"
)

// CarType is an immutable vehicle profile shared by every car of that model.
type CarType struct {
	Name       string          `json:"name" yaml:"name"`
	Population int             `json:"population" yaml:"population"` // fleet weight
	Capacity   float64         `json:"capacity_kwh" yaml:"capacity_kwh"`
	Efficiency float64         `json:"efficiency_kwh_per_100km" yaml:"efficiency_kwh_per_100km"`
	MaxAC      float64         `json:"max_ac_kw" yaml:"max_ac_kw"`
	MaxDC      float64         `json:"max_dc_kw" yaml:"max_dc_kw"`
	Connectors []ConnectorType `json:"connectors" yaml:"connectors"`
}

// MaxPower returns the maximum charging power accepted on the connector's
// current family.
func (t CarType) MaxPower(c ConnectorType) float64 {
	if c.IsDC() {
		return t.MaxDC
	}
	return t.MaxAC
}

// Supports reports whether the car can plug into the connector.
func (t CarType) Supports(c ConnectorType) bool {
	return slices.Contains(t.Connectors, c)
}

// Chargeable returns the connectors the car supports and can draw power from.
func (t CarType) Chargeable() []ConnectorType {
	out := make([]ConnectorType, 0, len(t.Connectors))
	for _, c := range t.Connectors {
		if t.MaxPower(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// RangeKm converts an energy amount into driving distance.
func (t CarType) RangeKm(kwh float64) float64 {
	if t.Efficiency <= 0 {
		return 0
	}
	return kwh / t.Efficiency * 100
}

// EnergyFor returns the energy needed to drive the given distance.
func (t CarType) EnergyFor(km float64) float64 {
	return km * t.Efficiency / 100
}

// Validate checks that the profile is physically usable.
func (t CarType) Validate() error {
	switch {
	case t.Name == "":
		return fmt.Errorf("car type name is required")
	case t.Population < 0:
		return fmt.Errorf("car type %s: negative population", t.Name)
	case t.Capacity <= 0:
		return fmt.Errorf("car type %s: capacity must be positive", t.Name)
	case t.Efficiency <= 0:
		return fmt.Errorf("car type %s: efficiency must be positive", t.Name)
	case t.MaxAC < 0 || t.MaxDC < 0:
		return fmt.Errorf("car type %s: negative charging power", t.Name)
	case len(t.Chargeable()) == 0:
		return fmt.Errorf("car type %s: no usable connector", t.Name)
	}
	return nil
}

func (t CarType) clone() CarType {
	t.Connectors = slices.Clone(t.Connectors)
	return t
}
