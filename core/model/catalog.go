package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is an ordered, immutable set of car types. Transformations return
// new catalogs and never modify the receiver.
type Catalog struct {
	types []CarType
}

// NewCatalog validates and copies the provided types.
func NewCatalog(types []CarType) (Catalog, error) {
	c := Catalog{types: make([]CarType, len(types))}
	seen := make(map[string]bool, len(types))
	total := 0
	for i, t := range types {
		if err := t.Validate(); err != nil {
			return Catalog{}, err
		}
		if seen[t.Name] {
			return Catalog{}, fmt.Errorf("duplicate car type %s", t.Name)
		}
		seen[t.Name] = true
		total += t.Population
		c.types[i] = t.clone()
	}
	if total == 0 {
		return Catalog{}, fmt.Errorf("catalog has zero total population")
	}
	return c, nil
}

// Len returns the number of car types.
func (c Catalog) Len() int { return len(c.types) }

// At returns a copy of the i-th car type.
func (c Catalog) At(i int) CarType { return c.types[i].clone() }

// Types returns a copy of all car types in catalog order.
func (c Catalog) Types() []CarType {
	out := make([]CarType, len(c.types))
	for i, t := range c.types {
		out[i] = t.clone()
	}
	return out
}

// Lookup finds a car type by name.
func (c Catalog) Lookup(name string) (CarType, bool) {
	for _, t := range c.types {
		if t.Name == name {
			return t.clone(), true
		}
	}
	return CarType{}, false
}

// TotalPopulation sums the fleet weights.
func (c Catalog) TotalPopulation() int {
	n := 0
	for _, t := range c.types {
		n += t.Population
	}
	return n
}

// Scaled returns a catalog with driving efficiency and charging power
// multiplied by the given coefficients. Coefficients are fractions, 1 means
// unchanged.
func (c Catalog) Scaled(efficiency, power float64) Catalog {
	out := Catalog{types: make([]CarType, len(c.types))}
	for i, t := range c.types {
		t = t.clone()
		t.Efficiency *= efficiency
		t.MaxAC *= power
		t.MaxDC *= power
		out.types[i] = t
	}
	return out
}

// Winter applies cold-weather coefficients: charging power is multiplied by
// charge and consumption is divided by drive.
func (c Catalog) Winter(charge, drive float64) Catalog {
	if drive <= 0 {
		drive = 1
	}
	return c.Scaled(1/drive, charge)
}

// Average returns a population-weighted average profile accepting every
// connector type. It is used to estimate queue delays.
func (c Catalog) Average() CarType {
	avg := CarType{Name: "fleet-average", Connectors: append([]ConnectorType(nil), AllConnectors...)}
	total := float64(c.TotalPopulation())
	if total == 0 {
		return avg
	}
	for _, t := range c.types {
		w := float64(t.Population) / total
		avg.Capacity += w * t.Capacity
		avg.Efficiency += w * t.Efficiency
		avg.MaxAC += w * t.MaxAC
		avg.MaxDC += w * t.MaxDC
	}
	avg.Population = int(total)
	return avg
}

type catalogFile struct {
	CarTypes []CarType `json:"car_types" yaml:"car_types"`
}

// LoadCatalog reads a catalog from a YAML or JSON file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".json":
		err = json.Unmarshal(data, &f)
	default:
		return Catalog{}, fmt.Errorf("unsupported catalog format: %s", filepath.Ext(path))
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return NewCatalog(f.CarTypes)
}
