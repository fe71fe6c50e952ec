package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() != 35 {
		t.Fatalf("expected 35 car types got %d", c.Len())
	}
	m3, ok := c.Lookup("Tesla Model 3")
	require.True(t, ok)
	assert.Equal(t, 1541, m3.Population)
	assert.Equal(t, 68.5, m3.Capacity)
	assert.True(t, m3.Supports(Tesla))
	assert.False(t, m3.Supports(CCS))
}

func TestCatalogTransformsDoNotMutate(t *testing.T) {
	base := DefaultCatalog()
	winter := base.Winter(0.5, 0.5)
	orig, _ := base.Lookup("Renault Zoe")
	cold, _ := winter.Lookup("Renault Zoe")
	assert.Equal(t, 22.0, orig.MaxAC)
	assert.Equal(t, 11.0, cold.MaxAC)
	assert.InDelta(t, orig.Efficiency*2, cold.Efficiency, 1e-9)

	scaled := base.Scaled(1.1, 1.5)
	s, _ := scaled.Lookup("Renault Zoe")
	assert.InDelta(t, 33.0, s.MaxAC, 1e-9)
	again, _ := base.Lookup("Renault Zoe")
	assert.Equal(t, orig, again)
}

func TestCatalogTypesAreCopies(t *testing.T) {
	c := DefaultCatalog()
	types := c.Types()
	types[0].Connectors[0] = Worksite
	types[0].Capacity = 1
	first := c.At(0)
	assert.NotEqual(t, Worksite, first.Connectors[0])
	assert.NotEqual(t, 1.0, first.Capacity)
}

func TestNewCatalogValidation(t *testing.T) {
	cases := map[string][]CarType{
		"no connectors": {{Name: "a", Population: 1, Capacity: 10, Efficiency: 10, MaxAC: 3}},
		"zero capacity": {{Name: "a", Population: 1, Efficiency: 10, MaxAC: 3, Connectors: []ConnectorType{Type2}}},
		"dc only zero":  {{Name: "a", Population: 1, Capacity: 10, Efficiency: 10, MaxAC: 3, Connectors: []ConnectorType{CCS}}},
		"no population": {{Name: "a", Capacity: 10, Efficiency: 10, MaxAC: 3, Connectors: []ConnectorType{Type2}}},
		"duplicate": {
			{Name: "a", Population: 1, Capacity: 10, Efficiency: 10, MaxAC: 3, Connectors: []ConnectorType{Type2}},
			{Name: "a", Population: 1, Capacity: 10, Efficiency: 10, MaxAC: 3, Connectors: []ConnectorType{Type2}},
		},
	}
	for name, types := range cases {
		if _, err := NewCatalog(types); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseConnector(t *testing.T) {
	cases := map[string]ConnectorType{
		"Type2":         Type2,
		"CCS":           CCS,
		"CCS (HPC)":     CCS,
		"SuperCharger":  Tesla,
		"CHAdeMO":       CHAdeMO,
		"Työmaapistoke": Worksite,
	}
	for tok, want := range cases {
		got, err := ParseConnector(tok)
		if err != nil {
			t.Fatalf("%s: %v", tok, err)
		}
		if got != want {
			t.Fatalf("%s: expected %v got %v", tok, want, got)
		}
	}
	_, err := ParseConnector("Schuko")
	if !errors.Is(err, ErrUnknownConnector) {
		t.Fatalf("expected ErrUnknownConnector got %v", err)
	}
}

func TestLoadCatalogYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := `car_types:
  - name: "Test EV"
    population: 10
    capacity_kwh: 40
    efficiency_kwh_per_100km: 15
    max_ac_kw: 11
    max_dc_kw: 50
    connectors: ["Type2", "CCS"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	ct := c.At(0)
	assert.Equal(t, []ConnectorType{Type2, CCS}, ct.Connectors)
	assert.Equal(t, 50.0, ct.MaxPower(CCS))
	assert.Equal(t, 11.0, ct.MaxPower(Type2))
}

func TestAverage(t *testing.T) {
	c, err := NewCatalog([]CarType{
		{Name: "a", Population: 1, Capacity: 20, Efficiency: 10, MaxAC: 10, MaxDC: 50, Connectors: []ConnectorType{CCS}},
		{Name: "b", Population: 3, Capacity: 60, Efficiency: 20, MaxAC: 10, MaxDC: 150, Connectors: []ConnectorType{CCS}},
	})
	require.NoError(t, err)
	avg := c.Average()
	assert.InDelta(t, 50.0, avg.Capacity, 1e-9)
	assert.InDelta(t, 17.5, avg.Efficiency, 1e-9)
	assert.InDelta(t, 125.0, avg.MaxDC, 1e-9)
	assert.True(t, avg.Supports(Tesla))
}
