package config

import (
	"fmt"

	"github.com/kilianp07/evcorridor/core/route"
)

// NetworkConfig locates the road data.
type NetworkConfig struct {
	// DataDir holds "<segment id>.csv" files; empty uses the embedded corridor.
	DataDir     string              `json:"data_dir"`
	TrafficFile string              `json:"traffic_file"`
	Segments    []route.SegmentSpec `json:"segments"`
}

// DefaultSegments is the Helsinki to Utsjoki corridor.
func DefaultSegments() []route.SegmentSpec {
	return []route.SegmentSpec{
		{ID: "HeLa", Start: "Helsinki", End: "Lahti"},
		{ID: "LaJy", Start: "Lahti", End: "Jyväskylä"},
		{ID: "JyOu", Start: "Jyväskylä", End: "Oulu"},
		{ID: "OuKe", Start: "Oulu", End: "Kemi"},
		{ID: "KeRo", Start: "Kemi", End: "Rovaniemi"},
		{ID: "RoUt", Start: "Rovaniemi", End: "Utsjoki"},
	}
}

// SetDefaults applies sane defaults.
func (c *NetworkConfig) SetDefaults() {
	if c.TrafficFile == "" {
		c.TrafficFile = "traffic.csv"
	}
	if len(c.Segments) == 0 {
		c.Segments = DefaultSegments()
	}
}

// Validate checks mandatory fields.
func (c NetworkConfig) Validate() error {
	seen := make(map[string]bool, len(c.Segments))
	for i, s := range c.Segments {
		if s.ID == "" || s.Start == "" || s.End == "" {
			return fmt.Errorf("segment %d: id, start and end are required", i)
		}
		if s.Start == s.End {
			return fmt.Errorf("segment %s: start equals end", s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("segment %s listed twice", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}
