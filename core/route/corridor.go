package route

import (
	"fmt"
	"math"

	"github.com/kilianp07/evcorridor/core/model"
	"github.com/kilianp07/evcorridor/core/station"
)

// ChargerGroup is a set of identical chargers at a station.
type ChargerGroup struct {
	PowerKW float64
	Type    model.ConnectorType
	Count   int
}

// StationData describes a station as read from a data source.
type StationData struct {
	Name                  string
	PositionKm            float64
	DistanceFromHighwayKm float64
	Amenities             station.Amenities
	Chargers              []ChargerGroup
}

// SegmentData is the raw content of a road segment.
type SegmentData struct {
	LengthKm float64
	Stations []StationData
}

// SegmentLoader provides road segment data by segment id.
type SegmentLoader interface {
	LoadSegment(id string) (SegmentData, error)
}

// TrafficWeightLoader provides the traffic volume of a segment.
type TrafficWeightLoader interface {
	TrafficWeight(id string) (float64, error)
}

// SegmentSpec places a segment between two endpoints.
type SegmentSpec struct {
	ID    string   `json:"id"`
	Start Endpoint `json:"start"`
	End   Endpoint `json:"end"`
}

// Corridor holds loaded segment data from which independent networks can be
// built, one per simulation.
type Corridor struct {
	specs   []SegmentSpec
	data    map[string]SegmentData
	weights map[string]float64
}

// LoadCorridor reads every segment and its traffic weight.
func LoadCorridor(specs []SegmentSpec, segments SegmentLoader, traffic TrafficWeightLoader) (*Corridor, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("corridor: no segments configured")
	}
	c := &Corridor{
		specs:   specs,
		data:    make(map[string]SegmentData, len(specs)),
		weights: make(map[string]float64, len(specs)),
	}
	for _, sp := range specs {
		d, err := segments.LoadSegment(sp.ID)
		if err != nil {
			return nil, fmt.Errorf("load segment %s: %w", sp.ID, err)
		}
		w, err := traffic.TrafficWeight(sp.ID)
		if err != nil {
			return nil, fmt.Errorf("traffic weight %s: %w", sp.ID, err)
		}
		c.data[sp.ID] = d
		c.weights[sp.ID] = w
	}
	return c, nil
}

// Specs returns the configured segment placement.
func (c *Corridor) Specs() []SegmentSpec { return c.specs }

// Build creates a fresh network. Charger counts are multiplied by
// chargerCoeff and rounded, keeping at least one charger per non-empty
// group.
func (c *Corridor) Build(chargerCoeff float64) (*Network, error) {
	if chargerCoeff <= 0 {
		return nil, fmt.Errorf("charger coefficient must be positive, got %v", chargerCoeff)
	}
	segs := make([]*Segment, 0, len(c.specs))
	for _, sp := range c.specs {
		d := c.data[sp.ID]
		stations := make([]*station.Station, 0, len(d.Stations))
		for _, sd := range d.Stations {
			st := station.New(sd.Name, sd.PositionKm, sd.DistanceFromHighwayKm, sd.Amenities)
			for _, g := range sd.Chargers {
				st.AddChargers(g.PowerKW, g.Type, scaleCount(g.Count, chargerCoeff))
			}
			stations = append(stations, st)
		}
		seg, err := NewSegment(sp.ID, sp.Start, sp.End, d.LengthKm, stations)
		if err != nil {
			return nil, err
		}
		seg.TrafficWeight = c.weights[sp.ID]
		segs = append(segs, seg)
	}
	return NewNetwork(segs)
}

func scaleCount(n int, coeff float64) int {
	if n <= 0 {
		return 0
	}
	return max(1, int(math.Round(float64(n)*coeff)))
}
