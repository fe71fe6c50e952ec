package route

import (
	"fmt"
	"sort"

	"github.com/kilianp07/evcorridor/core/station"
)

// Endpoint is a named hub terminating one or more segments.
type Endpoint string

// Segment is a primitive stretch of highway between two adjacent endpoints.
// Cars travelling Start→End use the forward stations and cars travelling
// End→Start use an independent mirrored copy, so the two carriageways never
// share charger occupancy.
type Segment struct {
	ID            string
	Start, End    Endpoint
	LengthKm      float64
	TrafficWeight float64

	forward []*station.Station
	reverse []*station.Station
}

// NewSegment validates the geometry and takes ownership of the stations.
func NewSegment(id string, start, end Endpoint, lengthKm float64, stations []*station.Station) (*Segment, error) {
	if id == "" {
		return nil, fmt.Errorf("segment id is required")
	}
	if start == end {
		return nil, fmt.Errorf("segment %s: start and end are both %s", id, start)
	}
	if lengthKm <= 0 {
		return nil, fmt.Errorf("segment %s: length must be positive", id)
	}
	fwd := make([]*station.Station, 0, len(stations))
	for _, st := range stations {
		if st.PositionKm < 0 || st.PositionKm > lengthKm {
			return nil, fmt.Errorf("segment %s: station %q at %.1f km outside [0, %.1f]", id, st.Name, st.PositionKm, lengthKm)
		}
		fwd = append(fwd, st)
	}
	sort.SliceStable(fwd, func(i, j int) bool { return fwd[i].PositionKm < fwd[j].PositionKm })
	rev := make([]*station.Station, len(fwd))
	for i, st := range fwd {
		rev[len(fwd)-1-i] = st.Clone()
	}
	return &Segment{ID: id, Start: start, End: end, LengthKm: lengthKm, forward: fwd, reverse: rev}, nil
}

// Stations returns the stations in travel order for the given direction.
func (s *Segment) Stations(reversed bool) []*station.Station {
	if reversed {
		return s.reverse
	}
	return s.forward
}

// Other returns the endpoint opposite to e.
func (s *Segment) Other(e Endpoint) (Endpoint, bool) {
	switch e {
	case s.Start:
		return s.End, true
	case s.End:
		return s.Start, true
	}
	return "", false
}

// ChargersInUse counts occupied chargers in both directions.
func (s *Segment) ChargersInUse() int {
	n := 0
	for _, st := range s.forward {
		n += st.ChargersInUse()
	}
	for _, st := range s.reverse {
		n += st.ChargersInUse()
	}
	return n
}

// Waiting counts queued cars in both directions.
func (s *Segment) Waiting() int {
	n := 0
	for _, st := range s.forward {
		n += st.QueueLen()
	}
	for _, st := range s.reverse {
		n += st.QueueLen()
	}
	return n
}

// Clone returns a deep copy with fresh charger state.
func (s *Segment) Clone() *Segment {
	out := &Segment{ID: s.ID, Start: s.Start, End: s.End, LengthKm: s.LengthKm, TrafficWeight: s.TrafficWeight}
	out.forward = make([]*station.Station, len(s.forward))
	for i, st := range s.forward {
		out.forward[i] = st.Clone()
	}
	out.reverse = make([]*station.Station, len(s.reverse))
	for i, st := range s.reverse {
		out.reverse[i] = st.Clone()
	}
	return out
}
