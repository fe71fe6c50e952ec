package route

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/evcorridor/core/station"
)

var (
	// ErrUnknownEndpoint is returned for endpoints not terminating a route.
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	// ErrNotContiguous is returned when consecutive segments do not meet.
	ErrNotContiguous = errors.New("segments are not contiguous")
)

// Leg is one segment of a route with its traversal direction.
type Leg struct {
	Segment  *Segment
	Reversed bool
	// OffsetKm is the route distance at which the leg starts.
	OffsetKm float64
}

// Route is an immutable ordered sequence of stations with cumulative
// distances from the route start.
type Route struct {
	Name       string
	Start, End Endpoint
	LengthKm   float64
	Stations   []*station.Station
	Distances  []float64
	Legs       []Leg
}

// Concat joins segments starting from start. A segment whose End meets the
// current endpoint is traversed in reverse and contributes its mirrored
// stations at length minus position.
func Concat(start Endpoint, segments ...*Segment) (*Route, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("concat: no segments")
	}
	r := &Route{Start: start}
	names := []string{string(start)}
	cur := start
	for _, seg := range segments {
		var reversed bool
		switch cur {
		case seg.Start:
		case seg.End:
			reversed = true
		default:
			return nil, fmt.Errorf("segment %s does not touch %s: %w", seg.ID, cur, ErrNotContiguous)
		}
		r.Legs = append(r.Legs, Leg{Segment: seg, Reversed: reversed, OffsetKm: r.LengthKm})
		for _, st := range seg.Stations(reversed) {
			d := st.PositionKm
			if reversed {
				d = seg.LengthKm - st.PositionKm
			}
			r.Stations = append(r.Stations, st)
			r.Distances = append(r.Distances, r.LengthKm+d)
		}
		r.LengthKm += seg.LengthKm
		cur, _ = seg.Other(cur)
		names = append(names, string(cur))
	}
	r.End = cur
	r.Name = strings.Join(names, "-")
	return r, nil
}

// Flip returns the route driven in the opposite direction. Stations are deep
// copied so the flipped route never shares charger state with r.
func (r *Route) Flip() *Route {
	n := len(r.Stations)
	out := &Route{
		Start:     r.End,
		End:       r.Start,
		LengthKm:  r.LengthKm,
		Stations:  make([]*station.Station, n),
		Distances: make([]float64, n),
		Legs:      make([]Leg, len(r.Legs)),
	}
	for i := 0; i < n; i++ {
		out.Stations[i] = r.Stations[n-1-i].Clone()
		out.Distances[i] = r.LengthKm - r.Distances[n-1-i]
	}
	offset := 0.0
	for i := range r.Legs {
		l := r.Legs[len(r.Legs)-1-i]
		out.Legs[i] = Leg{Segment: l.Segment, Reversed: !l.Reversed, OffsetKm: offset}
		offset += l.Segment.LengthKm
	}
	parts := strings.Split(r.Name, "-")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	out.Name = strings.Join(parts, "-")
	return out
}

// OppositeEndpoint returns the other end of the route.
func (r *Route) OppositeEndpoint(e Endpoint) (Endpoint, error) {
	switch e {
	case r.Start:
		return r.End, nil
	case r.End:
		return r.Start, nil
	}
	return "", fmt.Errorf("route %s: %w: %s", r.Name, ErrUnknownEndpoint, e)
}

// LegAt returns the leg containing the given route distance. Distances past
// the end map to the last leg.
func (r *Route) LegAt(km float64) Leg {
	for i := len(r.Legs) - 1; i > 0; i-- {
		if km >= r.Legs[i].OffsetKm {
			return r.Legs[i]
		}
	}
	return r.Legs[0]
}

// SegmentIDs lists the segments the route traverses in order.
func (r *Route) SegmentIDs() []string {
	ids := make([]string, len(r.Legs))
	for i, l := range r.Legs {
		ids[i] = l.Segment.ID
	}
	return ids
}
