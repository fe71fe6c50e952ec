package route

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evcorridor/core/model"
	"github.com/kilianp07/evcorridor/core/station"
)

func mkStation(name string, pos float64) *station.Station {
	s := station.New(name, pos, 1, station.Amenities{})
	s.AddChargers(50, model.CCS, 2)
	return s
}

func chain(t *testing.T) []*Segment {
	t.Helper()
	a, err := NewSegment("AB", "A", "B", 100, []*station.Station{mkStation("ab2", 70), mkStation("ab1", 20)})
	require.NoError(t, err)
	b, err := NewSegment("BC", "B", "C", 50, []*station.Station{mkStation("bc1", 10)})
	require.NoError(t, err)
	c, err := NewSegment("CD", "C", "D", 80, []*station.Station{mkStation("cd1", 30), mkStation("cd2", 60)})
	require.NoError(t, err)
	a.TrafficWeight, b.TrafficWeight, c.TrafficWeight = 3, 2, 1
	return []*Segment{a, b, c}
}

func names(r *Route) []string {
	out := make([]string, len(r.Stations))
	for i, s := range r.Stations {
		out[i] = s.Name
	}
	return out
}

func TestConcatForward(t *testing.T) {
	segs := chain(t)
	r, err := Concat("A", segs...)
	require.NoError(t, err)
	assert.Equal(t, "A-B-C-D", r.Name)
	assert.Equal(t, 230.0, r.LengthKm)
	assert.Equal(t, []string{"ab1", "ab2", "bc1", "cd1", "cd2"}, names(r))
	assert.Equal(t, []float64{20, 70, 110, 180, 210}, r.Distances)
	assert.Equal(t, Endpoint("D"), r.End)
}

func TestConcatReversedSegment(t *testing.T) {
	segs := chain(t)
	r, err := Concat("D", segs[2], segs[1], segs[0])
	require.NoError(t, err)
	assert.Equal(t, "D-C-B-A", r.Name)
	assert.Equal(t, []string{"cd2", "cd1", "bc1", "ab2", "ab1"}, names(r))
	assert.Equal(t, []float64{20, 50, 120, 160, 210}, r.Distances)
	// the reverse carriageway has its own stations
	assert.NotSame(t, segs[2].Stations(false)[1], r.Stations[0])
	assert.Same(t, segs[2].Stations(true)[0], r.Stations[0])
}

func TestConcatNotContiguous(t *testing.T) {
	segs := chain(t)
	_, err := Concat("A", segs[0], segs[2])
	if !errors.Is(err, ErrNotContiguous) {
		t.Fatalf("expected ErrNotContiguous got %v", err)
	}
}

func TestFlipInvolution(t *testing.T) {
	r, err := Concat("A", chain(t)...)
	require.NoError(t, err)
	f := r.Flip()
	assert.Equal(t, r.End, f.Start)
	assert.Equal(t, r.Start, f.End)
	for i := range f.Distances {
		j := len(r.Distances) - 1 - i
		assert.InDelta(t, r.LengthKm-r.Distances[j], f.Distances[i], 1e-9)
		assert.Equal(t, r.Stations[j].Name, f.Stations[i].Name)
		assert.NotSame(t, r.Stations[j], f.Stations[i])
	}
	ff := f.Flip()
	assert.Equal(t, r.Name, ff.Name)
	assert.Equal(t, r.Start, ff.Start)
	assert.Equal(t, r.End, ff.End)
	assert.Equal(t, names(r), names(ff))
	assert.InDeltaSlice(t, r.Distances, ff.Distances, 1e-9)
	require.Len(t, ff.Legs, len(r.Legs))
	for i := range r.Legs {
		assert.Equal(t, r.Legs[i].Reversed, ff.Legs[i].Reversed)
		assert.InDelta(t, r.Legs[i].OffsetKm, ff.Legs[i].OffsetKm, 1e-9)
	}
}

func TestFlipDoesNotShareChargers(t *testing.T) {
	r, err := Concat("A", chain(t)...)
	require.NoError(t, err)
	f := r.Flip()
	st := f.Stations[0]
	require.NoError(t, st.Acquire(st.Chargers()[0], 1))
	for _, s := range r.Stations {
		assert.Equal(t, 0, s.ChargersInUse())
	}
}

func TestOppositeEndpoint(t *testing.T) {
	r, err := Concat("A", chain(t)...)
	require.NoError(t, err)
	e, err := r.OppositeEndpoint("A")
	require.NoError(t, err)
	assert.Equal(t, Endpoint("D"), e)
	e, err = r.OppositeEndpoint("D")
	require.NoError(t, err)
	assert.Equal(t, Endpoint("A"), e)
	_, err = r.OppositeEndpoint("B")
	assert.True(t, errors.Is(err, ErrUnknownEndpoint))
}

func TestLegAt(t *testing.T) {
	r, err := Concat("A", chain(t)...)
	require.NoError(t, err)
	assert.Equal(t, "AB", r.LegAt(0).Segment.ID)
	assert.Equal(t, "AB", r.LegAt(99.9).Segment.ID)
	assert.Equal(t, "BC", r.LegAt(100).Segment.ID)
	assert.Equal(t, "CD", r.LegAt(500).Segment.ID)
	assert.Equal(t, []string{"AB", "BC", "CD"}, r.SegmentIDs())
}

func TestNewSegmentValidation(t *testing.T) {
	_, err := NewSegment("X", "A", "A", 10, nil)
	assert.Error(t, err)
	_, err = NewSegment("X", "A", "B", 0, nil)
	assert.Error(t, err)
	_, err = NewSegment("X", "A", "B", 10, []*station.Station{mkStation("far", 11)})
	assert.Error(t, err)
}

func TestNetworkShortestRoute(t *testing.T) {
	n, err := NewNetwork(chain(t))
	require.NoError(t, err)
	assert.Equal(t, []Endpoint{"A", "B", "C", "D"}, n.Endpoints())

	r, err := n.ShortestRoute("B", "D")
	require.NoError(t, err)
	assert.Equal(t, "B-C-D", r.Name)
	assert.Equal(t, 130.0, r.LengthKm)

	back, err := n.ShortestRoute("D", "B")
	require.NoError(t, err)
	assert.Equal(t, "D-C-B", back.Name)
	assert.Equal(t, []float64{20, 50, 120}, back.Distances)

	again, err := n.ShortestRoute("B", "D")
	require.NoError(t, err)
	assert.Same(t, r, again)

	_, err = n.ShortestRoute("A", "Z")
	assert.True(t, errors.Is(err, ErrUnknownEndpoint))
	_, err = n.ShortestRoute("A", "A")
	assert.Error(t, err)
}

func TestNetworkRejectsParallelSegments(t *testing.T) {
	a, _ := NewSegment("AB", "A", "B", 10, nil)
	b, _ := NewSegment("BA", "B", "A", 12, nil)
	_, err := NewNetwork([]*Segment{a, b})
	assert.Error(t, err)
}

func TestRandomRouteIsValid(t *testing.T) {
	n, err := NewNetwork(chain(t))
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(42))
	seen := map[string]int{}
	for i := 0; i < 500; i++ {
		r, err := n.RandomRoute(rng)
		require.NoError(t, err)
		if r.Start == r.End {
			t.Fatalf("degenerate route %s", r.Name)
		}
		seen[r.Name]++
	}
	// both directions of the busiest segment must appear
	assert.Greater(t, seen["A-B"], 0)
	assert.Greater(t, seen["B-A"], 0)
}

func TestNetworkCloneIsDeep(t *testing.T) {
	n, err := NewNetwork(chain(t))
	require.NoError(t, err)
	st := n.Segments()[0].Stations(false)[0]
	require.NoError(t, st.Acquire(st.Chargers()[0], 7))
	st.Enqueue(8)

	cp := n.Clone()
	assert.Equal(t, []int{1, 0, 0}, n.ChargersInUse())
	assert.Equal(t, []int{0, 0, 0}, cp.ChargersInUse())
	assert.Equal(t, []int{1, 0, 0}, n.Waiting())
	assert.Equal(t, []int{0, 0, 0}, cp.Waiting())
	assert.Equal(t, 1, cp.SegmentIndex("BC"))
	assert.Equal(t, -1, cp.SegmentIndex("nope"))
}

type memLoader map[string]SegmentData

func (m memLoader) LoadSegment(id string) (SegmentData, error) {
	d, ok := m[id]
	if !ok {
		return SegmentData{}, errors.New("missing")
	}
	return d, nil
}

type memWeights map[string]float64

func (m memWeights) TrafficWeight(id string) (float64, error) { return m[id], nil }

func TestCorridorBuildAppliesChargerCoefficient(t *testing.T) {
	loader := memLoader{
		"AB": {LengthKm: 100, Stations: []StationData{{
			Name: "s", PositionKm: 50,
			Chargers: []ChargerGroup{{PowerKW: 150, Type: model.CCS, Count: 4}, {PowerKW: 11, Type: model.Type2, Count: 1}},
		}}},
	}
	c, err := LoadCorridor([]SegmentSpec{{ID: "AB", Start: "A", End: "B"}}, loader, memWeights{"AB": 1000})
	require.NoError(t, err)

	n, err := c.Build(1.5)
	require.NoError(t, err)
	st := n.Segments()[0].Stations(false)[0]
	assert.Len(t, st.Chargers(), 6+2)
	assert.Equal(t, 1000.0, n.Segments()[0].TrafficWeight)

	n2, err := c.Build(0.1)
	require.NoError(t, err)
	assert.Len(t, n2.Segments()[0].Stations(false)[0].Chargers(), 2)

	_, err = LoadCorridor([]SegmentSpec{{ID: "ZZ", Start: "A", End: "B"}}, loader, memWeights{})
	assert.Error(t, err)
}
