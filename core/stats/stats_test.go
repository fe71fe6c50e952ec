package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evcorridor/core/car"
	"github.com/kilianp07/evcorridor/core/simulation"
)

type fakeSource struct {
	cars  []simulation.CarView
	snaps []simulation.Snapshot
}

func (f fakeSource) Result() simulation.Result { return simulation.Result{Name: "fake"} }
func (f fakeSource) Cars() []simulation.CarView { return f.cars }
func (f fakeSource) Snapshots() []simulation.Snapshot { return f.snaps }
func (f fakeSource) SegmentIDs() []string { return []string{"AB", "BC"} }

func view(id int, typ string, st car.State, highway, charging float64, segs ...int) simulation.CarView {
	v := simulation.CarView{ID: id, Type: typ, State: st, RouteLengthKm: 100, Segments: segs}
	v.StateTimes[car.OnHighway] = highway
	v.StateTimes[car.Charging] = charging
	if charging > 0 {
		v.TimesCharged = 1
	}
	return v
}

func TestSummarize(t *testing.T) {
	src := fakeSource{
		cars: []simulation.CarView{
			view(0, "a", car.DestinationReached, 100, 0, 0),
			view(1, "a", car.DestinationReached, 200, 60, 0, 1),
			view(2, "b", car.BatteryDepleted, 600, 0, 1),
		},
		snaps: []simulation.Snapshot{
			{CarsOnSegment: []int{2, 0}, WaitingOnSegment: []int{0, 1}, ChargersInUse: []int{1, 0}},
			{CarsOnSegment: []int{1, 3}, WaitingOnSegment: []int{0, 0}, ChargersInUse: []int{0, 2}},
		},
	}
	rep := Summarize(src)
	assert.Equal(t, "fake", rep.Result.Name)
	assert.InDelta(t, 320.0, rep.DrivingMeanS, 1e-9)

	var highway StateSummary
	for _, s := range rep.States {
		if s.State == car.OnHighway.String() {
			highway = s
		}
	}
	assert.InDelta(t, 300.0, highway.MeanS, 1e-9)
	assert.Equal(t, 200.0, highway.MedianS)
	assert.InDelta(t, 900.0/960.0, highway.Share, 1e-9)
	assert.Len(t, rep.States, car.NumStates-2)
	assert.InDelta(t, 20.0, rep.MeanStateTimes()[car.Charging.String()], 1e-9)

	require.Len(t, rep.Types, 2)
	assert.Equal(t, "a", rep.Types[0].Type)
	assert.Equal(t, 2, rep.Types[0].Reached)
	assert.InDelta(t, 0.5, rep.Types[0].MeanCharges, 1e-9)
	assert.Equal(t, 1, rep.Types[1].Depleted)

	require.Len(t, rep.Segments, 2)
	assert.Equal(t, 2, rep.Segments[0].Cars)
	assert.Equal(t, 2, rep.Segments[1].Cars)
	assert.InDelta(t, 0.5, rep.Segments[0].Share, 1e-9)
	assert.Equal(t, 3, rep.Segments[1].PeakOnRoad)
	assert.Equal(t, 1, rep.Segments[1].PeakWaiting)
	assert.Equal(t, 2, rep.Segments[1].PeakInUse)
}

func TestSummarizeEmpty(t *testing.T) {
	rep := Summarize(fakeSource{})
	assert.Empty(t, rep.States)
	assert.Empty(t, rep.Types)
	assert.Len(t, rep.Segments, 2)
	assert.Zero(t, rep.DrivingMeanS)
}
