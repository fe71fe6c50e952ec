// Package stats aggregates a finished simulation into per-state, per-model
// and per-segment figures.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/evcorridor/core/car"
	"github.com/kilianp07/evcorridor/core/simulation"
)

// Source is the read side of a simulation.
type Source interface {
	Result() simulation.Result
	Cars() []simulation.CarView
	Snapshots() []simulation.Snapshot
	SegmentIDs() []string
}

// StateSummary describes the time cars spent in one non-terminal state.
type StateSummary struct {
	State string `json:"state"`
	// MeanS is the mean seconds per car.
	MeanS float64 `json:"mean_s"`
	// MedianS is the median seconds per car.
	MedianS float64 `json:"median_s"`
	// Share is the fraction of all non-terminal time.
	Share float64 `json:"share"`
}

// TypeSummary aggregates the cars of one model.
type TypeSummary struct {
	Type          string  `json:"type"`
	Cars          int     `json:"cars"`
	Reached       int     `json:"reached"`
	Depleted      int     `json:"depleted"`
	MeanCharges   float64 `json:"mean_charges"`
	MeanRouteKm   float64 `json:"mean_route_km"`
	MeanTripS     float64 `json:"mean_trip_s"`
	MeanWaitingS  float64 `json:"mean_waiting_s"`
	MeanChargingS float64 `json:"mean_charging_s"`
}

// SegmentTraffic counts how many routes used a segment and its peak load.
type SegmentTraffic struct {
	Segment     string  `json:"segment"`
	Cars        int     `json:"cars"`
	Share       float64 `json:"share"`
	PeakOnRoad  int     `json:"peak_on_road"`
	PeakWaiting int     `json:"peak_waiting"`
	PeakInUse   int     `json:"peak_chargers_in_use"`
}

// Report is the aggregated view of one run.
type Report struct {
	Result simulation.Result `json:"result"`
	// DrivingMeanS is the mean non-terminal time per car.
	DrivingMeanS float64          `json:"driving_mean_s"`
	States       []StateSummary   `json:"states"`
	Types        []TypeSummary    `json:"types"`
	Segments     []SegmentTraffic `json:"segments"`
}

// MeanStateTimes maps state names to their mean seconds per car.
func (r Report) MeanStateTimes() map[string]float64 {
	out := make(map[string]float64, len(r.States))
	for _, s := range r.States {
		out[s.State] = s.MeanS
	}
	return out
}

// Summarize builds the report for src.
func Summarize(src Source) Report {
	cars := src.Cars()
	rep := Report{Result: src.Result()}
	rep.States, rep.DrivingMeanS = summarizeStates(cars)
	rep.Types = summarizeTypes(cars)
	rep.Segments = summarizeSegments(src.SegmentIDs(), cars, src.Snapshots())
	return rep
}

func summarizeStates(cars []simulation.CarView) ([]StateSummary, float64) {
	var out []StateSummary
	if len(cars) == 0 {
		return out, 0
	}
	total := 0.0
	for _, c := range cars {
		for s, v := range c.StateTimes {
			if !car.State(s).Terminal() {
				total += v
			}
		}
	}
	vals := make([]float64, len(cars))
	for _, s := range car.States() {
		if s.Terminal() {
			continue
		}
		for i, c := range cars {
			vals[i] = c.StateTimes[s]
		}
		sort.Float64s(vals)
		share := 0.0
		if total > 0 {
			share = floats.Sum(vals) / total
		}
		out = append(out, StateSummary{
			State:   s.String(),
			MeanS:   stat.Mean(vals, nil),
			MedianS: stat.Quantile(0.5, stat.Empirical, vals, nil),
			Share:   share,
		})
	}
	return out, total / float64(len(cars))
}

func summarizeTypes(cars []simulation.CarView) []TypeSummary {
	idx := make(map[string]int)
	var out []TypeSummary
	for _, c := range cars {
		i, ok := idx[c.Type]
		if !ok {
			i = len(out)
			idx[c.Type] = i
			out = append(out, TypeSummary{Type: c.Type})
		}
		t := &out[i]
		t.Cars++
		switch c.State {
		case car.DestinationReached:
			t.Reached++
		case car.BatteryDepleted:
			t.Depleted++
		}
		t.MeanCharges += float64(c.TimesCharged)
		t.MeanRouteKm += c.RouteLengthKm
		t.MeanWaitingS += c.StateTimes[car.Waiting]
		t.MeanChargingS += c.StateTimes[car.Charging]
		for s, v := range c.StateTimes {
			if !car.State(s).Terminal() {
				t.MeanTripS += v
			}
		}
	}
	for i := range out {
		n := float64(out[i].Cars)
		out[i].MeanCharges /= n
		out[i].MeanRouteKm /= n
		out[i].MeanTripS /= n
		out[i].MeanWaitingS /= n
		out[i].MeanChargingS /= n
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Cars != out[b].Cars {
			return out[a].Cars > out[b].Cars
		}
		return out[a].Type < out[b].Type
	})
	return out
}

func summarizeSegments(ids []string, cars []simulation.CarView, snaps []simulation.Snapshot) []SegmentTraffic {
	out := make([]SegmentTraffic, len(ids))
	for i, id := range ids {
		out[i].Segment = id
	}
	total := 0
	for _, c := range cars {
		for _, s := range c.Segments {
			out[s].Cars++
			total++
		}
	}
	for _, snap := range snaps {
		for i := range out {
			out[i].PeakOnRoad = max(out[i].PeakOnRoad, snap.CarsOnSegment[i])
			out[i].PeakWaiting = max(out[i].PeakWaiting, snap.WaitingOnSegment[i])
			out[i].PeakInUse = max(out[i].PeakInUse, snap.ChargersInUse[i])
		}
	}
	if total > 0 {
		for i := range out {
			out[i].Share = float64(out[i].Cars) / float64(total)
		}
	}
	return out
}
