package simulation

import "github.com/kilianp07/evcorridor/core/car"

// Snapshot aggregates the population after one tick. Segment slices are
// indexed like Network().Segments().
type Snapshot struct {
	Tick             int                  `json:"tick"`
	ElapsedS         float64              `json:"elapsed_s"`
	States           [car.NumStates]int   `json:"states"`
	SegmentStates    [][car.NumStates]int `json:"segment_states"`
	CarsOnSegment    []int                `json:"cars_on_segment"`
	WaitingOnSegment []int                `json:"waiting_on_segment"`
	ChargersInUse    []int                `json:"chargers_in_use"`
}

// Active returns the number of non-terminal cars.
func (s Snapshot) Active() int {
	n := 0
	for st, c := range s.States {
		if !car.State(st).Terminal() {
			n += c
		}
	}
	return n
}

// CarView is a read-only copy of a car's observable state.
type CarView struct {
	ID            int                    `json:"id"`
	Type          string                 `json:"type"`
	State         car.State              `json:"-"`
	StateName     string                 `json:"state"`
	BatteryKWh    float64                `json:"battery_kwh"`
	CapacityKWh   float64                `json:"capacity_kwh"`
	RouteName     string                 `json:"route"`
	RouteLengthKm float64                `json:"route_length_km"`
	DrivenKm      float64                `json:"driven_km"`
	CreatedAtS    float64                `json:"created_at_s"`
	TimesCharged  int                    `json:"times_charged"`
	StateTimes    [car.NumStates]float64 `json:"state_times"`
	// Segment is the index of the segment the car is on, -1 once terminal.
	Segment int `json:"segment"`
	// Segments lists the indices of every segment of the car's route.
	Segments []int `json:"segments"`
}

// Result summarises a finished run.
type Result struct {
	Name        string  `json:"name"`
	Seed        int64   `json:"seed"`
	ElapsedS    float64 `json:"elapsed_s"`
	Ticks       int     `json:"ticks"`
	Incomplete  bool    `json:"incomplete"`
	Injected    int     `json:"injected"`
	NotInjected int     `json:"not_injected"`
	Reached     int     `json:"reached"`
	Depleted    int     `json:"depleted"`
}
