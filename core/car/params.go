package car

import "fmt"

// Params tunes driving physics and the station-selection heuristic. Times are
// in seconds, distances in kilometres.
type Params struct {
	HighwaySpeedKmh    float64 `json:"highway_speed_kmh"`
	OffHighwaySpeedKmh float64 `json:"off_highway_speed_kmh"`
	SafetyMarginKm     float64 `json:"safety_margin_km"`
	// LeaveSoC is the state of charge at which a car may stop charging.
	LeaveSoC float64 `json:"leave_soc"`
	// TaperFloor is the fraction of capacity delivered at 100% SoC.
	TaperFloor float64 `json:"taper_floor"`
	// WaitLookahead bounds the stations re-scored by a waiting car.
	WaitLookahead int `json:"wait_lookahead"`
	// IdealStopSoC places the ideal stopping point of the heuristic.
	IdealStopSoC       float64 `json:"ideal_stop_soc"`
	DistancePenalty    float64 `json:"distance_penalty"` // seconds per km²
	MaxDistancePenalty float64 `json:"max_distance_penalty"`
	FoodPenalty        float64 `json:"food_penalty"`
	MealInterval       float64 `json:"meal_interval"`
	MealDuration       float64 `json:"meal_duration"`
}

// DefaultParams returns the calibrated defaults.
func DefaultParams() Params {
	return Params{
		HighwaySpeedKmh:    100,
		OffHighwaySpeedKmh: 40,
		SafetyMarginKm:     20,
		LeaveSoC:           0.8,
		TaperFloor:         0.3,
		WaitLookahead:      3,
		IdealStopSoC:       0.2,
		DistancePenalty:    0.5,
		MaxDistancePenalty: 3600,
		FoodPenalty:        1800,
		MealInterval:       4 * 3600,
		MealDuration:       30 * 60,
	}
}

// SetDefaults fills zero values with defaults.
func (p *Params) SetDefaults() {
	d := DefaultParams()
	if p.HighwaySpeedKmh == 0 {
		p.HighwaySpeedKmh = d.HighwaySpeedKmh
	}
	if p.OffHighwaySpeedKmh == 0 {
		p.OffHighwaySpeedKmh = d.OffHighwaySpeedKmh
	}
	if p.SafetyMarginKm == 0 {
		p.SafetyMarginKm = d.SafetyMarginKm
	}
	if p.LeaveSoC == 0 {
		p.LeaveSoC = d.LeaveSoC
	}
	if p.TaperFloor == 0 {
		p.TaperFloor = d.TaperFloor
	}
	if p.WaitLookahead == 0 {
		p.WaitLookahead = d.WaitLookahead
	}
	if p.IdealStopSoC == 0 {
		p.IdealStopSoC = d.IdealStopSoC
	}
	if p.DistancePenalty == 0 {
		p.DistancePenalty = d.DistancePenalty
	}
	if p.MaxDistancePenalty == 0 {
		p.MaxDistancePenalty = d.MaxDistancePenalty
	}
	if p.FoodPenalty == 0 {
		p.FoodPenalty = d.FoodPenalty
	}
	if p.MealInterval == 0 {
		p.MealInterval = d.MealInterval
	}
	if p.MealDuration == 0 {
		p.MealDuration = d.MealDuration
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if p.HighwaySpeedKmh <= 0 || p.OffHighwaySpeedKmh <= 0 {
		return fmt.Errorf("speeds must be positive")
	}
	if p.SafetyMarginKm < 0 {
		return fmt.Errorf("safety margin must not be negative")
	}
	if p.LeaveSoC <= 0 || p.LeaveSoC > 1 {
		return fmt.Errorf("leave_soc must be in (0,1]")
	}
	if p.TaperFloor <= 0 || p.TaperFloor > 1 {
		return fmt.Errorf("taper_floor must be in (0,1]")
	}
	if p.WaitLookahead < 0 {
		return fmt.Errorf("wait_lookahead must not be negative")
	}
	if p.IdealStopSoC < 0 || p.IdealStopSoC >= 1 {
		return fmt.Errorf("ideal_stop_soc must be in [0,1)")
	}
	return nil
}
