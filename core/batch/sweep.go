package batch

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/kilianp07/evcorridor/core/logger"
	"github.com/kilianp07/evcorridor/core/model"
	"github.com/kilianp07/evcorridor/core/route"
	"github.com/kilianp07/evcorridor/core/simulation"
)

// Winter coefficients applied to charging power and driving range.
const (
	WinterChargeCoeff = 0.5
	WinterDriveCoeff  = 0.5
)

// Range is an inclusive arithmetic progression. A zero or negative Step
// yields From alone.
type Range struct {
	From float64 `json:"from" yaml:"from"`
	To   float64 `json:"to" yaml:"to"`
	Step float64 `json:"step" yaml:"step"`
}

// Single returns a range holding only v.
func Single(v float64) Range { return Range{From: v, To: v} }

// Values lists the points of the range.
func (r Range) Values() []float64 {
	if r.Step <= 0 || r.To <= r.From {
		return []float64{r.From}
	}
	n := int(math.Floor((r.To-r.From)/r.Step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = r.From + float64(i)*r.Step
	}
	return out
}

// Sweep describes a grid of simulations. Percentages are relative to the
// loaded data, 100 meaning unchanged.
type Sweep struct {
	Cars          Range  `json:"cars" yaml:"cars"`
	StdDevSeconds Range  `json:"std_dev_seconds" yaml:"std_dev_seconds"`
	PowerPct      Range  `json:"charging_power_pct" yaml:"charging_power_pct"`
	ChargerPct    Range  `json:"charger_amount_pct" yaml:"charger_amount_pct"`
	EfficiencyPct Range  `json:"efficiency_pct" yaml:"efficiency_pct"`
	Repeat        int    `json:"repeat" yaml:"repeat"`
	Winter        []bool `json:"winter" yaml:"winter"`
	Seed          int64  `json:"seed" yaml:"seed"`
}

// DefaultSweep is a single summer run of 1000 cars.
func DefaultSweep() Sweep {
	return Sweep{
		Cars:          Single(1000),
		StdDevSeconds: Single(simulation.DefaultStdDev),
		PowerPct:      Single(100),
		ChargerPct:    Single(100),
		EfficiencyPct: Single(100),
		Repeat:        1,
		Winter:        []bool{false},
	}
}

// SetDefaults fills unset ranges from DefaultSweep.
func (s *Sweep) SetDefaults() {
	d := DefaultSweep()
	for _, f := range []struct{ r, def *Range }{
		{&s.Cars, &d.Cars},
		{&s.StdDevSeconds, &d.StdDevSeconds},
		{&s.PowerPct, &d.PowerPct},
		{&s.ChargerPct, &d.ChargerPct},
		{&s.EfficiencyPct, &d.EfficiencyPct},
	} {
		if *f.r == (Range{}) {
			*f.r = *f.def
		}
	}
	if s.Repeat == 0 {
		s.Repeat = d.Repeat
	}
	if len(s.Winter) == 0 {
		s.Winter = d.Winter
	}
}

// Validate checks the sweep.
func (s Sweep) Validate() error {
	if s.Repeat <= 0 {
		return fmt.Errorf("sweep: repeat must be positive")
	}
	if len(s.Winter) == 0 {
		return fmt.Errorf("sweep: winter must list at least one season")
	}
	for name, r := range map[string]Range{"cars": s.Cars, "std_dev_seconds": s.StdDevSeconds, "charging_power_pct": s.PowerPct, "charger_amount_pct": s.ChargerPct, "efficiency_pct": s.EfficiencyPct} {
		if r.From < 0 || (name != "cars" && r.From <= 0) {
			return fmt.Errorf("sweep: %s must start above zero", name)
		}
	}
	return nil
}

// Point is one cell of the grid.
type Point struct {
	Repeat        int
	Cars          int
	StdDevSeconds float64
	PowerPct      float64
	EfficiencyPct float64
	ChargerPct    float64
	Winter        bool
	Seed          int64
}

// Name identifies the point in output file names.
func (p Point) Name() string {
	season := "s"
	if p.Winter {
		season = "w"
	}
	return fmt.Sprintf("r%d-c%d-s%d-p%d-e%d-a%d-%s",
		p.Repeat, p.Cars, int(math.Round(p.StdDevSeconds)), int(math.Round(p.PowerPct)),
		int(math.Round(p.EfficiencyPct)), int(math.Round(p.ChargerPct)), season)
}

// Points expands the grid. Seeds are drawn in order from the master seed so
// a sweep is reproducible.
func (s Sweep) Points() []Point {
	rng := rand.New(rand.NewSource(s.Seed))
	var out []Point
	for r := 0; r < s.Repeat; r++ {
		for _, cars := range s.Cars.Values() {
			for _, sd := range s.StdDevSeconds.Values() {
				for _, p := range s.PowerPct.Values() {
					for _, e := range s.EfficiencyPct.Values() {
						for _, a := range s.ChargerPct.Values() {
							for _, w := range s.Winter {
								out = append(out, Point{
									Repeat:        r,
									Cars:          int(math.Round(cars)),
									StdDevSeconds: sd,
									PowerPct:      p,
									EfficiencyPct: e,
									ChargerPct:    a,
									Winter:        w,
									Seed:          rng.Int63(),
								})
							}
						}
					}
				}
			}
		}
	}
	return out
}

// Plan turns the sweep into units. base supplies the settings the sweep
// does not vary; each unit builds its own network from corridor and its own
// scaled copy of catalog.
func Plan(s Sweep, base simulation.Config, corridor *route.Corridor, catalog model.Catalog, log logger.Logger) ([]Unit, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if corridor == nil {
		return nil, fmt.Errorf("sweep: no corridor")
	}
	points := s.Points()
	units := make([]Unit, len(points))
	for i, p := range points {
		p := p
		units[i] = Unit{
			Name: p.Name(),
			Build: func() (*simulation.Simulation, error) {
				net, err := corridor.Build(p.ChargerPct / 100)
				if err != nil {
					return nil, err
				}
				cat := catalog.Scaled(p.EfficiencyPct/100, p.PowerPct/100)
				if p.Winter {
					cat = cat.Winter(WinterChargeCoeff, WinterDriveCoeff)
				}
				cfg := base
				cfg.Name = p.Name()
				cfg.CarCount = p.Cars
				cfg.StdDevSeconds = p.StdDevSeconds
				cfg.MeanSeconds = 4 * p.StdDevSeconds
				cfg.Seed = p.Seed
				cfg.Catalog = cat
				return simulation.New(cfg, net, log)
			},
		}
	}
	return units, nil
}
