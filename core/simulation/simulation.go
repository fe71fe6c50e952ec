// Package simulation drives one population of cars over a corridor network in
// fixed time steps.
package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/evcorridor/core/car"
	"github.com/kilianp07/evcorridor/core/logger"
	"github.com/kilianp07/evcorridor/core/route"
)

// progressEvery is the tick interval of debug progress logs.
const progressEvery = 360

// Simulation owns a private copy of the network, its car pool and its clock.
// Step mutates under the write lock; accessors take the read lock and may be
// called from other goroutines while the run is in progress.
type Simulation struct {
	mu sync.RWMutex

	cfg    Config
	log    logger.Logger
	net    *route.Network
	segIdx map[*route.Segment]int
	dist   distuv.Normal

	pending  []*car.Car
	active   []*car.Car
	released int
	arrivals float64

	elapsed    float64
	ticks      int
	snapshots  []Snapshot
	done       bool
	incomplete bool

	tps atomic.Int64
}

// New builds a simulation over a clone of net. The car pool is generated
// up front from the configured seed.
func New(cfg Config, net *route.Network, log logger.Logger) (*Simulation, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("simulation %s: %w", cfg.Name, err)
	}
	if net == nil || len(net.Segments()) == 0 {
		return nil, fmt.Errorf("simulation %s: empty network", cfg.Name)
	}
	s := &Simulation{
		cfg:  cfg,
		log:  logger.OrNop(log),
		net:  net.Clone(),
		dist: distuv.Normal{Mu: cfg.MeanSeconds, Sigma: cfg.StdDevSeconds},
	}
	s.segIdx = make(map[*route.Segment]int, len(s.net.Segments()))
	for i, seg := range s.net.Segments() {
		s.segIdx[seg] = i
	}
	if err := s.generate(); err != nil {
		return nil, fmt.Errorf("simulation %s: %w", cfg.Name, err)
	}
	return s, nil
}

// generate fills the pending pool. Car types are visited in shuffled order
// and each contributes its population share of CarCount, carrying the
// fractional remainder to the next type.
func (s *Simulation) generate() error {
	rng := rand.New(rand.NewSource(s.cfg.Seed))
	types := s.cfg.Catalog.Types()
	order := rng.Perm(len(types))
	total := float64(s.cfg.Catalog.TotalPopulation())
	env := car.NewEnv(s.cfg.Car, s.cfg.Catalog.Average())

	counts := make([]int, len(types))
	carry := 0.0
	assigned := 0
	for _, i := range order {
		carry += float64(types[i].Population) / total * float64(s.cfg.CarCount)
		n := int(math.Floor(carry + 1e-9))
		carry -= float64(n)
		counts[i] = n
		assigned += n
	}
	if missing := s.cfg.CarCount - assigned; missing > 0 {
		counts[order[len(order)-1]] += missing
	}

	kinds := make([]int, 0, s.cfg.CarCount)
	for _, i := range order {
		for k := 0; k < counts[i]; k++ {
			kinds = append(kinds, i)
		}
	}
	rng.Shuffle(len(kinds), func(a, b int) { kinds[a], kinds[b] = kinds[b], kinds[a] })

	s.pending = make([]*car.Car, 0, len(kinds))
	for id, k := range kinds {
		r, err := s.net.RandomRoute(rng)
		if err != nil {
			return err
		}
		typ := &types[k]
		soc := s.cfg.MinInitialSoC + rng.Float64()*(s.cfg.MaxInitialSoC-s.cfg.MinInitialSoC)
		s.pending = append(s.pending, car.New(id, typ, r, env, car.Options{
			BatteryKWh:    soc * typ.Capacity,
			EntryOffsetKm: rng.Float64() * s.cfg.MaxEntryOffsetKm,
			ExitOffsetKm:  rng.Float64() * s.cfg.MaxExitOffsetKm,
			SinceMeal:     rng.Float64() * s.cfg.Car.MealInterval,
		}))
	}
	return nil
}

// SetTPS paces Run to n ticks per second. Zero or less runs unthrottled.
func (s *Simulation) SetTPS(n int) { s.tps.Store(int64(n)) }

// TPS returns the current pace.
func (s *Simulation) TPS() int { return int(s.tps.Load()) }

// Run steps until termination or until ctx is cancelled.
func (s *Simulation) Run(ctx context.Context) (Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return s.Result(), err
		}
		done, err := s.Step()
		if err != nil {
			return s.Result(), err
		}
		if done {
			return s.Result(), nil
		}
		if tps := s.TPS(); tps > 0 {
			t := time.NewTimer(time.Second / time.Duration(tps))
			select {
			case <-ctx.Done():
				t.Stop()
				return s.Result(), ctx.Err()
			case <-t.C:
			}
		}
	}
}

// Step advances the simulation by one tick and reports whether it has
// finished. Cars are advanced in insertion order so queue outcomes are
// deterministic.
func (s *Simulation) Step() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return true, nil
	}
	dt := s.cfg.TimeStep
	for _, c := range s.active {
		if err := c.Tick(dt); err != nil {
			s.done = true
			return true, fmt.Errorf("simulation %s tick %d: %w", s.cfg.Name, s.ticks, err)
		}
	}
	prev := s.elapsed
	s.elapsed += dt
	s.ticks++
	s.release(prev)
	s.snapshots = append(s.snapshots, s.capture())

	if s.ticks%progressEvery == 0 {
		last := s.snapshots[len(s.snapshots)-1]
		s.log.Debugw("simulation progress", map[string]any{
			"simulation": s.cfg.Name,
			"tick":       s.ticks,
			"active":     last.Active(),
			"pending":    len(s.pending) - s.released,
		})
	}

	switch {
	case s.finished():
		s.done = true
		s.log.Infof("simulation %s finished after %d ticks (%.0f s)", s.cfg.Name, s.ticks, s.elapsed)
	case s.ticks >= s.cfg.MaxTicks:
		s.done = true
		s.incomplete = true
		s.log.Errorf("simulation %s forced stop at tick ceiling %d with %d active cars", s.cfg.Name, s.cfg.MaxTicks, s.activeCount())
	}
	return s.done, nil
}

// release injects the pending cars whose cumulative arrival mass was crossed
// during (prev, elapsed].
func (s *Simulation) release(prev float64) {
	n := float64(s.cfg.CarCount)
	s.arrivals += n * (s.dist.CDF(s.elapsed) - s.dist.CDF(prev))
	for s.released < len(s.pending) && float64(s.released+1) <= s.arrivals+1e-9 {
		c := s.pending[s.released]
		c.CreatedAt = s.elapsed
		s.active = append(s.active, c)
		s.released++
	}
}

func (s *Simulation) finished() bool {
	if s.elapsed <= s.cfg.MeanSeconds {
		return false
	}
	for _, c := range s.active {
		if !c.Terminal() {
			return false
		}
	}
	if s.released == len(s.pending) {
		return true
	}
	return float64(s.cfg.CarCount)*(1-s.dist.CDF(s.elapsed)) < 1
}

func (s *Simulation) activeCount() int {
	n := 0
	for _, c := range s.active {
		if !c.Terminal() {
			n++
		}
	}
	return n
}

func (s *Simulation) segmentOf(c *car.Car) int {
	return s.segIdx[c.Route.LegAt(c.DrivenKm()).Segment]
}

func (s *Simulation) capture() Snapshot {
	nseg := len(s.net.Segments())
	snap := Snapshot{
		Tick:             s.ticks,
		ElapsedS:         s.elapsed,
		SegmentStates:    make([][car.NumStates]int, nseg),
		CarsOnSegment:    make([]int, nseg),
		WaitingOnSegment: s.net.Waiting(),
		ChargersInUse:    s.net.ChargersInUse(),
	}
	for _, c := range s.active {
		st := c.State()
		snap.States[st]++
		if st.Terminal() {
			continue
		}
		i := s.segmentOf(c)
		snap.SegmentStates[i][st]++
		snap.CarsOnSegment[i]++
	}
	return snap
}

// Name returns the configured name.
func (s *Simulation) Name() string { return s.cfg.Name }

// Config returns the effective configuration.
func (s *Simulation) Config() Config { return s.cfg }

// TimeStep returns the tick length in seconds.
func (s *Simulation) TimeStep() float64 { return s.cfg.TimeStep }

// Network returns the simulation's own network. Callers must not mutate it.
func (s *Simulation) Network() *route.Network { return s.net }

// SegmentIDs lists segment ids in snapshot order.
func (s *Simulation) SegmentIDs() []string {
	segs := s.net.Segments()
	out := make([]string, len(segs))
	for i, seg := range segs {
		out[i] = seg.ID
	}
	return out
}

// Elapsed returns the simulated time in seconds.
func (s *Simulation) Elapsed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

// Ticks returns the number of completed ticks.
func (s *Simulation) Ticks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

// Pending returns the number of cars not yet released.
func (s *Simulation) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending) - s.released
}

// Done reports whether the run has terminated.
func (s *Simulation) Done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// Cars returns views of every released car in release order.
func (s *Simulation) Cars() []CarView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CarView, len(s.active))
	for i, c := range s.active {
		v := CarView{
			ID:            c.ID,
			Type:          c.Type.Name,
			State:         c.State(),
			StateName:     c.State().String(),
			BatteryKWh:    c.Battery(),
			CapacityKWh:   c.Type.Capacity,
			RouteName:     c.Route.Name,
			RouteLengthKm: c.Route.LengthKm,
			DrivenKm:      c.DrivenKm(),
			CreatedAtS:    c.CreatedAt,
			TimesCharged:  c.TimesCharged(),
			StateTimes:    c.StateTimes(),
			Segment:       -1,
		}
		if !c.Terminal() {
			v.Segment = s.segmentOf(c)
		}
		for _, l := range c.Route.Legs {
			v.Segments = append(v.Segments, s.segIdx[l.Segment])
		}
		out[i] = v
	}
	return out
}

// Snapshots returns a copy of the per-tick series.
func (s *Simulation) Snapshots() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, len(s.snapshots))
	copy(out, s.snapshots)
	return out
}

// Snapshot returns the latest snapshot, false before the first tick.
func (s *Simulation) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.snapshots) == 0 {
		return Snapshot{}, false
	}
	return s.snapshots[len(s.snapshots)-1], true
}

// Result summarises the run so far.
func (s *Simulation) Result() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := Result{
		Name:        s.cfg.Name,
		Seed:        s.cfg.Seed,
		ElapsedS:    s.elapsed,
		Ticks:       s.ticks,
		Incomplete:  s.incomplete,
		Injected:    s.released,
		NotInjected: len(s.pending) - s.released,
	}
	for _, c := range s.active {
		switch c.State() {
		case car.DestinationReached:
			r.Reached++
		case car.BatteryDepleted:
			r.Depleted++
		}
	}
	return r
}
