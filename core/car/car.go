package car

import (
	"fmt"
	"math"

	"github.com/kilianp07/evcorridor/core/model"
	"github.com/kilianp07/evcorridor/core/route"
	"github.com/kilianp07/evcorridor/core/station"
)

const (
	batteryEps = 1e-9
	// maxTransitions bounds state changes within one tick.
	maxTransitions = 16
	noStation      = -1
)

// Env is shared by every car of one simulation.
type Env struct {
	Params Params
	fleet  model.CarType
	memo   map[*station.Station]float64
}

// NewEnv creates the environment for one simulation. fleet is the average
// profile used to estimate how long queued cars will occupy a charger.
func NewEnv(p Params, fleet model.CarType) *Env {
	return &Env{Params: p, fleet: fleet, memo: make(map[*station.Station]float64)}
}

// fleetChargeTime estimates how long an average car charges at st.
func (e *Env) fleetChargeTime(st *station.Station) float64 {
	if v, ok := e.memo[st]; ok {
		return v
	}
	v := 0.0
	if chs := st.Chargers(); len(chs) > 0 {
		v = ChargeTime(&e.fleet, e.Params.IdealStopSoC*e.fleet.Capacity, e.fleet.Capacity, chs[0].PowerKW, chs[0].Type, e.Params.TaperFloor)
		if math.IsInf(v, 1) {
			v = 0
		}
	}
	e.memo[st] = v
	return v
}

// Options sets the initial conditions of a car.
type Options struct {
	BatteryKWh    float64
	EntryOffsetKm float64
	ExitOffsetKm  float64
	CreatedAt     float64
	// SinceMeal is the time since the driver last ate.
	SinceMeal float64
}

// Car is one vehicle agent. Cross-state scratch values (target station,
// station remembered while waiting, charging session) live on the struct
// because later states consume what earlier states decided.
type Car struct {
	ID        int
	Type      *model.CarType
	Route     *route.Route
	EntryKm   float64
	ExitKm    float64
	CreatedAt float64

	env     *Env
	types   []model.ConnectorType
	state   State
	battery float64
	driven  float64
	offKm   float64
	times   [NumStates]float64
	charged int

	charger     *station.Charger
	target      int
	next        int
	chargingFor float64
	leaveKWh    float64
	sinceMeal   float64
}

// New creates a car in OnWayToHighway.
func New(id int, typ *model.CarType, r *route.Route, env *Env, o Options) *Car {
	return &Car{
		ID:        id,
		Type:      typ,
		Route:     r,
		EntryKm:   o.EntryOffsetKm,
		ExitKm:    o.ExitOffsetKm,
		CreatedAt: o.CreatedAt,
		env:       env,
		types:     typ.Chargeable(),
		state:     OnWayToHighway,
		battery:   math.Max(0, math.Min(o.BatteryKWh, typ.Capacity)),
		target:    noStation,
		next:      noStation,
		sinceMeal: o.SinceMeal,
	}
}

// State returns the current state.
func (c *Car) State() State { return c.state }

// Terminal reports whether the car reached an absorbing state.
func (c *Car) Terminal() bool { return c.state.Terminal() }

// Battery returns the stored energy in kWh.
func (c *Car) Battery() float64 { return c.battery }

// SoC returns the state of charge in [0,1].
func (c *Car) SoC() float64 { return c.battery / c.Type.Capacity }

// DrivenKm returns the distance covered along the route.
func (c *Car) DrivenKm() float64 { return c.driven }

// TimesCharged returns the number of completed charging sessions.
func (c *Car) TimesCharged() int { return c.charged }

// StateTimes returns the seconds spent in each state.
func (c *Car) StateTimes() [NumStates]float64 { return c.times }

// Age returns the total accounted time, equal to the time since creation.
func (c *Car) Age() float64 {
	sum := 0.0
	for _, t := range c.times {
		sum += t
	}
	return sum
}

// Charger returns the held charger or nil.
func (c *Car) Charger() *station.Charger { return c.charger }

// Target returns the station the car is heading to or queuing at.
func (c *Car) Target() *station.Station {
	if c.target == noStation {
		return nil
	}
	return c.Route.Stations[c.target]
}

// Tick advances the car by dt seconds. Driving states consume only the time
// needed to reach their goal and hand the rest to the next state, so the
// per-state times always add up to dt.
func (c *Car) Tick(dt float64) error {
	remaining := dt
	for i := 0; i < maxTransitions && remaining > 0 && !c.state.Terminal(); i++ {
		s := c.state
		used, err := c.step(remaining)
		if err != nil {
			return c.fault(err)
		}
		used = math.Min(used, remaining)
		c.times[s] += used
		c.sinceMeal += used
		remaining -= used
		if c.battery <= batteryEps && !c.state.Terminal() {
			if err := c.deplete(); err != nil {
				return c.fault(err)
			}
		}
		if c.state == s {
			break
		}
	}
	if remaining > 0 {
		c.times[c.state] += remaining
		if !c.state.Terminal() {
			c.sinceMeal += remaining
		}
	}
	return nil
}

func (c *Car) fault(err error) error {
	name := ""
	if st := c.Target(); st != nil {
		name = st.Name
	}
	return fmt.Errorf("car %d (%s) in %s at station %q: %w", c.ID, c.Type.Name, c.state, name, err)
}

func (c *Car) step(budget float64) (float64, error) {
	switch c.state {
	case OnWayToHighway:
		return c.toHighway(budget), nil
	case OnHighway:
		return c.onHighway(budget), nil
	case OnWayToCharger:
		return c.toCharger(budget)
	case Waiting:
		return c.wait(budget)
	case Charging:
		return c.charge(budget)
	case OnWayFromCharger:
		return c.fromCharger(budget), nil
	case OnWayFromHighway:
		return c.fromHighway(budget), nil
	}
	return budget, nil
}

// drive covers up to gapKm within budget seconds. A car running out of
// energy stops where the battery empties.
func (c *Car) drive(gapKm, speedKmh, budget float64) (km, used float64, arrived bool) {
	if gapKm <= 0 {
		return 0, 0, true
	}
	reach := speedKmh * budget / 3600
	rng := c.Type.RangeKm(c.battery)
	switch {
	case gapKm <= reach && gapKm <= rng:
		km, used, arrived = gapKm, gapKm/speedKmh*3600, true
	case rng < reach:
		km, used = rng, rng/speedKmh*3600
	default:
		km, used = reach, budget
	}
	c.battery = math.Max(0, c.battery-c.Type.EnergyFor(km))
	return km, used, arrived
}

func (c *Car) toHighway(budget float64) float64 {
	km, used, arrived := c.drive(c.EntryKm-c.offKm, c.env.Params.OffHighwaySpeedKmh, budget)
	c.offKm += km
	if arrived {
		c.offKm = 0
		c.state = OnHighway
		c.target = c.selectStation()
	}
	return used
}

func (c *Car) onHighway(budget float64) float64 {
	goal := c.Route.LengthKm
	if c.target != noStation {
		goal = c.Route.Distances[c.target]
	}
	km, used, arrived := c.drive(goal-c.driven, c.env.Params.HighwaySpeedKmh, budget)
	c.driven += km
	if arrived {
		c.driven = goal
		c.offKm = 0
		if c.target != noStation {
			c.state = OnWayToCharger
		} else {
			c.state = OnWayFromHighway
		}
	}
	return used
}

func (c *Car) toCharger(budget float64) (float64, error) {
	st := c.Route.Stations[c.target]
	km, used, arrived := c.drive(st.DistanceFromHighwayKm-c.offKm, c.env.Params.OffHighwaySpeedKmh, budget)
	c.offKm += km
	if !arrived {
		return used, nil
	}
	c.offKm = st.DistanceFromHighwayKm
	if c.battery <= batteryEps {
		return used, nil
	}
	if st.QueueLen() == 0 {
		if ch := st.AvailableCharger(c.types); ch != nil {
			return used, c.plugIn(st, ch)
		}
	}
	st.Enqueue(c.ID)
	c.state = Waiting
	return used, nil
}

func (c *Car) wait(budget float64) (float64, error) {
	st := c.Route.Stations[c.target]
	if head, ok := st.QueueHead(); !ok || head == c.ID {
		if ch := st.AvailableCharger(c.types); ch != nil {
			st.Dequeue(c.ID)
			return 0, c.plugIn(st, ch)
		}
	}
	if alt := c.rerouteWhileWaiting(); alt != noStation {
		st.Dequeue(c.ID)
		c.next = alt
		c.state = OnWayFromCharger
		return 0, nil
	}
	return budget, nil
}

func (c *Car) plugIn(st *station.Station, ch *station.Charger) error {
	if err := st.Acquire(ch, c.ID); err != nil {
		return err
	}
	c.charger = ch
	c.chargingFor = 0
	c.leaveKWh = c.departureThreshold()
	c.state = Charging
	return nil
}

func (c *Car) charge(budget float64) (float64, error) {
	st := c.Route.Stations[c.target]
	p := c.env.Params
	used := 0.0
	for used < budget && !c.readyToLeave(st) {
		step := math.Min(1, budget-used)
		kw := ChargePower(c.Type, c.SoC(), c.charger.PowerKW, c.charger.Type, p.TaperFloor)
		if kw <= 0 {
			break
		}
		c.battery = math.Min(c.Type.Capacity, c.battery+kw*step/3600)
		used += step
		c.chargingFor += step
	}
	if used < budget || c.readyToLeave(st) {
		return used, c.unplug(st)
	}
	return used, nil
}

func (c *Car) readyToLeave(st *station.Station) bool {
	full := c.battery >= c.Type.Capacity-batteryEps
	if !full && c.battery < c.leaveKWh {
		return false
	}
	return !c.eating(st)
}

// eating holds a hungry driver at a station serving food until the meal is
// over.
func (c *Car) eating(st *station.Station) bool {
	p := c.env.Params
	return st.HasFood && c.sinceMeal >= p.MealInterval && c.chargingFor < p.MealDuration
}

func (c *Car) unplug(st *station.Station) error {
	if err := st.Release(c.charger, c.ID); err != nil {
		return err
	}
	c.charger = nil
	c.charged++
	if st.HasFood && c.sinceMeal >= c.env.Params.MealInterval {
		c.sinceMeal = 0
	}
	c.next = noStation
	c.state = OnWayFromCharger
	return nil
}

func (c *Car) fromCharger(budget float64) float64 {
	km, used, arrived := c.drive(c.offKm, c.env.Params.OffHighwaySpeedKmh, budget)
	c.offKm -= km
	if arrived {
		c.offKm = 0
		c.state = OnHighway
		if c.next != noStation {
			c.target, c.next = c.next, noStation
		} else {
			c.target = c.selectStation()
		}
	}
	return used
}

func (c *Car) fromHighway(budget float64) float64 {
	km, used, arrived := c.drive(c.ExitKm-c.offKm, c.env.Params.OffHighwaySpeedKmh, budget)
	c.offKm += km
	if arrived {
		c.offKm = c.ExitKm
		c.state = DestinationReached
	}
	return used
}

// deplete moves the car to BatteryDepleted, freeing any charger or queue
// slot it holds.
func (c *Car) deplete() error {
	if c.target != noStation {
		st := c.Route.Stations[c.target]
		st.Dequeue(c.ID)
		if c.charger != nil {
			if err := st.Release(c.charger, c.ID); err != nil {
				return err
			}
			c.charger = nil
		}
	}
	c.battery = 0
	c.state = BatteryDepleted
	return nil
}
