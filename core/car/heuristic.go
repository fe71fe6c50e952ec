package car

import (
	"math"

	"github.com/kilianp07/evcorridor/core/station"
)

// Station selection scores candidates in seconds; the lowest score wins.

func (c *Car) safeRangeKm() float64 {
	return c.Type.RangeKm(c.battery) - c.env.Params.SafetyMarginKm
}

// remainingKm is the distance from the current position to the destination,
// including the way back to the highway when parked at a station.
func (c *Car) remainingKm() float64 {
	return c.offKm + c.Route.LengthKm - c.driven + c.ExitKm
}

// selectStation picks the charging stop from the highway. Candidates must lie
// within the safe range. When none does, it falls back to the nearest
// compatible station within the raw battery range, ignoring the safety
// margin. It returns noStation when the destination is within safe range or
// no compatible station is reachable at all.
func (c *Car) selectStation() int {
	if c.remainingKm() <= c.safeRangeKm() {
		return noStation
	}
	safe := c.safeRangeKm()
	best, bestScore := noStation, math.Inf(1)
	for i, st := range c.Route.Stations {
		d := c.Route.Distances[i]
		if d <= c.driven || !st.SupportsAnyOf(c.types) {
			continue
		}
		if d-c.driven > safe {
			break
		}
		travel := c.offKm + d - c.driven + st.DistanceFromHighwayKm
		if travel > safe {
			continue
		}
		if s := c.score(i, travel, st.QueueLen(), true); s < bestScore {
			best, bestScore = i, s
		}
	}
	if best != noStation {
		return best
	}
	raw := c.Type.RangeKm(c.battery)
	for i, st := range c.Route.Stations {
		d := c.Route.Distances[i]
		if d <= c.driven || !st.SupportsAnyOf(c.types) {
			continue
		}
		if c.offKm+d-c.driven+st.DistanceFromHighwayKm <= raw {
			return i
		}
	}
	return noStation
}

// rerouteWhileWaiting re-scores a bounded lookahead of the stations after
// the current one and returns one scoring strictly better than staying, or
// noStation. Ties keep the car in the queue.
func (c *Car) rerouteWhileWaiting() int {
	p := c.env.Params
	if p.WaitLookahead <= 0 {
		return noStation
	}
	cur := c.Route.Stations[c.target]
	pos := cur.QueuePosition(c.ID)
	if pos < 0 {
		pos = cur.QueueLen()
	}
	bestScore := c.score(c.target, 0, pos, false)
	best := noStation
	back := c.offKm / p.OffHighwaySpeedKmh * 3600
	safe := c.safeRangeKm()
	checked := 0
	for i := c.target + 1; i < len(c.Route.Stations) && checked < p.WaitLookahead; i++ {
		st := c.Route.Stations[i]
		d := c.Route.Distances[i]
		if d <= c.driven || !st.SupportsAnyOf(c.types) {
			continue
		}
		travel := c.offKm + d - c.driven + st.DistanceFromHighwayKm
		if travel > safe {
			if c.offKm+d-c.driven > safe {
				break
			}
			continue
		}
		checked++
		if s := c.score(i, travel, st.QueueLen(), true) + back; s < bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// score estimates the cost of stopping at station i after travelling
// travelKm, with queueAhead cars waiting in front.
func (c *Car) score(i int, travelKm float64, queueAhead int, detour bool) float64 {
	p := c.env.Params
	st := c.Route.Stations[i]
	ch := st.BestCharger(c.types)
	if ch == nil {
		return math.Inf(1)
	}
	arrival := c.battery - c.Type.EnergyFor(travelKm)
	own := ChargeTime(c.Type, arrival, c.Type.Capacity, ch.PowerKW, ch.Type, p.TaperFloor)
	n := st.CompatibleCount(c.types)
	wait := own + c.env.fleetChargeTime(st)*float64(queueAhead)/float64(2*n)

	ideal := c.driven + c.Type.RangeKm(c.battery-p.IdealStopSoC*c.Type.Capacity)
	dev := c.Route.Distances[i] - ideal
	score := wait + math.Min(p.DistancePenalty*dev*dev, p.MaxDistancePenalty)

	travelTime := travelKm / p.HighwaySpeedKmh * 3600
	if c.sinceMeal+travelTime >= p.MealInterval && !st.HasFood {
		score += p.FoodPenalty
	}
	if detour {
		score += detourTime(st, p.OffHighwaySpeedKmh)
	}
	return score
}

func detourTime(st *station.Station, speedKmh float64) float64 {
	return 2 * st.DistanceFromHighwayKm / speedKmh * 3600
}

// departureThreshold is the energy at which a charging car may leave: at
// least LeaveSoC, and enough to reach the destination or the nearest
// compatible station ahead with the safety margin.
func (c *Car) departureThreshold() float64 {
	p := c.env.Params
	need := c.remainingKm()
	for i := c.target + 1; i < len(c.Route.Stations); i++ {
		d := c.Route.Distances[i]
		if c.offKm+d-c.driven >= need {
			break
		}
		st := c.Route.Stations[i]
		if d <= c.driven || !st.SupportsAnyOf(c.types) {
			continue
		}
		need = math.Min(need, c.offKm+d-c.driven+st.DistanceFromHighwayKm)
	}
	kwh := c.Type.EnergyFor(need + p.SafetyMarginKm)
	return math.Min(c.Type.Capacity, math.Max(p.LeaveSoC*c.Type.Capacity, kwh))
}
