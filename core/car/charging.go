package car

import (
	"math"

	"github.com/kilianp07/evcorridor/core/model"
)

// SoC bands of the charge curve.
const (
	lowBand = 0.05
	midBand = 0.25
)

// ChargePower returns the power in kW delivered at the given state of charge.
// The cap is the lower of the charger rating and the car's limit for the
// connector's current family. Below 5% the car draws half the cap, between 5%
// and 25% the full cap, then power tapers linearly down to floor×cap at 100%.
func ChargePower(t *model.CarType, soc, chargerKW float64, conn model.ConnectorType, floor float64) float64 {
	limit := math.Min(t.MaxPower(conn), chargerKW)
	if limit <= 0 {
		return 0
	}
	switch {
	case soc < lowBand:
		return 0.5 * limit
	case soc < midBand:
		return limit
	default:
		k := (1 - floor) / (1 - midBand)
		return limit * (1 - k*(math.Min(soc, 1)-midBand))
	}
}

// ChargeTime returns the seconds needed to charge from fromKWh to toKWh. It
// returns +Inf when the car cannot draw power from the connector.
func ChargeTime(t *model.CarType, fromKWh, toKWh, chargerKW float64, conn model.ConnectorType, floor float64) float64 {
	limit := math.Min(t.MaxPower(conn), chargerKW)
	if limit <= 0 {
		return math.Inf(1)
	}
	fromKWh = math.Max(0, fromKWh)
	toKWh = math.Min(t.Capacity, toKWh)
	if toKWh <= fromKWh {
		return 0
	}
	s0, s1 := fromKWh/t.Capacity, toKWh/t.Capacity
	secs := 0.0
	if a, b := overlap(s0, s1, 0, lowBand); b > a {
		secs += (b - a) * t.Capacity / (0.5 * limit) * 3600
	}
	if a, b := overlap(s0, s1, lowBand, midBand); b > a {
		secs += (b - a) * t.Capacity / limit * 3600
	}
	if a, b := overlap(s0, s1, midBand, 1); b > a {
		k := (1 - floor) / (1 - midBand)
		if k < 1e-12 {
			secs += (b - a) * t.Capacity / limit * 3600
		} else {
			secs += 3600 * t.Capacity / (limit * k) * math.Log((1-k*(a-midBand))/(1-k*(b-midBand)))
		}
	}
	return secs
}

func overlap(a, b, lo, hi float64) (float64, float64) {
	return math.Max(a, lo), math.Min(b, hi)
}
