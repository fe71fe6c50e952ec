package station

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/kilianp07/evcorridor/core/model"
)

// NoCar marks a charger without a holder.
const NoCar = -1

var (
	// ErrChargerInUse is returned when acquiring a charger held by another car.
	ErrChargerInUse = errors.New("charger already in use")
	// ErrNotHolder is returned when a car releases a charger it does not hold.
	ErrNotHolder = errors.New("charger not held by car")
)

// Charger is one charging point of a station.
type Charger struct {
	Index   int
	PowerKW float64
	Type    model.ConnectorType
	holder  int
}

// InUse reports whether a car holds the charger.
func (c *Charger) InUse() bool { return c.holder != NoCar }

// Holder returns the id of the holding car or NoCar.
func (c *Charger) Holder() int { return c.holder }

// Amenities describes services available at a station.
type Amenities struct {
	HasShop           bool `json:"shop"`
	HasFood           bool `json:"food"`
	CustomerExclusive bool `json:"exclusive"`
}

// Station owns a set of chargers and a FIFO admission queue. It is not safe
// for concurrent use; a simulation mutates it from a single goroutine.
type Station struct {
	Name string
	// PositionKm is the distance from the start of the owning segment.
	PositionKm float64
	// DistanceFromHighwayKm is the one-way detour to reach the station.
	DistanceFromHighwayKm float64
	Amenities

	chargers []*Charger
	queue    []int
}

// New creates a station without chargers.
func New(name string, positionKm, distanceFromHighwayKm float64, am Amenities) *Station {
	return &Station{
		Name:                  name,
		PositionKm:            positionKm,
		DistanceFromHighwayKm: distanceFromHighwayKm,
		Amenities:             am,
	}
}

// AddChargers adds count chargers of the given power and type, keeping the
// chargers sorted by descending power.
func (s *Station) AddChargers(powerKW float64, typ model.ConnectorType, count int) {
	for i := 0; i < count; i++ {
		s.chargers = append(s.chargers, &Charger{PowerKW: powerKW, Type: typ, holder: NoCar})
	}
	sort.SliceStable(s.chargers, func(i, j int) bool { return s.chargers[i].PowerKW > s.chargers[j].PowerKW })
	for i, c := range s.chargers {
		c.Index = i
	}
}

// Chargers returns the chargers sorted by descending power. The slice must
// not be modified.
func (s *Station) Chargers() []*Charger { return s.chargers }

// AvailableCharger returns the first free charger whose type is in types.
func (s *Station) AvailableCharger(types []model.ConnectorType) *Charger {
	for _, c := range s.chargers {
		if !c.InUse() && slices.Contains(types, c.Type) {
			return c
		}
	}
	return nil
}

// BestCharger returns the most powerful compatible charger regardless of
// occupancy.
func (s *Station) BestCharger(types []model.ConnectorType) *Charger {
	for _, c := range s.chargers {
		if slices.Contains(types, c.Type) {
			return c
		}
	}
	return nil
}

// SupportsAnyOf reports whether any charger matches one of types.
func (s *Station) SupportsAnyOf(types []model.ConnectorType) bool {
	return s.BestCharger(types) != nil
}

// CompatibleCount counts chargers matching one of types.
func (s *Station) CompatibleCount(types []model.ConnectorType) int {
	n := 0
	for _, c := range s.chargers {
		if slices.Contains(types, c.Type) {
			n++
		}
	}
	return n
}

// ChargersInUse counts occupied chargers.
func (s *Station) ChargersInUse() int {
	n := 0
	for _, c := range s.chargers {
		if c.InUse() {
			n++
		}
	}
	return n
}

// Acquire leases the charger to carID.
func (s *Station) Acquire(c *Charger, carID int) error {
	if c.InUse() {
		return fmt.Errorf("station %q charger %d held by car %d: %w", s.Name, c.Index, c.holder, ErrChargerInUse)
	}
	c.holder = carID
	return nil
}

// Release frees the charger held by carID.
func (s *Station) Release(c *Charger, carID int) error {
	if c.holder != carID {
		return fmt.Errorf("station %q charger %d released by car %d: %w", s.Name, c.Index, carID, ErrNotHolder)
	}
	c.holder = NoCar
	return nil
}

// Enqueue appends carID to the queue unless it is already waiting.
func (s *Station) Enqueue(carID int) {
	if slices.Contains(s.queue, carID) {
		return
	}
	s.queue = append(s.queue, carID)
}

// Dequeue removes carID from anywhere in the queue.
func (s *Station) Dequeue(carID int) bool {
	i := slices.Index(s.queue, carID)
	if i < 0 {
		return false
	}
	s.queue = slices.Delete(s.queue, i, i+1)
	return true
}

// QueueHead returns the first waiting car.
func (s *Station) QueueHead() (int, bool) {
	if len(s.queue) == 0 {
		return NoCar, false
	}
	return s.queue[0], true
}

// QueueLen returns the number of waiting cars.
func (s *Station) QueueLen() int { return len(s.queue) }

// QueuePosition returns the number of cars ahead of carID, or -1.
func (s *Station) QueuePosition(carID int) int { return slices.Index(s.queue, carID) }

// Clone returns a deep copy with every charger free and an empty queue.
func (s *Station) Clone() *Station {
	out := New(s.Name, s.PositionKm, s.DistanceFromHighwayKm, s.Amenities)
	out.chargers = make([]*Charger, len(s.chargers))
	for i, c := range s.chargers {
		out.chargers[i] = &Charger{Index: c.Index, PowerKW: c.PowerKW, Type: c.Type, holder: NoCar}
	}
	return out
}
