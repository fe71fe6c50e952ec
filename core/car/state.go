package car

// State is the behavioural state of a car.
type State int

const (
	OnWayToHighway State = iota
	OnHighway
	OnWayToCharger
	Waiting
	Charging
	OnWayFromCharger
	OnWayFromHighway
	DestinationReached
	BatteryDepleted

	NumStates = int(BatteryDepleted) + 1
)

var stateNames = [NumStates]string{
	"on_way_to_highway",
	"on_highway",
	"on_way_to_charger",
	"waiting",
	"charging",
	"on_way_from_charger",
	"on_way_from_highway",
	"destination_reached",
	"battery_depleted",
}

// String returns the snake_case name used in reports.
func (s State) String() string {
	if s < 0 || int(s) >= NumStates {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the state is absorbing.
func (s State) Terminal() bool {
	return s == DestinationReached || s == BatteryDepleted
}

// States lists all states in declaration order.
func States() []State {
	out := make([]State, NumStates)
	for i := range out {
		out[i] = State(i)
	}
	return out
}
