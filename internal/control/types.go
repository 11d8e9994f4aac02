// Package control holds the tank's control loops: the refill state machine
// that drives the pump from the water distance, and the heater thermostat.
package control

// Actuator is a switched load such as the pump or the heating element.
type Actuator interface {
	Start()
	Stop()
}

// DebounceTimer is an overflow counter armed by Start and cleared by Stop.
type DebounceTimer interface {
	Start()
	Stop()
	Count() uint8
}

// State is a refill state.
type State int

// Refill states.
const (
	CheckDistance State = iota
	TimerRunning
	ForceRefill
)

func (s State) String() string {
	switch s {
	case CheckDistance:
		return "CHECK_DISTANCE"
	case TimerRunning:
		return "TIMER_RUNNING"
	case ForceRefill:
		return "FORCE_REFILL"
	}
	return "UNKNOWN"
}

// Limits configures the refill state machine. Distances are measured from
// the sensor down to the water, in millimetres.
type Limits struct {
	// MaxDistance is the distance at or beyond which the tank is empty.
	MaxDistance uint16

	// MinDistance is the distance at or below which the tank is full.
	MinDistance uint16

	// StabilityThreshold separates noise from a real level change.
	StabilityThreshold uint16

	// DebounceOverflows is the number of debounce timer overflows a stable
	// level must last before a refill is forced.
	DebounceOverflows uint8
}
