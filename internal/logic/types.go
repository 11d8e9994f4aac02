// Package logic contains the pure switch panel logic: debouncing raw panel
// samples into press and release events.
// This package has NO external dependencies (no GPIO, serial, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// NumSwitches is the width of the switch panel.
const NumSwitches = 8

// State represents the logical state of a panel switch.
type State string

const (
	StatePressed  State = "PRESSED"
	StateReleased State = "RELEASED"
)

// EventType represents a switch transition.
type EventType string

const (
	EventPress   EventType = "PRESS"
	EventRelease EventType = "RELEASE"
)

// Event represents a debounced switch transition.
type Event struct {
	Timestamp time.Time
	Switch    int
	Type      EventType
}

// SwitchState tracks debounce state for a single switch.
type SwitchState struct {
	// Current stable (debounced) state
	Stable State
	// Pending state during debounce
	Pending State
	// Time when pending state was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// Input represents a single sample of the panel.
type Input struct {
	Switches uint8 // bit n set = switch n pressed (already inverted from raw GPIO)
	Time     time.Time
}

// Pressed reports whether switch n is pressed in this sample.
func (in Input) Pressed(n int) bool {
	return in.Switches&(1<<uint(n)) != 0
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Presses  int
	Releases int
}

// HeartbeatData contains information for a heartbeat status line.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
