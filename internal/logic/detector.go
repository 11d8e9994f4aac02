package logic

import "time"

// Detector tracks panel state and detects debounced switch transitions.
type Detector struct {
	debounceDuration time.Duration
	switches         [NumSwitches]SwitchState
	baselined        bool
	startTime        time.Time
	eventCounts      EventCounts
	lastHeartbeat    time.Time
}

// NewDetector creates a new switch detector with the given debounce duration.
// The startTime is used for calculating uptime in heartbeats.
func NewDetector(debounceDuration time.Duration, startTime time.Time) *Detector {
	return &Detector{
		debounceDuration: debounceDuration,
		startTime:        startTime,
		lastHeartbeat:    startTime,
	}
}

// Process takes a new panel sample and returns any events that should be acted on.
// Events are only returned after baseline is established and on state transitions.
// Simultaneous transitions are returned in switch order.
func (d *Detector) Process(input Input) []Event {
	var transitions [NumSwitches]*EventType
	for i := range d.switches {
		transitions[i] = d.processSwitch(&d.switches[i], boolToState(input.Pressed(i)), input.Time)
	}

	// Check if we've established baseline
	if !d.baselined {
		for i := range d.switches {
			if !d.switches[i].Baselined {
				return nil // No events until baseline established
			}
		}
		d.baselined = true
		return nil
	}

	var events []Event
	for i, tr := range transitions {
		if tr == nil {
			continue
		}
		events = append(events, Event{
			Timestamp: input.Time,
			Switch:    i,
			Type:      *tr,
		})
		switch *tr {
		case EventPress:
			d.eventCounts.Presses++
		case EventRelease:
			d.eventCounts.Releases++
		}
	}

	return events
}

// processSwitch handles debounce logic for a single switch.
// Returns the event type if a transition occurred, nil otherwise.
func (d *Detector) processSwitch(sw *SwitchState, newState State, now time.Time) *EventType {
	// First time seeing this switch
	if !sw.Baselined {
		if sw.Pending == "" {
			// Start observing
			sw.Pending = newState
			sw.PendingSince = now
			return nil
		}

		if sw.Pending != newState {
			// State changed during baseline, restart
			sw.Pending = newState
			sw.PendingSince = now
			return nil
		}

		if now.Sub(sw.PendingSince) >= d.debounceDuration {
			sw.Stable = newState
			sw.Baselined = true
			sw.Pending = ""
		}
		return nil
	}

	if newState == sw.Stable {
		sw.Pending = ""
		return nil
	}

	if sw.Pending != newState {
		sw.Pending = newState
		sw.PendingSince = now
		return nil
	}

	if now.Sub(sw.PendingSince) >= d.debounceDuration {
		sw.Stable = newState
		sw.Pending = ""
		return eventTypeForState(newState)
	}

	return nil
}

func boolToState(b bool) State {
	if b {
		return StatePressed
	}
	return StateReleased
}

func eventTypeForState(to State) *EventType {
	event := EventRelease
	if to == StatePressed {
		event = EventPress
	}
	return &event
}

// IsBaselined returns whether the detector has established a baseline.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// CurrentState returns the stable state of switch n, or "" before its baseline.
func (d *Detector) CurrentState(n int) State {
	if n < 0 || n >= NumSwitches {
		return ""
	}
	return d.switches[n].Stable
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !d.baselined {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
	}
}
