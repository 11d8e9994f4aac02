package control

import "log"

// Refill decides when to run the pump.
//
// While the level is falling (hot water being drawn) the pump stays off. Once
// the level has been stable for the debounce period, or the tank runs empty,
// it refills until the full mark.
type Refill struct {
	limits Limits
	pump   Actuator
	timer  DebounceTimer
	state  State
}

// NewRefill creates a Refill in CheckDistance.
func NewRefill(limits Limits, pump Actuator, timer DebounceTimer) *Refill {
	return &Refill{
		limits: limits,
		pump:   pump,
		timer:  timer,
		state:  CheckDistance,
	}
}

// State returns the current state.
func (r *Refill) State() State {
	return r.state
}

// Step advances the state machine with the filtered distance cur and the
// trend baseline last.
func (r *Refill) Step(cur, last uint16) {
	prev := r.state

	switch r.state {
	case CheckDistance:
		r.timer.Stop()
		if r.levelFull(cur) {
			return
		} else if r.levelEmpty(cur) {
			r.state = ForceRefill
		} else if r.rising(cur, last) {
			r.pump.Stop()
		} else if r.stable(cur, last) {
			r.timer.Start()
			r.state = TimerRunning
		}

	case TimerRunning:
		if r.timer.Count() >= r.limits.DebounceOverflows && r.stable(cur, last) {
			r.state = ForceRefill
		}
		if r.rising(cur, last) {
			r.state = CheckDistance
		}

	case ForceRefill:
		r.timer.Stop()
		// Keep filling from anywhere short of the full mark, including
		// beyond the empty mark.
		if r.withinBounds(cur) || r.levelEmpty(cur) {
			r.pump.Start()
		} else if r.levelFull(cur) {
			r.pump.Stop()
			r.state = CheckDistance
		}
	}

	if r.state != prev {
		log.Printf("refill: %s -> %s (distance=%d last=%d)", prev, r.state, cur, last)
	}
}

func (r *Refill) levelFull(cur uint16) bool {
	return cur <= r.limits.MinDistance
}

func (r *Refill) levelEmpty(cur uint16) bool {
	return cur >= r.limits.MaxDistance
}

func (r *Refill) withinBounds(cur uint16) bool {
	return cur > r.limits.MinDistance && cur < r.limits.MaxDistance
}

// rising reports the distance growing faster than noise, i.e. the level
// dropping.
func (r *Refill) rising(cur, last uint16) bool {
	return int(cur)-int(last) > int(r.limits.StabilityThreshold)
}

func (r *Refill) stable(cur, last uint16) bool {
	d := int(cur) - int(last)
	if d < 0 {
		d = -d
	}
	return d < int(r.limits.StabilityThreshold)
}
