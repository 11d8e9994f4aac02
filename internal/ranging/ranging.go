// Package ranging measures the distance from the tank lid to the water with
// an ultrasonic echo sensor.
//
// A measurement is triggered from the main loop. The echo pulse is timed by
// a 16-bit capture counter whose edge interrupt converts the pulse width to a
// distance and folds it into a moving average. The counter's overflow
// interrupt re-opens the trigger gate two periods after each trigger, which
// bounds the measurement rate.
//
// Ownership: the gate (readingAllowed, overflows) is shared between Trigger
// and the overflow interrupt and is only touched inside irq sections.
// Capture timestamps and the filter belong to the capture interrupt. The
// filtered distances are written by the capture interrupt and read by the
// main loop inside irq sections. The unread flag is a single atomic flag and
// needs no section.
package ranging

import (
	"sync/atomic"

	"github.com/sweeney/tank-controller/internal/irq"
	"github.com/sweeney/tank-controller/internal/timer"
)

const (
	// MaxTick is the largest value of the 16-bit capture counter.
	MaxTick = 0xFFFF

	// GateOverflows is the number of counter overflows after a trigger
	// before the next trigger is allowed.
	GateOverflows = 2
)

// Hardware is the sonar front end: a trigger output and an echo input timed
// by a capture unit sharing one counter with the overflow interrupt.
type Hardware interface {
	timer.Source

	// AttachCapture registers the capture interrupt handler, which receives
	// the counter value latched on each captured edge.
	AttachCapture(handler func(ticks uint16))

	// SetCaptureEdge selects the edge the capture unit latches on.
	SetCaptureEdge(rising bool)

	// Pulse emits the trigger pulse. Blocks for the pulse width.
	Pulse()
}

// Ranger owns one sonar.
type Ranger struct {
	hw Hardware

	readingAllowed bool
	overflows      uint8

	risingEdge bool
	startTime  uint16
	endTime    uint16
	filter     Filter

	unread atomic.Bool
}

// New wires a Ranger to hw and arms the capture unit for a rising edge.
func New(hw Hardware) *Ranger {
	r := &Ranger{
		hw:             hw,
		readingAllowed: true,
		risingEdge:     true,
	}
	hw.SetCaptureEdge(true)
	hw.AttachCapture(r.capture)
	hw.Attach(r.overflow)
	return r
}

// TriggerMeasurement starts a measurement. It returns false, doing nothing,
// while the gate is closed.
func (r *Ranger) TriggerMeasurement() bool {
	var allowed bool
	irq.Do(func() {
		allowed = r.readingAllowed
		r.readingAllowed = false
	})
	if !allowed {
		return false
	}

	r.hw.Pulse()
	r.hw.ResetCounter()
	r.hw.EnableOverflow()
	return true
}

// HasUnreadDistance reports whether a distance arrived since the last
// CurrentDistance call.
func (r *Ranger) HasUnreadDistance() bool {
	return r.unread.Load()
}

// CurrentDistance returns the filtered distance in millimetres and marks it
// read.
func (r *Ranger) CurrentDistance() uint16 {
	var d uint16
	irq.Do(func() {
		d = r.filter.Current()
	})
	r.unread.Store(false)
	return d
}

// LastDistance returns the trend baseline: the filtered distance as it was at
// the most recent snapshot.
func (r *Ranger) LastDistance() uint16 {
	var d uint16
	irq.Do(func() {
		d = r.filter.Last()
	})
	return d
}

// capture runs in the capture interrupt. The distance is computed here
// rather than in the main loop; it is a few integer operations and a
// bounded filter update.
func (r *Ranger) capture(ticks uint16) {
	if r.risingEdge {
		r.startTime = ticks
		r.hw.SetCaptureEdge(false)
		r.risingEdge = false
		return
	}

	r.endTime = ticks
	r.hw.SetCaptureEdge(true)
	r.risingEdge = true

	r.filter.Update(Distance(Elapsed(r.startTime, r.endTime)))
	r.unread.Store(true)
}

// overflow runs in the overflow interrupt.
func (r *Ranger) overflow() {
	r.overflows++
	if r.overflows >= GateOverflows {
		r.hw.DisableOverflow()
		r.readingAllowed = true
		r.overflows = 0
	}
}

// Elapsed returns the ticks between two captures, correcting for one counter
// wrap between them.
func Elapsed(start, end uint16) uint16 {
	if end >= start {
		return end - start
	}
	return (MaxTick - start) + end + 1
}

// Distance converts an echo pulse width in 0.5us ticks to millimetres.
// Sound covers 1mm out and back in 5.8us, so mm = ticks * 5 / 58.
func Distance(elapsed uint16) uint16 {
	return uint16(uint32(elapsed) * 5 / 58)
}
