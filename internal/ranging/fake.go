package ranging

import (
	"github.com/sweeney/tank-controller/internal/irq"
	"github.com/sweeney/tank-controller/internal/timer"
)

// FakeSonar is a Hardware test double. Its counter is a timer.Manual; echoes
// are injected with Echo.
type FakeSonar struct {
	*timer.Manual

	capture func(uint16)
	rising  bool

	// Pulses counts trigger pulses.
	Pulses int
}

// NewFakeSonar creates a FakeSonar.
func NewFakeSonar() *FakeSonar {
	return &FakeSonar{Manual: timer.NewManual()}
}

// AttachCapture registers the capture handler.
func (f *FakeSonar) AttachCapture(handler func(ticks uint16)) {
	f.capture = handler
}

// SetCaptureEdge selects the captured edge.
func (f *FakeSonar) SetCaptureEdge(rising bool) {
	f.rising = rising
}

// CapturingRising reports whether the capture unit waits for a rising edge.
func (f *FakeSonar) CapturingRising() bool {
	return f.rising
}

// Pulse records a trigger pulse.
func (f *FakeSonar) Pulse() {
	f.Pulses++
}

// Edge raises one capture interrupt if the capture unit is armed for the
// given polarity. It reports whether the edge was latched.
func (f *FakeSonar) Edge(rising bool, ticks uint16) bool {
	if f.capture == nil || rising != f.rising {
		return false
	}
	irq.Serve(func() { f.capture(ticks) })
	return true
}

// Echo delivers a rising edge at start and a falling edge at end.
func (f *FakeSonar) Echo(start, end uint16) {
	f.Edge(true, start)
	f.Edge(false, end)
}

// EchoDistance delivers an echo whose width converts to d millimetres.
func (f *FakeSonar) EchoDistance(d uint16) {
	ticks := uint16((uint32(d)*58 + 4) / 5)
	f.Echo(100, 100+ticks)
}
