// Package timer models fixed-period hardware timers whose only observable
// effect is an overflow interrupt raised once per period while enabled.
package timer

import (
	"time"

	"github.com/sweeney/tank-controller/internal/irq"
)

// Source is a free-running hardware timer with a maskable overflow interrupt.
type Source interface {
	// Attach registers the overflow interrupt handler. Called once during
	// startup wiring, before the source runs.
	Attach(handler func())

	// EnableOverflow unmasks the overflow interrupt.
	EnableOverflow()

	// DisableOverflow masks the overflow interrupt.
	DisableOverflow()

	// ResetCounter sets the counting register back to zero, so the next
	// overflow is a full period away.
	ResetCounter()
}

// Counter is a software overflow counter advanced by a Source. It is the
// debounce timer: Start arms it, Count reads it, Stop disarms and clears it.
type Counter struct {
	src   Source
	count uint8 // written by the overflow handler, guarded by irq sections
}

// NewCounter attaches a Counter to src.
func NewCounter(src Source) *Counter {
	c := &Counter{src: src}
	src.Attach(c.overflow)
	return c
}

// Start restarts the period and enables the overflow interrupt, so the
// first overflow counted is a full period after Start.
func (c *Counter) Start() {
	c.src.ResetCounter()
	c.src.EnableOverflow()
}

// Stop disables the overflow interrupt and clears the count.
func (c *Counter) Stop() {
	irq.Do(func() {
		c.src.DisableOverflow()
		c.count = 0
	})
}

// Count returns the number of overflows since Start.
func (c *Counter) Count() uint8 {
	var n uint8
	irq.Do(func() {
		n = c.count
	})
	return n
}

// overflow runs in interrupt context. The count saturates instead of wrapping
// back to zero.
func (c *Counter) overflow() {
	if c.count < 255 {
		c.count++
	}
}

// OverflowPeriod returns the overflow period of a 16-bit counter clocked at
// tick.
func OverflowPeriod(tick time.Duration) time.Duration {
	return tick * 65536
}
