package timer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sweeney/tank-controller/internal/irq"
)

// epoch anchors monotonic readings stored as integers.
var epoch = time.Now()

func monotonic() int64 {
	return int64(time.Since(epoch))
}

// Ticker is a Source backed by a time.Ticker. Each tick while the overflow
// interrupt is enabled runs the attached handler through irq.Serve.
//
// The enable flag and the period origin are checked inside the same section
// that runs the handler, so a tick that races DisableOverflow or
// ResetCounter is dropped rather than delivered early.
type Ticker struct {
	period  time.Duration
	handler func()
	enabled atomic.Bool
	origin  atomic.Int64
	reset   chan struct{}
}

// NewTicker creates a Ticker that overflows every period.
func NewTicker(period time.Duration) *Ticker {
	t := &Ticker{
		period: period,
		reset:  make(chan struct{}, 1),
	}
	t.origin.Store(monotonic())
	return t
}

// Attach registers the overflow handler.
func (t *Ticker) Attach(handler func()) {
	t.handler = handler
}

// EnableOverflow unmasks the overflow interrupt.
func (t *Ticker) EnableOverflow() {
	t.enabled.Store(true)
}

// DisableOverflow masks the overflow interrupt.
func (t *Ticker) DisableOverflow() {
	t.enabled.Store(false)
}

// ResetCounter restarts the current period. Never blocks.
func (t *Ticker) ResetCounter() {
	t.origin.Store(monotonic())
	select {
	case t.reset <- struct{}{}:
	default:
	}
}

// Run delivers overflow interrupts until ctx is done.
func (t *Ticker) Run(ctx context.Context) {
	tk := time.NewTicker(t.period)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.reset:
			tk.Reset(t.period)
			select {
			case <-tk.C:
			default:
			}
		case <-tk.C:
			irq.Serve(t.overflow)
		}
	}
}

// overflow runs in interrupt context.
func (t *Ticker) overflow() {
	if t.handler == nil || !t.enabled.Load() {
		return
	}
	if monotonic()-t.origin.Load() < int64(t.period) {
		return
	}
	t.handler()
}
