//go:build linux

package ranging

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"

	"github.com/sweeney/tank-controller/internal/irq"
	"github.com/sweeney/tank-controller/internal/timer"
)

// TriggerWidth is the width of the trigger pulse.
const TriggerWidth = 10 * time.Microsecond

// Sonar drives an HC-SR04 through the Linux GPIO character device.
//
// The kernel timestamps echo edges on CLOCK_MONOTONIC. Sonar emulates the
// MCU's 16-bit capture counter on top of those timestamps: ResetCounter
// records the origin and each latched edge is reported as the tick count
// since then, truncated to 16 bits. The overflow interrupt comes from an
// embedded timer.Ticker with the matching period.
type Sonar struct {
	*timer.Ticker

	trigger *gpiocdev.Line
	echo    *gpiocdev.Line
	tick    time.Duration

	origin  atomic.Int64
	rising  atomic.Bool
	capture func(uint16) // guarded by irq sections
}

// NewSonar requests the trigger and echo lines on chip. tick is the period of
// one capture counter tick.
func NewSonar(chip string, triggerPin, echoPin int, tick time.Duration) (*Sonar, error) {
	s := &Sonar{
		Ticker: timer.NewTicker(timer.OverflowPeriod(tick)),
		tick:   tick,
	}
	s.rising.Store(true)
	s.origin.Store(int64(monotonicNow()))

	trigger, err := gpiocdev.RequestLine(chip, triggerPin,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("tank-trigger"))
	if err != nil {
		return nil, fmt.Errorf("request trigger pin %d: %w", triggerPin, err)
	}

	echo, err := gpiocdev.RequestLine(chip, echoPin,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithConsumer("tank-echo"),
		gpiocdev.WithEventHandler(s.handleEdge))
	if err != nil {
		trigger.Close()
		return nil, fmt.Errorf("request echo pin %d: %w", echoPin, err)
	}

	s.trigger = trigger
	s.echo = echo
	return s, nil
}

// AttachCapture registers the capture interrupt handler.
func (s *Sonar) AttachCapture(handler func(ticks uint16)) {
	irq.Do(func() {
		s.capture = handler
	})
}

// SetCaptureEdge selects the edge that is latched. Edges of the other
// polarity are ignored, as the capture unit would.
func (s *Sonar) SetCaptureEdge(rising bool) {
	s.rising.Store(rising)
}

// ResetCounter zeroes the emulated capture counter and restarts the
// overflow period.
func (s *Sonar) ResetCounter() {
	s.origin.Store(int64(monotonicNow()))
	s.Ticker.ResetCounter()
}

// Pulse drives the trigger pin high for TriggerWidth.
func (s *Sonar) Pulse() {
	if err := s.trigger.SetValue(1); err != nil {
		log.Printf("sonar: trigger high: %v", err)
		return
	}
	deadline := time.Now().Add(TriggerWidth)
	for time.Now().Before(deadline) {
	}
	if err := s.trigger.SetValue(0); err != nil {
		log.Printf("sonar: trigger low: %v", err)
	}
}

func (s *Sonar) handleEdge(evt gpiocdev.LineEvent) {
	rising := evt.Type == gpiocdev.LineEventRisingEdge
	if rising != s.rising.Load() {
		return
	}
	since := evt.Timestamp - time.Duration(s.origin.Load())
	ticks := uint16(uint64(since / s.tick))

	irq.Serve(func() {
		if s.capture != nil {
			s.capture(ticks)
		}
	})
}

// Close releases the GPIO lines, leaving the trigger low.
func (s *Sonar) Close() error {
	var errs []error
	if s.trigger != nil {
		if err := s.trigger.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure trigger pin: %w", err))
		}
		if err := s.trigger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trigger pin: %w", err))
		}
	}
	if s.echo != nil {
		if err := s.echo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close echo pin: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func monotonicNow() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}
