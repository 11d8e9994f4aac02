//go:build !linux

package ranging

import (
	"errors"
	"time"

	"github.com/sweeney/tank-controller/internal/timer"
)

// Sonar is not available on non-Linux platforms.
type Sonar struct {
	*timer.Ticker
}

// NewSonar returns an error on non-Linux platforms.
func NewSonar(chip string, triggerPin, echoPin int, tick time.Duration) (*Sonar, error) {
	return nil, errors.New("sonar: not supported on this platform (requires Linux)")
}

// AttachCapture is not implemented on non-Linux platforms.
func (s *Sonar) AttachCapture(handler func(ticks uint16)) {}

// SetCaptureEdge is not implemented on non-Linux platforms.
func (s *Sonar) SetCaptureEdge(rising bool) {}

// Pulse is not implemented on non-Linux platforms.
func (s *Sonar) Pulse() {}

// Close is not implemented on non-Linux platforms.
func (s *Sonar) Close() error {
	return nil
}
