package host

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/tank-controller/internal/link"
)

// DefaultMaxTemperature is the water temperature above which the supervisor
// switches the system off.
const DefaultMaxTemperature float32 = 90

// Supervisor is the host's control loop: it keeps the controller fed with
// commands, records the latest telemetry and cuts power on over-temperature.
type Supervisor struct {
	client  *Client
	maxTemp float32

	power    bool
	setpoint float32
	last     link.Telemetry
	have     bool
}

// NewSupervisor creates a Supervisor commanding power and setpoint.
func NewSupervisor(client *Client, power bool, setpoint, maxTemp float32) *Supervisor {
	return &Supervisor{
		client:   client,
		maxTemp:  maxTemp,
		power:    power,
		setpoint: setpoint,
	}
}

// Step runs one exchange and reports whether it succeeded. A failed exchange
// is logged and leaves the last telemetry in place.
func (s *Supervisor) Step() bool {
	tel, err := s.client.Exchange(link.Command{Power: s.power, Setpoint: s.setpoint})
	if err != nil {
		log.Printf("host: exchange failed: %v", err)
		return false
	}
	s.last = tel
	s.have = true

	if s.power && tel.Temperature > s.maxTemp {
		log.Printf("host: temperature %.1f above limit %.1f, power off", tel.Temperature, s.maxTemp)
		s.power = false
	}
	return true
}

// Run calls Step every interval until ctx is done or count steps have run
// (count 0 runs forever). report, if set, is called after each successful
// step.
func (s *Supervisor) Run(ctx context.Context, interval time.Duration, count int, report func(link.Telemetry)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; count == 0 || n < count; n++ {
		if s.Step() && report != nil {
			report(s.last)
		}
		if count != 0 && n+1 >= count {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Power returns the power flag being commanded.
func (s *Supervisor) Power() bool {
	return s.power
}

// SetPower changes the commanded power flag.
func (s *Supervisor) SetPower(on bool) {
	s.power = on
}

// Last returns the latest telemetry and whether any has arrived.
func (s *Supervisor) Last() (link.Telemetry, bool) {
	return s.last, s.have
}
