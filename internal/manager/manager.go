// Package manager runs the once-per-cycle data update: it collects the
// sensor readings and host commands produced asynchronously by the interrupt
// side into one snapshot, answers the host, and cuts system power when the
// host goes quiet.
package manager

import (
	"log"
	"math"

	"github.com/sweeney/tank-controller/internal/irq"
	"github.com/sweeney/tank-controller/internal/link"
	"github.com/sweeney/tank-controller/internal/probe"
)

// SimulatedTemperature is reported instead of the probe reading while
// simulation is on.
const SimulatedTemperature float32 = 91.0

// Channel is the device end of the host link. FrameCount, Dropped and
// ExtractFrame share state with the receive interrupt and are called inside
// irq sections.
type Channel interface {
	FrameCount() uint8
	Dropped() uint32
	ExtractFrame(out []byte) int
	Send(p []byte) error
}

// Ranger is the level sensor.
type Ranger interface {
	TriggerMeasurement() bool
	HasUnreadDistance() bool
	CurrentDistance() uint16
	LastDistance() uint16
}

// Snapshot is the system state the control loops act on.
type Snapshot struct {
	Power           bool
	Setpoint        float32
	CurrentDistance uint16
	LastDistance    uint16
	Temperature     float32
}

// Config bounds the level percentage and sets the staleness limit.
type Config struct {
	MaxDistance uint16
	MinDistance uint16
	StaleLimit  uint8
}

// Manager owns the Snapshot. It is used from the main loop only.
type Manager struct {
	cfg    Config
	ch     Channel
	ranger Ranger
	probe  probe.Reader

	snap     Snapshot
	stale    uint8
	simulate bool
	dropped  uint32
	frame    [link.FrameSize]byte
}

// New creates a Manager with power off.
func New(cfg Config, ch Channel, ranger Ranger, p probe.Reader) *Manager {
	return &Manager{
		cfg:    cfg,
		ch:     ch,
		ranger: ranger,
		probe:  p,
	}
}

// Update runs one cycle.
func (m *Manager) Update() {
	// The echo takes a few milliseconds; it is collected by a later cycle.
	m.ranger.TriggerMeasurement()

	m.readTemperature()

	var frames uint8
	var dropped uint32
	irq.Do(func() {
		frames = m.ch.FrameCount()
		dropped = m.ch.Dropped()
	})
	if dropped != m.dropped {
		log.Printf("manager: %d bytes dropped on full receive buffer", dropped-m.dropped)
		m.dropped = dropped
	}

	decoded := false
	for i := uint8(0); i < frames; i++ {
		var n int
		irq.Do(func() {
			n = m.ch.ExtractFrame(m.frame[:])
		})
		if n != link.FrameSize {
			continue
		}
		cmd := link.DecodeCommand(m.frame[:n])
		m.snap.Power = cmd.Power
		m.snap.Setpoint = cmd.Setpoint
		decoded = true
	}

	if m.ranger.HasUnreadDistance() {
		m.snap.CurrentDistance = m.ranger.CurrentDistance()
		m.snap.LastDistance = m.ranger.LastDistance()
	}

	if decoded {
		m.stale = 0
		m.sendTelemetry()
	} else if m.stale < math.MaxUint8 {
		m.stale++
	}

	if m.stale >= m.cfg.StaleLimit {
		if m.snap.Power {
			log.Printf("manager: no host frame for %d cycles, power off", m.stale)
		}
		m.snap.Power = false
	}
}

func (m *Manager) readTemperature() {
	if m.simulate {
		m.snap.Temperature = SimulatedTemperature
		return
	}
	t, err := m.probe.ReadTemperature()
	if err != nil {
		log.Printf("manager: read temperature: %v", err)
		return
	}
	m.snap.Temperature = t
}

func (m *Manager) sendTelemetry() {
	frame := link.EncodeTelemetry(link.Telemetry{
		Level:       LevelPercent(m.snap.CurrentDistance, m.cfg.MaxDistance, m.cfg.MinDistance),
		Temperature: m.snap.Temperature,
	})
	if err := m.ch.Send(frame[:]); err != nil {
		log.Printf("manager: send telemetry: %v", err)
	}
}

// Snapshot returns a copy of the current snapshot.
func (m *Manager) Snapshot() Snapshot {
	return m.snap
}

// Stale returns the number of consecutive cycles without a host frame.
func (m *Manager) Stale() uint8 {
	return m.stale
}

// ToggleSimulation switches the simulated temperature on or off and returns
// the new setting. It takes effect on the next Update.
func (m *Manager) ToggleSimulation() bool {
	m.simulate = !m.simulate
	log.Printf("manager: simulated temperature %v", m.simulate)
	return m.simulate
}

// Simulating reports whether the simulated temperature is on.
func (m *Manager) Simulating() bool {
	return m.simulate
}

// LevelPercent converts a distance to a fill percentage: 0 at maxDist (the
// empty mark), 100 at minDist (the full mark), rounded and clamped.
func LevelPercent(cur, maxDist, minDist uint16) uint8 {
	if maxDist <= minDist {
		return 0
	}
	p := math.Round((float64(maxDist) - float64(cur)) / (float64(maxDist) - float64(minDist)) * 100)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return uint8(p)
}
