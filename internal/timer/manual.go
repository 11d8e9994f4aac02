package timer

import "github.com/sweeney/tank-controller/internal/irq"

// Manual is a Source driven by hand, for tests. Fire raises one overflow.
type Manual struct {
	handler func()
	enabled bool

	// Resets counts ResetCounter calls.
	Resets int
}

// NewManual creates a Manual source with the overflow interrupt masked.
func NewManual() *Manual {
	return &Manual{}
}

// Attach registers the overflow handler.
func (m *Manual) Attach(handler func()) {
	m.handler = handler
}

// EnableOverflow unmasks the overflow interrupt.
func (m *Manual) EnableOverflow() {
	m.enabled = true
}

// DisableOverflow masks the overflow interrupt.
func (m *Manual) DisableOverflow() {
	m.enabled = false
}

// ResetCounter records the reset.
func (m *Manual) ResetCounter() {
	m.Resets++
}

// Enabled reports whether the overflow interrupt is unmasked.
func (m *Manual) Enabled() bool {
	return m.enabled
}

// Fire raises one overflow. It reports whether the handler ran, which it
// does only while the interrupt is enabled.
func (m *Manual) Fire() bool {
	if !m.enabled || m.handler == nil {
		return false
	}
	irq.Serve(m.handler)
	return true
}

// FireN raises n overflows and returns how many reached the handler.
func (m *Manual) FireN(n int) int {
	fired := 0
	for i := 0; i < n; i++ {
		if m.Fire() {
			fired++
		}
	}
	return fired
}
