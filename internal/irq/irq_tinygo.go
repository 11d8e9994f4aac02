//go:build tinygo

package irq

import "runtime/interrupt"

// State is the saved interrupt-enable state returned by Disable.
type State = interrupt.State

// Disable masks interrupts and returns the previous state.
func Disable() State {
	return interrupt.Disable()
}

// Restore restores the interrupt state saved by Disable.
func Restore(state State) {
	interrupt.Restore(state)
}

// Serve runs handler as an interrupt service routine. On an MCU the handler
// is already entered with interrupts masked by hardware.
func Serve(handler func()) {
	handler()
}
