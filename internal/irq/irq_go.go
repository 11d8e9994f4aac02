//go:build !tinygo

package irq

import "sync"

// On a hosted OS the "interrupt handlers" are goroutines fed by the kernel
// (gpio line events, serial reads, tickers). A single mutex gives them the
// same exclusion a single-core MCU gets from masking interrupts.
var mu sync.Mutex

// State is the saved interrupt-enable state returned by Disable.
type State uintptr

// Disable masks interrupts and returns the previous state.
func Disable() State {
	mu.Lock()
	return 0
}

// Restore restores the interrupt state saved by Disable.
func Restore(state State) {
	mu.Unlock()
}

// Serve runs handler as an interrupt service routine.
func Serve(handler func()) {
	mu.Lock()
	defer mu.Unlock()
	handler()
}
