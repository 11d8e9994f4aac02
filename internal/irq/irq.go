// Package irq provides the critical-section primitive shared by the
// cooperative main loop and the interrupt handlers.
//
// Every field touched by both an interrupt handler and the main loop is read
// or written between Disable and Restore, unless it is a single flag that is
// documented as needing no section. Interrupt entry points are dispatched
// through Serve so that a handler never preempts a critical section and never
// preempts another handler.
//
// Sections do not nest: code already running inside Serve or between
// Disable/Restore must not call Disable again.
package irq

// Do runs fn with interrupts disabled.
func Do(fn func()) {
	state := Disable()
	defer Restore(state)
	fn()
}
