// Package gpio provides the tank's GPIO lines with hardware abstraction:
// the switch panel inputs and the pump, heater and power indicator outputs.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Panel reads the switch panel.
type Panel interface {
	// Read returns the logical switch states as a bitmask, bit n set when
	// switch n is pressed. Switches are active-low: raw 0 = pressed.
	Read() (uint8, error)

	// Close releases GPIO resources.
	Close() error
}

// Output drives a single output line.
type Output interface {
	// Set drives the line high (true) or low.
	Set(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	PinTrigger = 23
	PinEcho    = 24
	PinPump    = 17
	PinHeater  = 27
	PinPower   = 22 // power indicator LED
)

// DefaultSwitchPins maps panel switches 0-7 to BCM pins.
var DefaultSwitchPins = []int{5, 6, 12, 13, 16, 19, 20, 26}
