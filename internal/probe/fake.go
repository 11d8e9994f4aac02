package probe

import "errors"

// Fake is a test double returning scripted temperatures.
type Fake struct {
	// Readings are returned in order; the last one repeats.
	Readings []float32

	// ReadError, if set, is returned instead of a reading.
	ReadError error

	// Reads counts ReadTemperature calls.
	Reads int

	index int
}

// NewFake creates a Fake returning readings.
func NewFake(readings ...float32) *Fake {
	return &Fake{Readings: readings}
}

// ReadTemperature returns the next scripted reading.
func (f *Fake) ReadTemperature() (float32, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Readings) == 0 {
		return 0, errors.New("no readings configured")
	}
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r, nil
}
