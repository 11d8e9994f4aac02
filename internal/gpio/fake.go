package gpio

import "errors"

// FakePanel is a test double that returns scripted switch states.
type FakePanel struct {
	// Samples contains scripted switch bitmasks to return.
	// Each call to Read() consumes the next sample.
	Samples []uint8

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakePanel creates a FakePanel with the given samples.
func NewFakePanel(samples ...uint8) *FakePanel {
	return &FakePanel{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakePanel) Read() (uint8, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the panel as closed.
func (f *FakePanel) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the panel to the beginning of samples.
func (f *FakePanel) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOutput records every value written to it.
type FakeOutput struct {
	// Values holds each successful Set, in order.
	Values []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeOutput creates a FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records v.
func (f *FakeOutput) Set(v bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Values = append(f.Values, v)
	return nil
}

// On reports the last value written.
func (f *FakeOutput) On() bool {
	return len(f.Values) > 0 && f.Values[len(f.Values)-1]
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}
