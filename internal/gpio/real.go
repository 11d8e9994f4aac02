//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "tank-controller"

// RealPanel reads the switch panel from actual hardware using Linux GPIO character device.
type RealPanel struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	pins  []int
}

// NewRealPanel requests the switch pins on chipName. pins[n] is switch n;
// at most eight pins are used.
func NewRealPanel(chipName string, pins []int) (*RealPanel, error) {
	if len(pins) == 0 || len(pins) > 8 {
		return nil, fmt.Errorf("request switch pins: need 1-8 pins, got %d", len(pins))
	}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Switches pull the line low when pressed.
	lines, err := chip.RequestLines(pins, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request switch pins %v: %w", pins, err)
	}

	return &RealPanel{
		chip:  chip,
		lines: lines,
		pins:  pins,
	}, nil
}

// Read returns the logical switch states.
// Inverts raw GPIO: raw inactive (0) = pressed.
func (p *RealPanel) Read() (uint8, error) {
	raw := make([]int, len(p.pins))
	if err := p.lines.Values(raw); err != nil {
		return 0, fmt.Errorf("read switch pins: %w", err)
	}
	return invert(raw), nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (p *RealPanel) Close() error {
	var errs []error

	if p.lines != nil {
		if err := p.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure switch pins: %w", err))
		}
		if err := p.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close switch pins: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutput drives an output line on actual hardware.
type RealOutput struct {
	line *gpiocdev.Line
	pin  int
}

// NewRealOutput requests pin on chipName as an output, initially low.
func NewRealOutput(chipName string, pin int) (*RealOutput, error) {
	line, err := gpiocdev.RequestLine(chipName, pin, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &RealOutput{line: line, pin: pin}, nil
}

// Set drives the line.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", o.pin, err)
	}
	return nil
}

// Close drives the line low and returns it to an input with pull-down.
func (o *RealOutput) Close() error {
	var errs []error

	if err := o.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear pin %d: %w", o.pin, err))
	}
	if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", o.pin, err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", o.pin, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
