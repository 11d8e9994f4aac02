// Package probe reads the water temperature from a DS18B20 on the kernel's
// one-wire bus, through the periph.io host and device drivers.
package probe

import (
	"errors"
	"fmt"
	"strconv"

	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/onewire/onewirereg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ds18b20"
	"periph.io/x/host/v3"
)

// FamilyDS18B20 is the one-wire family code in the low byte of a DS18B20
// ROM address.
const FamilyDS18B20 = 0x28

// DefaultResolution is the conversion resolution in bits. 12 bits gives
// 0.0625 °C steps and a 750ms conversion.
const DefaultResolution = 12

const (
	minTemperature = -55*physic.Kelvin + physic.ZeroCelsius
	maxTemperature = 125*physic.Kelvin + physic.ZeroCelsius
)

var (
	ErrNoDevice   = errors.New("probe: no DS18B20 on the bus")
	ErrOutOfRange = errors.New("probe: reading outside the sensor range")
)

// Reader reads the water temperature in degrees Celsius.
type Reader interface {
	ReadTemperature() (float32, error)
}

// thermometer is the part of ds18b20.Dev used here.
type thermometer interface {
	Temperature() (physic.Temperature, error)
}

// DS18B20 is the probe bound to one sensor.
type DS18B20 struct {
	bus  onewire.BusCloser // set when Open owns the bus
	dev  thermometer
	addr onewire.Address
}

// Open loads the host drivers, opens the one-wire bus called name ("" for
// the first registered bus) and binds the DS18B20 at addr, or the first one
// found when addr is 0.
func Open(name string, addr onewire.Address, resolutionBits int) (*DS18B20, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	bus, err := onewirereg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open one-wire bus %q: %w", name, err)
	}
	p, err := New(bus, addr, resolutionBits)
	if err != nil {
		bus.Close()
		return nil, err
	}
	p.bus = bus
	return p, nil
}

// New binds the DS18B20 at addr on bus, or the first one found when addr
// is 0. The caller keeps ownership of bus.
func New(bus onewire.Bus, addr onewire.Address, resolutionBits int) (*DS18B20, error) {
	if addr == 0 {
		found, err := Find(bus)
		if err != nil {
			return nil, err
		}
		addr = found
	}
	dev, err := ds18b20.New(bus, addr, resolutionBits)
	if err != nil {
		return nil, fmt.Errorf("open ds18b20 %s: %w", FormatAddress(addr), err)
	}
	return &DS18B20{dev: dev, addr: addr}, nil
}

// Find returns the address of the first DS18B20 on bus.
func Find(bus onewire.Bus) (onewire.Address, error) {
	addrs, err := bus.Search(false)
	if err != nil {
		return 0, fmt.Errorf("search one-wire bus: %w", err)
	}
	for _, a := range addrs {
		if a&0xff == FamilyDS18B20 {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrNoDevice, bus)
}

// Address returns the ROM address of the bound sensor.
func (p *DS18B20) Address() onewire.Address {
	return p.addr
}

// ReadTemperature runs a conversion and returns the result. It blocks for
// the conversion time.
func (p *DS18B20) ReadTemperature() (float32, error) {
	t, err := p.dev.Temperature()
	if err != nil {
		return 0, fmt.Errorf("read ds18b20 %s: %w", FormatAddress(p.addr), err)
	}
	return Celsius(t)
}

// Close releases the bus if Open opened it.
func (p *DS18B20) Close() error {
	if p.bus == nil {
		return nil
	}
	return p.bus.Close()
}

// Celsius converts t to degrees Celsius. Values outside the DS18B20's
// -55..125 °C range are rejected.
func Celsius(t physic.Temperature) (float32, error) {
	if t < minTemperature || t > maxTemperature {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, t)
	}
	return float32(float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)), nil
}

// ParseAddress parses a ROM address written as an integer literal, e.g.
// 0xc3000005e2fdc328. The empty string means "first sensor found" and
// parses as 0.
func ParseAddress(s string) (onewire.Address, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("parse one-wire address %q: %w", s, err)
	}
	if v&0xff != FamilyDS18B20 {
		return 0, fmt.Errorf("one-wire address %q: family 0x%02x is not a DS18B20", s, v&0xff)
	}
	return onewire.Address(v), nil
}

// FormatAddress renders a ROM address the way ParseAddress reads it.
func FormatAddress(a onewire.Address) string {
	return fmt.Sprintf("%#016x", uint64(a))
}
