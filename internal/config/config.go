// Package config loads the tank controller configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/tank-controller/internal/control"
	"github.com/sweeney/tank-controller/internal/gpio"
	"github.com/sweeney/tank-controller/internal/probe"
	"github.com/sweeney/tank-controller/internal/timer"
)

// Config represents the controller configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	GPIO   GPIOConfig   `yaml:"gpio"`
	Tank   TankConfig   `yaml:"tank"`
	Timing TimingConfig `yaml:"timing"`
	Probe  ProbeConfig  `yaml:"probe"`
}

// SerialConfig contains the host link configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// GPIOConfig contains pin assignments (BCM numbering).
type GPIOConfig struct {
	Chip           string        `yaml:"chip"`
	Trigger        int           `yaml:"trigger"`
	Echo           int           `yaml:"echo"`
	Pump           int           `yaml:"pump"`
	Heater         int           `yaml:"heater"`
	Power          int           `yaml:"power"`           // power indicator LED
	Switches       []int         `yaml:"switches"`        // switch n on Switches[n]
	SimulateSwitch int           `yaml:"simulate_switch"` // toggles the simulated 91°C reading
	SwitchDebounce time.Duration `yaml:"switch_debounce"`
}

// TankConfig contains the level bounds, in millimetres from the sensor.
type TankConfig struct {
	MaxDistance        uint16 `yaml:"max_distance"` // empty mark
	MinDistance        uint16 `yaml:"min_distance"` // full mark
	StabilityThreshold uint16 `yaml:"stability_threshold"`
}

// TimingConfig contains loop and timer periods.
type TimingConfig struct {
	Cycle             time.Duration `yaml:"cycle"`
	CaptureTick       time.Duration `yaml:"capture_tick"`  // ranging counter tick
	DebounceTick      time.Duration `yaml:"debounce_tick"` // refill debounce counter tick
	DebounceOverflows uint8         `yaml:"debounce_overflows"`
	StaleLimit        uint8         `yaml:"stale_limit"`
	Heartbeat         time.Duration `yaml:"heartbeat"` // 0 disables the status line
}

// ProbeConfig selects the DS18B20 temperature probe.
type ProbeConfig struct {
	Bus        string `yaml:"bus"`        // one-wire bus name, "" for the first
	Address    string `yaml:"address"`    // ROM address, "" for the first DS18B20 found
	Resolution int    `yaml:"resolution"` // conversion bits, 9-12
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "/dev/ttyAMA0",
			Baud: 250000,
		},
		GPIO: GPIOConfig{
			Chip:           "gpiochip0",
			Trigger:        gpio.PinTrigger,
			Echo:           gpio.PinEcho,
			Pump:           gpio.PinPump,
			Heater:         gpio.PinHeater,
			Power:          gpio.PinPower,
			Switches:       append([]int(nil), gpio.DefaultSwitchPins...),
			SimulateSwitch: 7,
			SwitchDebounce: 50 * time.Millisecond,
		},
		Tank: TankConfig{
			MaxDistance:        133,
			MinDistance:        33,
			StabilityThreshold: 2,
		},
		Timing: TimingConfig{
			Cycle:             100 * time.Millisecond,
			CaptureTick:       500 * time.Nanosecond, // 32.768ms overflow
			DebounceTick:      64 * time.Microsecond, // 4.194304s overflow
			DebounceOverflows: 72,                    // ~5 minutes
			StaleLimit:        20,
			Heartbeat:         time.Minute,
		},
		Probe: ProbeConfig{
			Resolution: probe.DefaultResolution,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ensureDefaults restores defaults for fields explicitly set to zero where
// zero is meaningless.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}
	if len(c.GPIO.Switches) == 0 {
		c.GPIO.Switches = def.GPIO.Switches
	}

	if c.Timing.Cycle == 0 {
		c.Timing.Cycle = def.Timing.Cycle
	}
	if c.Timing.CaptureTick == 0 {
		c.Timing.CaptureTick = def.Timing.CaptureTick
	}
	if c.Timing.DebounceTick == 0 {
		c.Timing.DebounceTick = def.Timing.DebounceTick
	}
	if c.Timing.DebounceOverflows == 0 {
		c.Timing.DebounceOverflows = def.Timing.DebounceOverflows
	}
	if c.Timing.StaleLimit == 0 {
		c.Timing.StaleLimit = def.Timing.StaleLimit
	}

	if c.Probe.Resolution == 0 {
		c.Probe.Resolution = def.Probe.Resolution
	}
}

// Validate checks the configuration for values the controller cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud))
	}
	if c.Tank.MinDistance >= c.Tank.MaxDistance {
		errs = append(errs, fmt.Errorf("tank.min_distance (%d) must be below tank.max_distance (%d)",
			c.Tank.MinDistance, c.Tank.MaxDistance))
	}
	if c.Tank.StabilityThreshold == 0 {
		errs = append(errs, errors.New("tank.stability_threshold must be positive"))
	}
	if len(c.GPIO.Switches) > 8 {
		errs = append(errs, fmt.Errorf("gpio.switches: at most 8 pins, got %d", len(c.GPIO.Switches)))
	}
	if c.GPIO.SimulateSwitch < 0 || c.GPIO.SimulateSwitch >= len(c.GPIO.Switches) {
		errs = append(errs, fmt.Errorf("gpio.simulate_switch %d out of range", c.GPIO.SimulateSwitch))
	}
	if c.Timing.Cycle <= 0 || c.Timing.CaptureTick <= 0 || c.Timing.DebounceTick <= 0 {
		errs = append(errs, errors.New("timing: cycle, capture_tick and debounce_tick must be positive"))
	}
	if c.Probe.Resolution < 9 || c.Probe.Resolution > 12 {
		errs = append(errs, fmt.Errorf("probe.resolution must be 9-12 bits, got %d", c.Probe.Resolution))
	}
	if _, err := probe.ParseAddress(c.Probe.Address); err != nil {
		errs = append(errs, fmt.Errorf("probe.address: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Limits returns the refill state machine limits.
func (c *Config) Limits() control.Limits {
	return control.Limits{
		MaxDistance:        c.Tank.MaxDistance,
		MinDistance:        c.Tank.MinDistance,
		StabilityThreshold: c.Tank.StabilityThreshold,
		DebounceOverflows:  c.Timing.DebounceOverflows,
	}
}

// RangingOverflow returns the ranging counter overflow period.
func (c *Config) RangingOverflow() time.Duration {
	return timer.OverflowPeriod(c.Timing.CaptureTick)
}

// DebounceOverflow returns the refill debounce counter overflow period.
func (c *Config) DebounceOverflow() time.Duration {
	return timer.OverflowPeriod(c.Timing.DebounceTick)
}

// RefillDelay returns how long a stable level must last before a forced refill.
func (c *Config) RefillDelay() time.Duration {
	return time.Duration(c.Timing.DebounceOverflows) * c.DebounceOverflow()
}
