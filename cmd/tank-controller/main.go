// Command tank-controller runs the hot water tank: it measures the water level
// and temperature, exchanges frames with the host over the serial link, and
// drives the pump and heater.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/tank-controller/internal/config"
	"github.com/sweeney/tank-controller/internal/control"
	"github.com/sweeney/tank-controller/internal/gpio"
	"github.com/sweeney/tank-controller/internal/link"
	"github.com/sweeney/tank-controller/internal/logic"
	"github.com/sweeney/tank-controller/internal/manager"
	"github.com/sweeney/tank-controller/internal/probe"
	"github.com/sweeney/tank-controller/internal/ranging"
	"github.com/sweeney/tank-controller/internal/timer"
)

func main() {
	configPath := flag.String("config", "/etc/tank-controller.yaml", "Path to YAML config file")
	printState := flag.Bool("print-state", false, "Print one distance and temperature reading and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printState bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize level sensor
	sonar, err := ranging.NewSonar(cfg.GPIO.Chip, cfg.GPIO.Trigger, cfg.GPIO.Echo, cfg.Timing.CaptureTick)
	if err != nil {
		return fmt.Errorf("init sonar: %w", err)
	}
	defer sonar.Close()
	ranger := ranging.New(sonar)
	go sonar.Run(ctx)

	probeAddr, err := probe.ParseAddress(cfg.Probe.Address)
	if err != nil {
		return fmt.Errorf("init probe: %w", err)
	}
	tempProbe, err := probe.Open(cfg.Probe.Bus, probeAddr, cfg.Probe.Resolution)
	if err != nil {
		return fmt.Errorf("init probe: %w", err)
	}
	defer tempProbe.Close()

	// Print state mode
	if printState {
		return printReading(os.Stdout, cfg, ranger, tempProbe)
	}

	// Initialize host link
	port, err := link.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
	if err != nil {
		return fmt.Errorf("init serial: %w", err)
	}
	defer port.Close()
	ch := link.NewChannel(port)
	go func() {
		if err := link.Receive(ctx, port, ch); err != nil {
			log.Printf("serial receive error: %v", err)
		}
	}()

	// Initialize outputs
	l, closeLoads, err := openLoads(cfg)
	if err != nil {
		return err
	}
	defer closeLoads()

	panel, err := gpio.NewRealPanel(cfg.GPIO.Chip, cfg.GPIO.Switches)
	if err != nil {
		return fmt.Errorf("init switch panel: %w", err)
	}
	defer panel.Close()

	// Refill debounce timer
	debounceSrc := timer.NewTicker(cfg.DebounceOverflow())
	debounce := timer.NewCounter(debounceSrc)
	go debounceSrc.Run(ctx)

	mgr := manager.New(manager.Config{
		MaxDistance: cfg.Tank.MaxDistance,
		MinDistance: cfg.Tank.MinDistance,
		StaleLimit:  cfg.Timing.StaleLimit,
	}, ch, ranger, tempProbe)
	refill := control.NewRefill(cfg.Limits(), l.pump, debounce)

	log.Printf("started: port=%s baud=%d cycle=%v bounds=%d-%dmm refill_delay=%v probe=%s",
		cfg.Serial.Port, cfg.Serial.Baud, cfg.Timing.Cycle,
		cfg.Tank.MinDistance, cfg.Tank.MaxDistance, cfg.RefillDelay(), probe.FormatAddress(tempProbe.Address()))

	ticker := time.NewTicker(cfg.Timing.Cycle)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(mgr, refill, l, panel, loopConfig{
		SimulateSwitch: cfg.GPIO.SimulateSwitch,
		SwitchDebounce: cfg.GPIO.SwitchDebounce,
		Heartbeat:      cfg.Timing.Heartbeat,
		MaxDistance:    cfg.Tank.MaxDistance,
		MinDistance:    cfg.Tank.MinDistance,
	}, time.Now, ticker.C, sigCh)
}

// loads are the switched outputs driven by the main loop.
type loads struct {
	pump   control.Actuator
	heater control.Actuator
	power  control.Actuator // power indicator
}

func (l loads) stopAll() {
	l.pump.Stop()
	l.heater.Stop()
	l.power.Stop()
}

func openLoads(cfg *config.Config) (loads, func(), error) {
	var outs []*gpio.RealOutput
	closeAll := func() {
		for _, o := range outs {
			if err := o.Close(); err != nil {
				log.Printf("gpio close error: %v", err)
			}
		}
	}

	open := func(name string, pin int) (*gpio.Load, error) {
		out, err := gpio.NewRealOutput(cfg.GPIO.Chip, pin)
		if err != nil {
			return nil, fmt.Errorf("init %s output: %w", name, err)
		}
		outs = append(outs, out)
		return gpio.NewLoad(name, out), nil
	}

	pump, err := open("pump", cfg.GPIO.Pump)
	if err != nil {
		return loads{}, nil, err
	}
	heater, err := open("heater", cfg.GPIO.Heater)
	if err != nil {
		closeAll()
		return loads{}, nil, err
	}
	power, err := open("power", cfg.GPIO.Power)
	if err != nil {
		closeAll()
		return loads{}, nil, err
	}
	return loads{pump: pump, heater: heater, power: power}, closeAll, nil
}

type loopConfig struct {
	SimulateSwitch int
	SwitchDebounce time.Duration
	Heartbeat      time.Duration // 0 disables
	MaxDistance    uint16
	MinDistance    uint16
}

func runLoop(mgr *manager.Manager, refill *control.Refill, l loads, panel gpio.Panel, cfg loopConfig, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	detector := logic.NewDetector(cfg.SwitchDebounce, startTime)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			l.stopAll()
			return nil

		case <-tick:
			t := now()

			switches, err := panel.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
			} else {
				for _, event := range detector.Process(logic.Input{Switches: switches, Time: t}) {
					log.Printf("event: switch %d %s", event.Switch, event.Type)
					if event.Switch == cfg.SimulateSwitch && event.Type == logic.EventPress {
						mgr.ToggleSimulation()
					}
				}
			}

			mgr.Update()
			snap := mgr.Snapshot()

			if snap.Power {
				l.power.Start()
				control.Regulate(snap.Temperature, snap.Setpoint, l.heater)
				refill.Step(snap.CurrentDistance, snap.LastDistance)
			} else {
				l.stopAll()
			}

			if hb := detector.CheckHeartbeat(t, cfg.Heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v power=%s setpoint=%.1f temp=%.1f distance=%d last=%d level=%d%% refill=%s stale=%d simulate=%v presses=%d",
					hb.Uptime, stateString(snap.Power), snap.Setpoint, snap.Temperature,
					snap.CurrentDistance, snap.LastDistance,
					manager.LevelPercent(snap.CurrentDistance, cfg.MaxDistance, cfg.MinDistance),
					refill.State(), mgr.Stale(), mgr.Simulating(), hb.Counts.Presses)
			}
		}
	}
}

// printReading takes one measurement and prints it.
func printReading(w io.Writer, cfg *config.Config, ranger *ranging.Ranger, p probe.Reader) error {
	distance, err := measureOnce(ranger, 10*cfg.RangingOverflow())
	if err != nil {
		return err
	}
	temp, err := p.ReadTemperature()
	if err != nil {
		return fmt.Errorf("read temperature: %w", err)
	}
	fmt.Fprintf(w, "Distance: %dmm, Level: %d%%, Temperature: %.2fC\n",
		distance, manager.LevelPercent(distance, cfg.Tank.MaxDistance, cfg.Tank.MinDistance), temp)
	return nil
}

// measureOnce triggers a measurement and waits up to timeout for the echo.
func measureOnce(ranger *ranging.Ranger, timeout time.Duration) (uint16, error) {
	if !ranger.TriggerMeasurement() {
		return 0, fmt.Errorf("measure distance: trigger refused")
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ranger.HasUnreadDistance() {
			return ranger.CurrentDistance(), nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return 0, fmt.Errorf("measure distance: no echo within %v", timeout)
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
