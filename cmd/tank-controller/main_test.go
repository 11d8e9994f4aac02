package main

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/tank-controller/internal/config"
	"github.com/sweeney/tank-controller/internal/control"
	"github.com/sweeney/tank-controller/internal/gpio"
	"github.com/sweeney/tank-controller/internal/irq"
	"github.com/sweeney/tank-controller/internal/link"
	"github.com/sweeney/tank-controller/internal/manager"
	"github.com/sweeney/tank-controller/internal/probe"
	"github.com/sweeney/tank-controller/internal/ranging"
	"github.com/sweeney/tank-controller/internal/timer"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// rig is a controller assembled from fakes.
type rig struct {
	mgr    *manager.Manager
	refill *control.Refill
	ch     *link.Channel
	port   *link.FakePort
	sonar  *ranging.FakeSonar
	probe  *probe.Fake
	panel  *gpio.FakePanel

	pump, heater, power *gpio.FakeOutput
	pumpLoad            *gpio.Load
}

func newRig(t *testing.T, temperature float32) *rig {
	t.Helper()
	r := &rig{
		port:   link.NewFakePort(),
		sonar:  ranging.NewFakeSonar(),
		probe:  probe.NewFake(temperature),
		panel:  gpio.NewFakePanel(0),
		pump:   gpio.NewFakeOutput(),
		heater: gpio.NewFakeOutput(),
		power:  gpio.NewFakeOutput(),
	}
	r.pumpLoad = gpio.NewLoad("pump", r.pump)
	r.ch = link.NewChannel(r.port)
	r.mgr = manager.New(manager.Config{MaxDistance: 133, MinDistance: 33, StaleLimit: 20},
		r.ch, ranging.New(r.sonar), r.probe)
	r.refill = control.NewRefill(control.Limits{
		MaxDistance:        133,
		MinDistance:        33,
		StabilityThreshold: 2,
		DebounceOverflows:  3,
	}, r.pumpLoad, timer.NewCounter(timer.NewManual()))
	return r
}

func (r *rig) command(power bool, setpoint float32) {
	for _, b := range link.EncodeCommand(link.Command{Power: power, Setpoint: setpoint}) {
		irq.Serve(func() { r.ch.Write(b) })
	}
}

func testLoopConfig() loopConfig {
	return loopConfig{
		SimulateSwitch: 7,
		SwitchDebounce: 250 * time.Millisecond,
		MaxDistance:    133,
		MinDistance:    33,
	}
}

// run drives runLoop for nTicks, then delivers SIGTERM.
func (r *rig) run(t *testing.T, cfg loopConfig, nTicks int) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 100*time.Millisecond)

	l := loads{
		pump:   r.pumpLoad,
		heater: gpio.NewLoad("heater", r.heater),
		power:  gpio.NewLoad("power", r.power),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(r.mgr, r.refill, l, r.panel, cfg, clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM

	return <-errCh
}

func TestRunLoopNoHostKeepsLoadsOff(t *testing.T) {
	r := newRig(t, 20)

	if err := r.run(t, testLoopConfig(), 5); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	for name, out := range map[string]*gpio.FakeOutput{"pump": r.pump, "heater": r.heater, "power": r.power} {
		if out.On() {
			t.Errorf("%s should be off", name)
		}
		for _, v := range out.Values {
			if v {
				t.Errorf("%s was switched on without a host", name)
			}
		}
	}
}

func TestRunLoopHeatsBelowSetpoint(t *testing.T) {
	r := newRig(t, 20)
	r.command(true, 60)

	if err := r.run(t, testLoopConfig(), 3); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(r.heater.Values) == 0 || !r.heater.Values[0] {
		t.Fatalf("expected heater switched on, got %v", r.heater.Values)
	}
	if len(r.power.Values) == 0 || !r.power.Values[0] {
		t.Errorf("expected power indicator on, got %v", r.power.Values)
	}
	// Shutdown stops everything.
	if r.heater.On() || r.power.On() || r.pump.On() {
		t.Error("expected all loads off after shutdown")
	}
}

func TestRunLoopNoHeatAtSetpoint(t *testing.T) {
	r := newRig(t, 70)
	r.command(true, 60)

	if err := r.run(t, testLoopConfig(), 3); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	for _, v := range r.heater.Values {
		if v {
			t.Fatal("heater should stay off above the setpoint")
		}
	}
}

func TestRunLoopRefillsEmptyTank(t *testing.T) {
	r := newRig(t, 70)
	r.command(true, 60)
	r.sonar.EchoDistance(140)

	if err := r.run(t, testLoopConfig(), 2); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if r.refill.State() != control.ForceRefill {
		t.Errorf("expected FORCE_REFILL, got %s", r.refill.State())
	}
	if len(r.pump.Values) < 2 || !r.pump.Values[0] || r.pump.Values[len(r.pump.Values)-1] {
		t.Errorf("expected pump on then off at shutdown, got %v", r.pump.Values)
	}
}

func TestRunLoopStaleHostCutsPower(t *testing.T) {
	r := newRig(t, 20)
	r.command(true, 60)

	if err := r.run(t, testLoopConfig(), 21); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if r.mgr.Snapshot().Power {
		t.Error("expected power cut after 20 stale cycles")
	}
	// on at the first cycle, off at the 21st, no further writes
	want := []bool{true, false}
	if len(r.heater.Values) != len(want) || r.heater.Values[0] != want[0] || r.heater.Values[1] != want[1] {
		t.Errorf("expected heater writes %v, got %v", want, r.heater.Values)
	}
}

func TestRunLoopSimulationSwitch(t *testing.T) {
	r := newRig(t, 20)
	// 4 ticks to baseline released, then switch 7 held
	r.panel.Samples = []uint8{0, 0, 0, 0, 0x80}

	if err := r.run(t, testLoopConfig(), 8); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if !r.mgr.Simulating() {
		t.Fatal("expected simulation on after switch 7 press")
	}
	if got := r.mgr.Snapshot().Temperature; got != manager.SimulatedTemperature {
		t.Errorf("expected %v, got %v", manager.SimulatedTemperature, got)
	}
}

func TestRunLoopHeldSwitchTogglesOnce(t *testing.T) {
	r := newRig(t, 20)
	r.panel.Samples = []uint8{0, 0, 0, 0, 0x80}

	if err := r.run(t, testLoopConfig(), 30); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if !r.mgr.Simulating() {
		t.Error("holding the switch should toggle exactly once")
	}
}

func TestRunLoopOtherSwitchIgnored(t *testing.T) {
	r := newRig(t, 20)
	r.panel.Samples = []uint8{0, 0, 0, 0, 0x01}

	if err := r.run(t, testLoopConfig(), 8); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if r.mgr.Simulating() {
		t.Error("switch 0 should not toggle simulation")
	}
}

func TestRunLoopPanelErrorKeepsControlling(t *testing.T) {
	r := newRig(t, 20)
	r.panel.ReadError = errors.New("gpio fault")
	r.command(true, 60)

	if err := r.run(t, testLoopConfig(), 2); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(r.heater.Values) == 0 || !r.heater.Values[0] {
		t.Errorf("expected heater on despite panel errors, got %v", r.heater.Values)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	r := newRig(t, 20)
	cfg := testLoopConfig()
	cfg.Heartbeat = time.Second

	if err := r.run(t, cfg, 15); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "heartbeat:") != 1 {
		t.Errorf("expected one heartbeat line, got:\n%s", out)
	}
	if !strings.Contains(out, "refill=CHECK_DISTANCE") {
		t.Errorf("expected refill state in heartbeat, got:\n%s", out)
	}
}

func TestStateString(t *testing.T) {
	if stateString(true) != "ON" || stateString(false) != "OFF" {
		t.Error("unexpected state strings")
	}
}

func TestPrintReading(t *testing.T) {
	cfg := config.Default()
	sonar := ranging.NewFakeSonar()
	ranger := ranging.New(sonar)
	sonar.EchoDistance(83)

	var out bytes.Buffer
	if err := printReading(&out, cfg, ranger, probe.NewFake(20.5)); err != nil {
		t.Fatalf("printReading: %v", err)
	}
	want := "Distance: 83mm, Level: 50%, Temperature: 20.50C\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
	if sonar.Pulses != 1 {
		t.Errorf("expected 1 trigger pulse, got %d", sonar.Pulses)
	}
}

func TestPrintReadingProbeError(t *testing.T) {
	cfg := config.Default()
	sonar := ranging.NewFakeSonar()
	ranger := ranging.New(sonar)
	sonar.EchoDistance(83)

	p := probe.NewFake(20.5)
	p.ReadError = probe.ErrOutOfRange

	var out bytes.Buffer
	err := printReading(&out, cfg, ranger, p)
	if !errors.Is(err, probe.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestPrintReadingNoEcho(t *testing.T) {
	cfg := config.Default()
	ranger := ranging.New(ranging.NewFakeSonar())

	var out bytes.Buffer
	if err := printReading(&out, cfg, ranger, probe.NewFake(20.5)); err == nil {
		t.Fatal("expected error without an echo")
	}
}
