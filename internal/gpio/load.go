package gpio

import "log"

// Load is a switched load (pump, heater, indicator) on an Output. It
// satisfies the control loops' Start/Stop actuator contract: write errors
// are logged, never returned.
type Load struct {
	name string
	out  Output
	on   bool
	set  bool // false until the first successful write
}

// NewLoad wraps out as the load called name.
func NewLoad(name string, out Output) *Load {
	return &Load{name: name, out: out}
}

// Start switches the load on.
func (l *Load) Start() {
	l.drive(true)
}

// Stop switches the load off.
func (l *Load) Stop() {
	l.drive(false)
}

// On reports the last state successfully written.
func (l *Load) On() bool {
	return l.on
}

func (l *Load) drive(on bool) {
	if l.set && l.on == on {
		return
	}
	if err := l.out.Set(on); err != nil {
		log.Printf("gpio: set %s %v: %v", l.name, on, err)
		return
	}
	if l.set || on {
		log.Printf("gpio: %s %s", l.name, onOff(on))
	}
	l.on = on
	l.set = true
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
