package link

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is a byte stream to the other end of the link.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}

// ReadTimeout bounds each blocking read on a serial port, so receive loops
// notice cancellation.
const ReadTimeout = 100 * time.Millisecond

// OpenSerial opens a UART at baud, 8 data bits, no parity, one stop bit.
func OpenSerial(name string, baud int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	return port, nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
