// Package host is the host computer's end of the serial link: it sends
// command frames to the tank controller and reads back telemetry.
package host

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sweeney/tank-controller/internal/link"
)

// DefaultWait is how long Exchange collects the reply.
const DefaultWait = 200 * time.Millisecond

// Client exchanges frames over rw, typically a link.Port whose reads time
// out instead of blocking forever.
type Client struct {
	rw   io.ReadWriter
	wait time.Duration
	now  func() time.Time
}

// NewClient creates a Client that waits up to wait for each reply.
func NewClient(rw io.ReadWriter, wait time.Duration) *Client {
	return &Client{rw: rw, wait: wait, now: time.Now}
}

// Send writes one command frame.
func (c *Client) Send(cmd link.Command) error {
	if _, err := c.rw.Write(link.EncodeCommand(cmd)); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	return nil
}

// Exchange sends cmd and decodes the last telemetry frame received within
// the wait period. The controller replies once per command it decodes, so a
// backlog of older replies may precede the newest one.
func (c *Client) Exchange(cmd link.Command) (link.Telemetry, error) {
	if err := c.Send(cmd); err != nil {
		return link.Telemetry{}, err
	}

	stream, err := c.collect()
	if err != nil {
		return link.Telemetry{}, err
	}

	frame, err := link.FindTelemetry(stream)
	if err != nil {
		return link.Telemetry{}, fmt.Errorf("%w in % X", err, stream)
	}
	return link.DecodeTelemetry(frame)
}

// collect reads until the wait period ends, the input drains after a frame
// has arrived, or the reader reports EOF.
func (c *Client) collect() ([]byte, error) {
	deadline := c.now().Add(c.wait)
	chunk := make([]byte, 64)
	var stream []byte

	for {
		n, err := c.rw.Read(chunk)
		stream = append(stream, chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return stream, nil
			}
			return stream, fmt.Errorf("read telemetry: %w", err)
		}
		if n == 0 && hasFrame(stream) {
			return stream, nil
		}
		if !c.now().Before(deadline) {
			return stream, nil
		}
	}
}

func hasFrame(stream []byte) bool {
	_, err := link.FindTelemetry(stream)
	return err == nil
}
