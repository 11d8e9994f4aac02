package link

import (
	"fmt"
	"io"
)

// Channel is the device end of the framed serial link.
//
// Ownership: Write is the only writer of head, frames and dropped and runs in
// the RX interrupt. ExtractFrame is the only writer of tail and runs in the
// main loop; it also decrements frames, so FrameCount, Dropped and
// ExtractFrame must be called inside an irq section.
type Channel struct {
	buf     [BufferSize]byte
	head    int
	tail    int
	frames  uint8
	dropped uint32

	tx io.Writer
}

// NewChannel creates a Channel that transmits on tx.
func NewChannel(tx io.Writer) *Channel {
	return &Channel{tx: tx}
}

func (c *Channel) isFull() bool {
	return (c.head+1)%BufferSize == c.tail
}

func (c *Channel) isEmpty() bool {
	return c.head == c.tail
}

// Write stores one received byte. It runs in the RX interrupt.
//
// A byte that arrives while the buffer is full is dropped. Every stored byte
// equal to StopByte counts as a frame, wherever it sits in the stream, so a
// stop-valued payload byte over-counts frames.
func (c *Channel) Write(b byte) {
	if c.isFull() {
		c.dropped++
		return
	}
	c.buf[c.head] = b
	c.head = (c.head + 1) % BufferSize

	if b == StopByte {
		c.frames++
	}
}

// FrameCount returns the number of stop bytes stored and not yet consumed by
// a successful extraction.
func (c *Channel) FrameCount() uint8 {
	return c.frames
}

// Dropped returns the number of bytes dropped on a full buffer since the
// Channel was created.
func (c *Channel) Dropped() uint32 {
	return c.dropped
}

// Buffered returns the number of bytes waiting in the ring buffer.
func (c *Channel) Buffered() int {
	if c.head >= c.tail {
		return c.head - c.tail
	}
	return BufferSize - c.tail + c.head
}

// ExtractFrame drains the ring buffer until it completes one frame, copying
// its payload to out, which must hold at least FrameSize bytes.
//
// Bytes before a StartByte are skipped. Inside a frame every byte is payload,
// StartByte included. A payload longer than FrameSize is discarded and the
// scan looks for the next StartByte. It returns FrameSize on
// success and 0 when the buffer runs dry first; bytes of an incomplete frame
// consumed by that scan are lost.
func (c *Channel) ExtractFrame(out []byte) int {
	n := 0
	started := false

	for !c.isEmpty() {
		b := c.buf[c.tail]
		c.tail = (c.tail + 1) % BufferSize

		if !started {
			if b == StartByte {
				started = true
				n = 0
			}
			continue
		}

		if b == StopByte && n == FrameSize {
			c.frames--
			return n
		}
		if n < FrameSize {
			out[n] = b
			n++
			continue
		}

		// Over-long payload: drop it. The byte that overran it may itself
		// open the next frame.
		started = b == StartByte
		n = 0
	}
	return 0
}

// Send transmits p one byte at a time, blocking until each byte is accepted.
// Only the main loop sends.
func (c *Channel) Send(p []byte) error {
	var one [1]byte
	for i, b := range p {
		one[0] = b
		if _, err := c.tx.Write(one[:]); err != nil {
			return fmt.Errorf("send byte %d of %d: %w", i+1, len(p), err)
		}
	}
	return nil
}
