package link

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sweeney/tank-controller/internal/irq"
)

// Receive reads from r until ctx is done or r fails, raising one RX
// interrupt per received byte on ch. A read that returns no bytes (a serial
// read timeout) is not an error.
func Receive(ctx context.Context, r io.Reader, ch *Channel) error {
	buf := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			irq.Serve(func() { ch.Write(b) })
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
	}
}
