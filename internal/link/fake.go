package link

import (
	"bytes"
	"io"
	"sync"
)

// FakePort is an in-memory Port for tests. Reads are served from scripted
// chunks; writes are recorded.
type FakePort struct {
	mu sync.Mutex

	// Chunks are returned one per Read. When exhausted Read returns io.EOF.
	Chunks [][]byte

	// Written holds every byte written.
	Written bytes.Buffer

	// WriteError, if set, is returned by Write.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePort creates a FakePort that will deliver chunks in order.
func NewFakePort(chunks ...[]byte) *FakePort {
	return &FakePort{Chunks: chunks}
}

// Read returns the next scripted chunk.
func (f *FakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, f.Chunks[0])
	if n < len(f.Chunks[0]) {
		f.Chunks[0] = f.Chunks[0][n:]
	} else {
		f.Chunks = f.Chunks[1:]
	}
	return n, nil
}

// Write records p.
func (f *FakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteError != nil {
		return 0, f.WriteError
	}
	return f.Written.Write(p)
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true
	return nil
}

// Sent returns a copy of everything written so far.
func (f *FakePort) Sent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]byte(nil), f.Written.Bytes()...)
}

// Reset clears recorded writes.
func (f *FakePort) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Written.Reset()
	f.WriteError = nil
	f.Closed = false
}
