// Package link implements the framed serial link to the host computer: the
// receive-side ring buffer fed by the RX interrupt, frame extraction for the
// main loop, the byte codec for both directions, and the UART transport.
package link

// Protocol marker bytes.
const (
	StartByte       byte = 0x7E
	StopByte        byte = 0x7D
	SetpointByte    byte = 0x5C
	PowerByte       byte = 0x88
	TemperatureByte byte = 0x3A
	WaterLevelByte  byte = 0x2F
	FillerByte      byte = 0xFF
)

const (
	// BufferSize is the capacity of the receive ring buffer. One slot is
	// always kept free, so at most BufferSize-1 bytes are buffered.
	BufferSize = 256

	// FrameSize is the inbound payload length, excluding start and stop bytes.
	FrameSize = 7

	// TelemetrySize is the length of an outbound frame including framing.
	TelemetrySize = 9
)
