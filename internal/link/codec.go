package link

import (
	"encoding/binary"
	"errors"
	"math"
)

// Command is what the host asks of the device in one inbound frame.
type Command struct {
	Power    bool
	Setpoint float32
}

// Telemetry is what the device reports in one outbound frame.
type Telemetry struct {
	Level       uint8 // water level, percent
	Temperature float32
}

// ErrNoTelemetry is returned when a byte stream holds no telemetry frame.
var ErrNoTelemetry = errors.New("no telemetry frame found")

// ErrMissingField is returned when a telemetry frame lacks a marker.
var ErrMissingField = errors.New("telemetry frame missing field")

// DecodeCommand decodes an inbound payload. Values are positional by marker:
// the byte after PowerByte is the power flag, the four bytes after
// SetpointByte are a little-endian float32.
//
// Every payload byte is checked for markers, value bytes included, and the
// last occurrence wins. A missing marker leaves its index at 0, so the value
// is read from the first payload byte. Value bytes past the end of the
// payload read as zero.
func DecodeCommand(payload []byte) Command {
	powerIdx, setpointIdx := 0, 0
	for i, b := range payload {
		if b == PowerByte {
			powerIdx = i + 1
		} else if b == SetpointByte {
			setpointIdx = i + 1
		}
	}

	var raw [4]byte
	if setpointIdx < len(payload) {
		copy(raw[:], payload[setpointIdx:])
	}

	return Command{
		Power:    byteAt(payload, powerIdx) != 0,
		Setpoint: math.Float32frombits(binary.LittleEndian.Uint32(raw[:])),
	}
}

// EncodeCommand builds the framed inbound message the host sends.
func EncodeCommand(cmd Command) []byte {
	frame := make([]byte, 0, FrameSize+2)
	frame = append(frame, StartByte, PowerByte, boolByte(cmd.Power), SetpointByte)
	frame = binary.LittleEndian.AppendUint32(frame, math.Float32bits(cmd.Setpoint))
	return append(frame, StopByte)
}

// EncodeTelemetry builds the 9-byte outbound frame.
func EncodeTelemetry(t Telemetry) [TelemetrySize]byte {
	var frame [TelemetrySize]byte
	frame[0] = StartByte
	frame[1] = WaterLevelByte
	frame[2] = t.Level
	frame[3] = TemperatureByte
	binary.LittleEndian.PutUint32(frame[4:8], math.Float32bits(t.Temperature))
	frame[8] = StopByte
	return frame
}

// DecodeTelemetry decodes a 9-byte outbound frame by marker position.
func DecodeTelemetry(frame []byte) (Telemetry, error) {
	if len(frame) != TelemetrySize || frame[0] != StartByte || frame[TelemetrySize-1] != StopByte {
		return Telemetry{}, ErrNoTelemetry
	}

	var t Telemetry
	var haveLevel, haveTemp bool
	for i := 1; i < TelemetrySize-1; i++ {
		switch frame[i] {
		case WaterLevelByte:
			if !haveLevel {
				t.Level = frame[i+1]
				haveLevel = true
			}
		case TemperatureByte:
			if !haveTemp && i+5 <= TelemetrySize {
				t.Temperature = math.Float32frombits(binary.LittleEndian.Uint32(frame[i+1 : i+5]))
				haveTemp = true
			}
		}
	}
	if !haveLevel || !haveTemp {
		return t, ErrMissingField
	}
	return t, nil
}

// FindTelemetry returns the last well-formed telemetry frame in stream: a
// StartByte, seven bytes of anything, then a StopByte.
func FindTelemetry(stream []byte) ([]byte, error) {
	for i := len(stream) - TelemetrySize; i >= 0; i-- {
		if stream[i] == StartByte && stream[i+TelemetrySize-1] == StopByte {
			return stream[i : i+TelemetrySize], nil
		}
	}
	return nil, ErrNoTelemetry
}

func byteAt(p []byte, i int) byte {
	if i < len(p) {
		return p[i]
	}
	return 0
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
