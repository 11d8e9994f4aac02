package link

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func float32LE(f float32) []byte {
	return binary.LittleEndian.AppendUint32(nil, math.Float32bits(f))
}

func TestDecodeCommandHostLayout(t *testing.T) {
	payload := append([]byte{PowerByte, 1, SetpointByte}, float32LE(55.5)...)

	cmd := DecodeCommand(payload)
	if !cmd.Power {
		t.Error("expected power on")
	}
	if cmd.Setpoint != 55.5 {
		t.Errorf("setpoint: got %v, want 55.5", cmd.Setpoint)
	}
}

func TestDecodeCommandMarkersInAnyOrder(t *testing.T) {
	payload := append([]byte{SetpointByte}, float32LE(40)...)
	payload = append(payload, PowerByte, 0)

	cmd := DecodeCommand(payload)
	if cmd.Power {
		t.Error("expected power off")
	}
	if cmd.Setpoint != 40 {
		t.Errorf("setpoint: got %v, want 40", cmd.Setpoint)
	}
}

// Missing markers fall back to index 0: the first payload byte is read as the
// value.
func TestDecodeCommandMissingMarkersReadIndexZero(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}

	cmd := DecodeCommand(payload)
	if !cmd.Power {
		t.Error("expected power decoded from byte 0 (0x01) as on")
	}
	want := math.Float32frombits(binary.LittleEndian.Uint32(payload[0:4]))
	if cmd.Setpoint != want {
		t.Errorf("setpoint: got %v, want %v from bytes 0..3", cmd.Setpoint, want)
	}
}

func TestDecodeCommandValuePastEndReadsZero(t *testing.T) {
	payload := []byte{0, 0, 0, 0, 0, 0, PowerByte}

	cmd := DecodeCommand(payload)
	if cmd.Power {
		t.Error("power value past the payload should read as zero")
	}

	payload = []byte{0, 0, 0, 0, SetpointByte, 0x00, 0x80}
	cmd = DecodeCommand(payload)
	want := math.Float32frombits(0x00008000)
	if cmd.Setpoint != want {
		t.Errorf("setpoint: got %v, want %v", cmd.Setpoint, want)
	}
}

func TestEncodeCommandRoundTripsThroughChannel(t *testing.T) {
	msg := EncodeCommand(Command{Power: true, Setpoint: 62.25})
	if len(msg) != FrameSize+2 {
		t.Fatalf("expected %d bytes, got %d", FrameSize+2, len(msg))
	}

	c := NewChannel(nil)
	writeAll(c, msg)
	out := make([]byte, FrameSize)
	if n := c.ExtractFrame(out); n != FrameSize {
		t.Fatalf("expected a frame, got %d bytes", n)
	}

	cmd := DecodeCommand(out)
	if !cmd.Power || cmd.Setpoint != 62.25 {
		t.Errorf("got %+v", cmd)
	}
}

func TestEncodeTelemetryLayout(t *testing.T) {
	got := EncodeTelemetry(Telemetry{Level: 42, Temperature: 21.5})

	want := []byte{StartByte, WaterLevelByte, 42, TemperatureByte}
	want = append(want, float32LE(21.5)...)
	want = append(want, StopByte)

	if !bytes.Equal(got[:], want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestDecodeTelemetry(t *testing.T) {
	frame := EncodeTelemetry(Telemetry{Level: 87, Temperature: 64.75})

	got, err := DecodeTelemetry(frame[:])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Level != 87 || got.Temperature != 64.75 {
		t.Errorf("got %+v", got)
	}
}

func TestDecodeTelemetryErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  error
	}{
		{"short", []byte{StartByte, StopByte}, ErrNoTelemetry},
		{"no start", []byte{0, WaterLevelByte, 1, TemperatureByte, 0, 0, 0, 0, StopByte}, ErrNoTelemetry},
		{"no level", []byte{StartByte, FillerByte, 1, TemperatureByte, 0, 0, 0, 0, StopByte}, ErrMissingField},
		{"no temperature", []byte{StartByte, WaterLevelByte, 1, FillerByte, 0, 0, 0, 0, StopByte}, ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTelemetry(tt.frame)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFindTelemetryReturnsLastFrame(t *testing.T) {
	first := EncodeTelemetry(Telemetry{Level: 10, Temperature: 20})
	last := EncodeTelemetry(Telemetry{Level: 11, Temperature: 21})

	stream := []byte{0x00, 0x01}
	stream = append(stream, first[:]...)
	stream = append(stream, 0x55)
	stream = append(stream, last[:]...)
	stream = append(stream, last[:4]...) // partial trailing frame

	got, err := FindTelemetry(stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, last[:]) {
		t.Errorf("got %x, want %x", got, last)
	}
}

func TestFindTelemetryNone(t *testing.T) {
	if _, err := FindTelemetry([]byte{StartByte, 1, 2, 3}); !errors.Is(err, ErrNoTelemetry) {
		t.Errorf("expected ErrNoTelemetry, got %v", err)
	}
	if _, err := FindTelemetry(nil); !errors.Is(err, ErrNoTelemetry) {
		t.Errorf("expected ErrNoTelemetry for nil stream, got %v", err)
	}
}
