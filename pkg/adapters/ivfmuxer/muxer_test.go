package ivfmuxer

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/pion/webrtc/v3/pkg/media/ivfreader"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

func TestMuxer_RoundTrip(t *testing.T) {
	m := New()
	if err := m.Begin(ports.StreamInfo{
		Profile:   ports.ProfileVP9Profile0,
		FrameSize: media.Size{Width: 640, Height: 360},
		Framerate: 30,
	}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	packets := []ports.EncodedOutput{
		{Data: []byte{0x82, 0x49, 0x83}, Timestamp: 0, Keyframe: true},
		{Data: []byte{0x86, 0x00}, Timestamp: 33333 * time.Microsecond},
		{Data: []byte{0x86, 0x01, 0x02, 0x03}, Timestamp: 66666 * time.Microsecond},
	}
	for _, p := range packets {
		if err := m.WritePacket(p); err != nil {
			t.Fatalf("WritePacket failed: %v", err)
		}
	}

	data, err := m.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}

	reader, header, err := ivfreader.NewWith(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ivfreader rejected output: %v", err)
	}
	if header.FourCC != "VP90" {
		t.Errorf("expected FourCC VP90, got %q", header.FourCC)
	}
	if header.Width != 640 || header.Height != 360 {
		t.Errorf("expected 640x360, got %dx%d", header.Width, header.Height)
	}
	if header.TimebaseDenominator != 1000000 || header.TimebaseNumerator != 1 {
		t.Errorf("unexpected timebase %d/%d", header.TimebaseNumerator, header.TimebaseDenominator)
	}
	if header.NumFrames != 3 {
		t.Errorf("expected 3 frames, got %d", header.NumFrames)
	}

	for i, want := range packets {
		frame, fh, err := reader.ParseNextFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(frame, want.Data) {
			t.Errorf("frame %d: payload mismatch", i)
		}
		if fh.Timestamp != uint64(want.Timestamp.Microseconds()) {
			t.Errorf("frame %d: expected timestamp %d, got %d", i, want.Timestamp.Microseconds(), fh.Timestamp)
		}
	}
	if _, _, err := reader.ParseNextFrame(); err != io.EOF {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
}

func TestMuxer_VP8FourCC(t *testing.T) {
	m := New()
	if err := m.Begin(ports.StreamInfo{Profile: ports.ProfileVP8, FrameSize: media.Size{Width: 16, Height: 16}}); err != nil {
		t.Fatal(err)
	}
	data, err := m.End()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != fileHeaderSize {
		t.Errorf("expected header-only file, got %d bytes", len(data))
	}
	if string(data[8:12]) != "VP80" {
		t.Errorf("expected VP80, got %q", data[8:12])
	}
}

func TestMuxer_NotStarted(t *testing.T) {
	m := New()
	if err := m.WritePacket(ports.EncodedOutput{Data: []byte{1}}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
	if _, err := m.End(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestMuxer_FrameTooLarge(t *testing.T) {
	m := New()
	err := m.Begin(ports.StreamInfo{Profile: ports.ProfileVP8, FrameSize: media.Size{Width: 70000, Height: 16}})
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}
