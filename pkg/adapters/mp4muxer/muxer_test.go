package mp4muxer

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

func muxPackets(t *testing.T, info ports.StreamInfo, packets []ports.EncodedOutput) []byte {
	t.Helper()
	m := New()
	if err := m.Begin(info); err != nil {
		t.Fatalf("Begin failed: %v", err)
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
	return data
}

func TestMuxer_Decodes(t *testing.T) {
	data := muxPackets(t, ports.StreamInfo{
		Profile:   ports.ProfileVP9Profile0,
		FrameSize: media.Size{Width: 320, Height: 240},
		Framerate: 25,
	}, []ports.EncodedOutput{
		{Data: []byte{1, 2, 3}, Timestamp: 100 * time.Millisecond, Keyframe: true},
		{Data: []byte{4, 5}, Timestamp: 140 * time.Millisecond},
		{Data: []byte{6}, Timestamp: 180 * time.Millisecond},
	})

	f, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if !f.IsFragmented() {
		t.Fatal("expected a fragmented file")
	}

	trak := f.Init.Moov.Traks[0]
	if trak.Mdia.Mdhd.Timescale != Timescale {
		t.Errorf("expected timescale %d, got %d", Timescale, trak.Mdia.Mdhd.Timescale)
	}
	if got := trak.Tkhd.Width >> 16; got != 320 {
		t.Errorf("expected width 320, got %d", got)
	}
	if typ := trak.Mdia.Minf.Stbl.Stsd.Children[0].Type(); typ != "vp09" {
		t.Errorf("expected vp09 sample entry, got %s", typ)
	}

	var samples []mp4.FullSample
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			s, err := frag.GetFullSamples(f.Init.Moov.Mvex.Trexs[0])
			if err != nil {
				t.Fatalf("GetFullSamples failed: %v", err)
			}
			samples = append(samples, s...)
		}
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[0].DecodeTime != 0 {
		t.Errorf("expected first decode time 0, got %d", samples[0].DecodeTime)
	}
	if samples[0].Dur != 3600 || samples[2].Dur != 3600 {
		t.Errorf("expected 40ms durations, got %d and %d", samples[0].Dur, samples[2].Dur)
	}
	if samples[0].Flags != mp4.SyncSampleFlags {
		t.Error("expected first sample to be a sync sample")
	}
	if samples[1].Flags != mp4.NonSyncSampleFlags {
		t.Error("expected second sample to be a non-sync sample")
	}
	if !bytes.Equal(samples[1].Data, []byte{4, 5}) {
		t.Errorf("unexpected sample data %v", samples[1].Data)
	}
}

func TestMuxer_LastDurationWithoutFramerate(t *testing.T) {
	m := New()
	m.info = ports.StreamInfo{Profile: ports.ProfileVP8, FrameSize: media.Size{Width: 16, Height: 16}}
	m.samples = []sample{{timestamp: 0}, {timestamp: 50 * time.Millisecond}}

	if got := m.sampleDuration(1); got != 4500 {
		t.Errorf("expected 4500, got %d", got)
	}

	m.samples = []sample{{timestamp: 0}}
	if got := m.sampleDuration(0); got != Timescale/30 {
		t.Errorf("expected %d, got %d", Timescale/30, got)
	}
}

func TestMuxer_Errors(t *testing.T) {
	m := New()
	if err := m.WritePacket(ports.EncodedOutput{}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
	if err := m.Begin(ports.StreamInfo{Profile: ports.ProfileVP8}); err == nil {
		t.Error("expected error for empty frame size")
	}
	if err := m.Begin(ports.StreamInfo{Profile: ports.ProfileVP8, FrameSize: media.Size{Width: 16, Height: 16}}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.End(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
}

func TestVPCodecConfigBox(t *testing.T) {
	box := newVPCodecConfig(ports.ProfileVP9Profile2, media.Size{Width: 1920, Height: 1080})

	var buf bytes.Buffer
	if err := box.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if uint64(buf.Len()) != box.Size() {
		t.Fatalf("encoded %d bytes, Size() says %d", buf.Len(), box.Size())
	}

	parsed, err := ParseVPCodecConfig(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseVPCodecConfig failed: %v", err)
	}
	if parsed.Profile != 2 || parsed.BitDepth != 10 || parsed.Level != 40 {
		t.Errorf("unexpected record: profile %d depth %d level %d", parsed.Profile, parsed.BitDepth, parsed.Level)
	}
	if parsed.ChromaSubsampling != chroma420Colocated {
		t.Errorf("unexpected chroma subsampling %d", parsed.ChromaSubsampling)
	}
}

func TestVP9Level(t *testing.T) {
	tests := []struct {
		size media.Size
		want uint8
	}{
		{media.Size{Width: 176, Height: 144}, 10},
		{media.Size{Width: 640, Height: 360}, 21},
		{media.Size{Width: 1280, Height: 720}, 31},
		{media.Size{Width: 3840, Height: 2160}, 50},
		{media.Size{Width: 16384, Height: 16384}, 62},
	}
	for _, tt := range tests {
		if got := vp9Level(tt.size); got != tt.want {
			t.Errorf("%s: expected level %d, got %d", tt.size, tt.want, got)
		}
	}
}
