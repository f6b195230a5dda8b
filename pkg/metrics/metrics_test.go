package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/mocks"
	"github.com/user/vpxenc/pkg/ports"
)

func gather(t *testing.T, m *Metrics) map[string]float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	values := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				values[f.GetName()] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return values
}

func TestInstrument_CountsOutputs(t *testing.T) {
	m := New()
	inner := &mocks.VideoEncoder{}
	enc := Instrument(inner, m)

	var delivered int
	err := enc.Initialize(ports.ProfileVP8, ports.EncoderOptions{FrameSize: media.Size{Width: 64, Height: 48}}, func(ports.EncodedOutput) {
		delivered++
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		f, err := media.NewFrame(media.PixelFormatI420, media.Size{Width: 64, Height: 48}, time.Duration(i)*time.Second/30)
		if err != nil {
			t.Fatal(err)
		}
		if err := enc.Encode(f, false); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.ChangeOptions(ports.EncoderOptions{FrameSize: media.Size{Width: 32, Height: 24}}, nil); err != nil {
		t.Fatal(err)
	}

	v := gather(t, m)
	if delivered != 3 {
		t.Errorf("expected 3 outputs delivered, got %d", delivered)
	}
	if v["vpxenc_frames_encoded_total"] != 3 || v["vpxenc_packets_total"] != 3 {
		t.Errorf("unexpected counters %v", v)
	}
	if v["vpxenc_keyframes_total"] != 1 {
		t.Errorf("expected 1 keyframe, got %v", v["vpxenc_keyframes_total"])
	}
	if v["vpxenc_bytes_total"] != float64(3*len("frame-0")) {
		t.Errorf("unexpected bytes %v", v["vpxenc_bytes_total"])
	}
	if v["vpxenc_encode_seconds"] != 3 {
		t.Errorf("expected 3 latency samples, got %v", v["vpxenc_encode_seconds"])
	}
	if v["vpxenc_frame_width"] != 32 || v["vpxenc_reconfigures_total"] != 1 {
		t.Errorf("expected the new size to be recorded, got %v", v)
	}
}

func TestInstrument_CountsErrors(t *testing.T) {
	m := New()
	boom := errors.New("boom")
	enc := Instrument(&mocks.VideoEncoder{
		EncodeFunc: func(*media.VideoFrame, bool) error { return boom },
		FlushFunc:  func() error { return boom },
	}, m)

	if err := enc.Encode(&media.VideoFrame{}, false); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if err := enc.Flush(); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if got := m.EncodeErrors.Load(); got != 2 {
		t.Errorf("expected 2 errors, got %d", got)
	}
	if got := m.FramesEncoded.Load(); got != 0 {
		t.Errorf("expected no frames counted, got %d", got)
	}
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.Packets.Add(5)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "vpxenc_packets_total 5") {
		t.Errorf("expected packets counter in exposition, got:\n%s", body)
	}
}
