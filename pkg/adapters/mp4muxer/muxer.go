// Package mp4muxer packages VP8/VP9 outputs into a fragmented MP4 file.
package mp4muxer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/vpxenc/pkg/ports"
)

// Timescale is the media timescale of the video track.
const Timescale = 90000

var (
	// ErrNotStarted is returned when packets are written before Begin.
	ErrNotStarted = errors.New("mp4muxer: stream not started")

	// ErrNoFrames is returned when End is called without any packet.
	ErrNoFrames = errors.New("mp4muxer: no frames to mux")
)

type sample struct {
	data      []byte
	timestamp time.Duration
	keyframe  bool
}

// Muxer implements ports.Muxer by buffering every packet and writing
// ftyp, moov and a single moof/mdat fragment in End.
type Muxer struct {
	info    ports.StreamInfo
	samples []sample
	started bool
}

// New creates an MP4 muxer.
func New() *Muxer {
	return &Muxer{}
}

// SampleEntryType returns the sample entry name for a profile.
func SampleEntryType(profile ports.Profile) string {
	if profile.IsVP9() {
		return "vp09"
	}
	return "vp08"
}

// Begin starts a new stream.
func (m *Muxer) Begin(info ports.StreamInfo) error {
	if info.FrameSize.Width <= 0 || info.FrameSize.Height <= 0 ||
		info.FrameSize.Width > 0xffff || info.FrameSize.Height > 0xffff {
		return fmt.Errorf("mp4muxer: invalid frame size %s", info.FrameSize)
	}
	m.info = info
	m.samples = nil
	m.started = true
	return nil
}

// WritePacket buffers one encoded output.
func (m *Muxer) WritePacket(out ports.EncodedOutput) error {
	if !m.started {
		return ErrNotStarted
	}
	m.samples = append(m.samples, sample{
		data:      out.Data,
		timestamp: out.Timestamp,
		keyframe:  out.Keyframe,
	})
	return nil
}

// End builds the MP4 file.
func (m *Muxer) End() ([]byte, error) {
	if !m.started {
		return nil, ErrNotStarted
	}
	m.started = false
	if len(m.samples) == 0 {
		return nil, ErrNoFrames
	}

	trackID := uint32(1)
	width := uint16(m.info.FrameSize.Width)
	height := uint16(m.info.FrameSize.Height)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(Timescale, "video", "und")
	trak := init.Moov.Trak

	vpcC := newVPCodecConfig(m.info.Profile, m.info.FrameSize)
	entry := mp4.CreateVisualSampleEntryBox(SampleEntryType(m.info.Profile), width, height, vpcC)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)

	trak.Tkhd.Width = mp4.Fixed32(uint32(width) << 16)
	trak.Tkhd.Height = mp4.Fixed32(uint32(height) << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	start := m.samples[0].timestamp
	for i, s := range m.samples {
		flags := mp4.NonSyncSampleFlags
		if s.keyframe {
			flags = mp4.SyncSampleFlags
		}

		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(s.data)),
				Dur:   m.sampleDuration(i),
			},
			DecodeTime: toTimescale(s.timestamp - start),
			Data:       s.data,
		})
	}

	var buf bytes.Buffer

	ftyp := mp4.NewFtyp("iso6", 0, []string{"iso6", "mp41", SampleEntryType(m.info.Profile)})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}

	m.samples = nil
	return buf.Bytes(), nil
}

// sampleDuration is the gap to the next sample. The last sample lasts one
// frame interval, or as long as the previous one without a framerate.
func (m *Muxer) sampleDuration(i int) uint32 {
	if i+1 < len(m.samples) {
		if d := m.samples[i+1].timestamp - m.samples[i].timestamp; d > 0 {
			return uint32(toTimescale(d))
		}
	} else if m.info.Framerate > 0 {
		return uint32(Timescale / m.info.Framerate)
	} else if i > 0 {
		return m.sampleDuration(i - 1)
	}
	return Timescale / 30
}

func toTimescale(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d) * Timescale / uint64(time.Second)
}

// ParseVPCodecConfig decodes an encoded vpcC box including its header.
func ParseVPCodecConfig(box []byte) (*VPCodecConfigBox, error) {
	if len(box) < 8 || string(box[4:8]) != "vpcC" {
		return nil, fmt.Errorf("not a vpcC box")
	}
	if size := binary.BigEndian.Uint32(box); int(size) > len(box) {
		return nil, fmt.Errorf("vpcC box truncated")
	}
	return parseVPCodecConfig(box[8:])
}

var _ ports.Muxer = (*Muxer)(nil)
