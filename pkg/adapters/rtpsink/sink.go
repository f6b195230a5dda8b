// Package rtpsink packetizes encoded VP8/VP9 frames as RTP.
package rtpsink

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"

	"github.com/user/vpxenc/pkg/ports"
)

const (
	// ClockRate is the RTP clock of video payloads.
	ClockRate = 90000

	defaultMTU         = 1200
	defaultPayloadType = 96
)

var (
	// ErrNotStarted is returned when packets are written before Begin.
	ErrNotStarted = errors.New("rtpsink: stream not started")
	// ErrPacketize is returned when a non-empty frame yields no packets.
	ErrPacketize = errors.New("rtpsink: frame produced no packets")
)

// Options configures the packetizer.
type Options struct {
	MTU         uint16
	PayloadType uint8
	SSRC        uint32
}

// Sink implements ports.Muxer by writing one datagram per RTP packet.
type Sink struct {
	w    io.Writer
	opts Options

	packetizer rtp.Packetizer
	baseTS     uint32
	haveBase   bool

	packets int
	bytes   int64
}

// New creates a sink writing marshalled packets to w.
func New(w io.Writer, opts Options) *Sink {
	if opts.MTU == 0 {
		opts.MTU = defaultMTU
	}
	if opts.PayloadType == 0 {
		opts.PayloadType = defaultPayloadType
	}
	return &Sink{w: w, opts: opts}
}

// Begin selects the payloader for the stream's codec.
func (s *Sink) Begin(info ports.StreamInfo) error {
	var payloader rtp.Payloader
	if info.Profile.IsVP9() {
		// Non-flexible mode parses the uncompressed header and drops
		// frames it cannot read.
		payloader = &codecs.VP9Payloader{FlexibleMode: true}
	} else {
		payloader = &codecs.VP8Payloader{EnablePictureID: true}
	}

	s.packetizer = rtp.NewPacketizer(s.opts.MTU, s.opts.PayloadType, s.opts.SSRC, payloader, rtp.NewRandomSequencer(), ClockRate)
	s.haveBase = false
	s.packets = 0
	s.bytes = 0
	return nil
}

// WritePacket packetizes one frame. RTP timestamps follow the frame
// timestamps on the 90 kHz clock.
func (s *Sink) WritePacket(out ports.EncodedOutput) error {
	if s.packetizer == nil {
		return ErrNotStarted
	}

	if len(out.Data) == 0 {
		return nil
	}
	pkts := s.packetizer.Packetize(out.Data, 0)
	if len(pkts) == 0 {
		return fmt.Errorf("%w: %d bytes at %v, mtu %d", ErrPacketize, len(out.Data), out.Timestamp, s.opts.MTU)
	}
	if !s.haveBase {
		s.baseTS = pkts[0].Timestamp
		s.haveBase = true
	}
	ts := s.baseTS + RTPTimestamp(out.Timestamp)

	for _, p := range pkts {
		p.Timestamp = ts
		raw, err := p.Marshal()
		if err != nil {
			return fmt.Errorf("marshal rtp packet: %w", err)
		}
		if _, err := s.w.Write(raw); err != nil {
			return fmt.Errorf("write rtp packet: %w", err)
		}
		s.packets++
		s.bytes += int64(len(raw))
	}
	return nil
}

// End stops the stream. RTP has no container, so no bytes are returned.
func (s *Sink) End() ([]byte, error) {
	if s.packetizer == nil {
		return nil, ErrNotStarted
	}
	s.packetizer = nil
	return nil, nil
}

// Stats returns the number of packets and bytes written.
func (s *Sink) Stats() (packets int, bytes int64) {
	return s.packets, s.bytes
}

// RTPTimestamp converts a media timestamp to 90 kHz ticks. Negative
// timestamps map to 0.
func RTPTimestamp(d time.Duration) uint32 {
	if d < 0 {
		return 0
	}
	return uint32(uint64(d) * ClockRate / uint64(time.Second))
}

var _ ports.Muxer = (*Sink)(nil)
