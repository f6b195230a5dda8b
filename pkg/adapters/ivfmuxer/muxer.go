// Package ivfmuxer writes VP8/VP9 elementary streams as IVF files.
package ivfmuxer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/user/vpxenc/pkg/ports"
)

const (
	fileHeaderSize  = 32
	frameHeaderSize = 12

	// Timestamps are written in microseconds.
	timebaseDen = 1000000
	timebaseNum = 1
)

var (
	// ErrNotStarted is returned when packets are written before Begin.
	ErrNotStarted = errors.New("ivfmuxer: stream not started")

	// ErrFrameTooLarge is returned for dimensions IVF cannot store.
	ErrFrameTooLarge = errors.New("ivfmuxer: frame dimensions exceed 65535")
)

// Muxer implements ports.Muxer for IVF.
type Muxer struct {
	buf     bytes.Buffer
	frames  uint32
	started bool
}

// New creates an IVF muxer.
func New() *Muxer {
	return &Muxer{}
}

// FourCC returns the IVF codec tag for a profile.
func FourCC(profile ports.Profile) string {
	if profile.IsVP9() {
		return "VP90"
	}
	return "VP80"
}

// Begin writes the file header. The frame count is patched in End.
func (m *Muxer) Begin(info ports.StreamInfo) error {
	if info.FrameSize.Width > 0xffff || info.FrameSize.Height > 0xffff {
		return fmt.Errorf("%w: %s", ErrFrameTooLarge, info.FrameSize)
	}

	m.buf.Reset()
	m.frames = 0
	m.started = true

	var hdr [fileHeaderSize]byte
	copy(hdr[0:4], "DKIF")
	binary.LittleEndian.PutUint16(hdr[4:], 0)
	binary.LittleEndian.PutUint16(hdr[6:], fileHeaderSize)
	copy(hdr[8:12], FourCC(info.Profile))
	binary.LittleEndian.PutUint16(hdr[12:], uint16(info.FrameSize.Width))
	binary.LittleEndian.PutUint16(hdr[14:], uint16(info.FrameSize.Height))
	binary.LittleEndian.PutUint32(hdr[16:], timebaseDen)
	binary.LittleEndian.PutUint32(hdr[20:], timebaseNum)
	m.buf.Write(hdr[:])
	return nil
}

// WritePacket appends one frame with its presentation timestamp.
func (m *Muxer) WritePacket(out ports.EncodedOutput) error {
	if !m.started {
		return ErrNotStarted
	}

	var hdr [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(out.Data)))
	binary.LittleEndian.PutUint64(hdr[4:], uint64(out.Timestamp/time.Microsecond))
	m.buf.Write(hdr[:])
	m.buf.Write(out.Data)
	m.frames++
	return nil
}

// End returns the complete file.
func (m *Muxer) End() ([]byte, error) {
	if !m.started {
		return nil, ErrNotStarted
	}
	m.started = false

	data := m.buf.Bytes()
	binary.LittleEndian.PutUint32(data[24:], m.frames)

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

var _ ports.Muxer = (*Muxer)(nil)
