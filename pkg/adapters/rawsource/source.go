// Package rawsource reads tightly packed raw video frames from a file.
package rawsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

var (
	// ErrNotOpen is returned when frames are read before Open.
	ErrNotOpen = errors.New("rawsource: source not open")

	// ErrInvalidFramerate is returned for non-positive framerates.
	ErrInvalidFramerate = errors.New("rawsource: framerate must be positive")
)

// Options describes the raw stream layout.
type Options struct {
	Path      string
	Format    media.PixelFormat
	FrameSize media.Size
	Framerate float64

	// MaxFrames stops the source after that many frames when positive.
	MaxFrames int
}

// Source implements ports.FrameSource over a raw file.
type Source struct {
	fs   ports.FileSystem
	opts Options

	r     io.ReadCloser
	index int
}

// New creates a raw source reading through fs.
func New(fs ports.FileSystem, opts Options) *Source {
	return &Source{fs: fs, opts: opts}
}

// Open opens the file and validates the layout.
func (s *Source) Open(ctx context.Context) (ports.SourceInfo, error) {
	if s.opts.Framerate <= 0 {
		return ports.SourceInfo{}, ErrInvalidFramerate
	}
	if _, err := media.RawFrameSize(s.opts.Format, s.opts.FrameSize); err != nil {
		return ports.SourceInfo{}, err
	}

	r, err := s.fs.Open(s.opts.Path)
	if err != nil {
		return ports.SourceInfo{}, fmt.Errorf("open raw input: %w", err)
	}
	s.r = r
	s.index = 0

	return ports.SourceInfo{FrameSize: s.opts.FrameSize, Framerate: s.opts.Framerate}, nil
}

// Next reads the next frame. Timestamps advance at the fixed framerate.
func (s *Source) Next(ctx context.Context) (*media.VideoFrame, error) {
	if s.r == nil {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.opts.MaxFrames > 0 && s.index >= s.opts.MaxFrames {
		return nil, io.EOF
	}

	ts := time.Duration(float64(s.index) * float64(time.Second) / s.opts.Framerate)
	frame, err := media.ReadRawFrame(s.r, s.opts.Format, s.opts.FrameSize, ts)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("frame %d truncated: %w", s.index, err)
		}
		return nil, err
	}
	s.index++
	return frame, nil
}

// Close closes the underlying file.
func (s *Source) Close() error {
	if s.r == nil {
		return nil
	}
	err := s.r.Close()
	s.r = nil
	return err
}

var _ ports.FrameSource = (*Source)(nil)
