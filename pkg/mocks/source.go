package mocks

import (
	"context"
	"io"
	"time"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource producing
// Count blank I420 frames.
type FrameSource struct {
	Size      media.Size
	Framerate float64
	Count     int

	OpenErr error
	NextErr error // returned instead of frame NextErrAt
	NextErrAt int

	Opened bool
	Closed bool
	served int
}

// NewFrameSource creates a source of count frames at 30 fps.
func NewFrameSource(size media.Size, count int) *FrameSource {
	return &FrameSource{Size: size, Framerate: 30, Count: count}
}

func (m *FrameSource) Open(ctx context.Context) (ports.SourceInfo, error) {
	if m.OpenErr != nil {
		return ports.SourceInfo{}, m.OpenErr
	}
	m.Opened = true
	return ports.SourceInfo{FrameSize: m.Size, Framerate: m.Framerate}, nil
}

func (m *FrameSource) Next(ctx context.Context) (*media.VideoFrame, error) {
	if m.NextErr != nil && m.served == m.NextErrAt {
		return nil, m.NextErr
	}
	if m.served >= m.Count {
		return nil, io.EOF
	}
	var ts time.Duration
	if m.Framerate > 0 {
		ts = time.Duration(float64(m.served) / m.Framerate * float64(time.Second))
	}
	m.served++
	return media.NewFrame(media.PixelFormatI420, m.Size, ts)
}

func (m *FrameSource) Close() error {
	m.Closed = true
	return nil
}

var _ ports.FrameSource = (*FrameSource)(nil)
