package ports

import (
	"context"

	"github.com/user/vpxenc/pkg/media"
)

// SourceInfo describes the frames a FrameSource produces.
type SourceInfo struct {
	FrameSize media.Size
	Framerate float64 // 0 when frames arrive at an irregular rate
}

// FrameSource produces raw video frames.
type FrameSource interface {
	// Open prepares the source.
	Open(ctx context.Context) (SourceInfo, error)

	// Next returns the next frame, or io.EOF when the source is exhausted.
	Next(ctx context.Context) (*media.VideoFrame, error)

	// Close releases the source.
	Close() error
}
