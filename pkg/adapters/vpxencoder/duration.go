package vpxencoder

import (
	"time"

	"github.com/user/vpxenc/pkg/media"
)

const (
	minFrameDuration = time.Second / 60
	maxFrameDuration = time.Second / 24
)

// frameDuration picks the duration passed to libvpx for frame. Declared
// metadata wins, then the configured framerate, then the gap to the
// previous frame clamped to [1/60 s, 1/24 s].
func frameDuration(frame *media.VideoFrame, framerate float64, lastTimestamp time.Duration) time.Duration {
	if d := frame.Metadata.FrameDuration; d != nil {
		return *d
	}
	if framerate > 0 {
		return time.Duration(float64(time.Second) / framerate)
	}

	d := frame.Timestamp - lastTimestamp
	if d < minFrameDuration {
		return minFrameDuration
	}
	if d > maxFrameDuration {
		return maxFrameDuration
	}
	return d
}
