package vpxencoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/user/vpxenc/pkg/media"
)

func TestFrameDuration(t *testing.T) {
	frameAt := func(ts time.Duration) *media.VideoFrame {
		return &media.VideoFrame{Timestamp: ts}
	}

	tests := []struct {
		name      string
		frame     *media.VideoFrame
		framerate float64
		last      time.Duration
		want      time.Duration
	}{
		{
			name:      "metadata wins over framerate",
			frame:     frameAt(time.Second).WithFrameDuration(50 * time.Millisecond),
			framerate: 30,
			last:      960 * time.Millisecond,
			want:      50 * time.Millisecond,
		},
		{
			name:      "framerate",
			frame:     frameAt(time.Second),
			framerate: 25,
			last:      900 * time.Millisecond,
			want:      40 * time.Millisecond,
		},
		{
			name:  "gap within range",
			frame: frameAt(140 * time.Millisecond),
			last:  100 * time.Millisecond,
			want:  40 * time.Millisecond,
		},
		{
			name:  "short gap clamps up",
			frame: frameAt(105 * time.Millisecond),
			last:  100 * time.Millisecond,
			want:  time.Second / 60,
		},
		{
			name:  "long gap clamps down",
			frame: frameAt(200 * time.Millisecond),
			last:  100 * time.Millisecond,
			want:  time.Second / 24,
		},
		{
			name:  "timestamp going backwards",
			frame: frameAt(0),
			last:  100 * time.Millisecond,
			want:  time.Second / 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, frameDuration(tt.frame, tt.framerate, tt.last))
		})
	}
}
