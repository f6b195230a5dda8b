package pipeline

import (
	"time"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

// Resize reconfigures the encoder when frame AtFrame is reached.
type Resize struct {
	AtFrame   int
	FrameSize media.Size
	Bitrate   int // 0 keeps the current bitrate
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains parameters for video encoding.
type EncodeInput struct {
	Source  ports.FrameSource
	Profile ports.Profile

	// Options are completed from the source's SourceInfo where unset.
	Options ports.EncoderOptions

	// ForceKeyframeEvery requests a keyframe every N frames (0 = first frame only).
	ForceKeyframeEvery int

	// Resizes are applied in AtFrame order.
	Resizes []Resize

	// MaxFrames stops after N frames (0 = until the source ends).
	MaxFrames int
}

// EncodeResult contains the encoding output.
type EncodeResult struct {
	Options   ports.EncoderOptions // Effective options at initialization
	FinalSize media.Size

	Frames    int
	Packets   int
	Keyframes int
	Bytes     int64

	// Duration is the timestamp of the last encoded output.
	Duration time.Duration
	Elapsed  time.Duration

	ResizesApplied  int
	ResizesRejected int

	// Container holds the muxed stream, nil for transport muxers.
	Container []byte
}
