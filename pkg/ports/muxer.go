package ports

import "github.com/user/vpxenc/pkg/media"

// StreamInfo describes the elementary stream handed to a muxer.
type StreamInfo struct {
	Profile   Profile
	FrameSize media.Size
	Framerate float64
}

// Muxer consumes encoded outputs and produces a container or transport
// stream.
type Muxer interface {
	// Begin starts a new stream.
	Begin(info StreamInfo) error

	// WritePacket appends one encoded output.
	WritePacket(out EncodedOutput) error

	// End finalizes the stream and returns the container bytes, if any.
	End() ([]byte, error)
}
