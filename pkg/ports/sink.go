package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate processing results for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveConfigJSON saves the effective encoder configuration as JSON.
	SaveConfigJSON(data []byte) error

	// SaveFrame saves a source frame as an image.
	SaveFrame(index int, img image.Image) error

	// SavePacket saves one encoded output as a raw bitstream chunk.
	SavePacket(index int, out EncodedOutput) error
}
