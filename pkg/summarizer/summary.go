// Package summarizer provides summary generation for encoding runs.
package summarizer

import "time"

// Summary contains all data collected during an encoding run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Where frames came from
	Source SourceInfo

	// Encoder settings
	Settings Settings

	// Stream output details
	Output OutputInfo
}

// SourceInfo describes the frame source.
type SourceInfo struct {
	Kind        string // raw, pattern or screencast
	Description string // path or URL
	Width       int
	Height      int
}

// Settings contains the encoder configuration.
type Settings struct {
	Profile            string
	Width              int
	Height             int
	Bitrate            int // bits per second, 0 = VBR
	KeyframeInterval   int
	Framerate          float64
	ForceKeyframeEvery int
	Container          string
}

// OutputInfo contains information about the encoded stream.
type OutputInfo struct {
	Path            string
	FrameCount      int
	PacketCount     int
	KeyframeCount   int
	Bytes           int64
	FileSize        int64
	DurationMs      int
	ElapsedMs       int
	FinalWidth      int
	FinalHeight     int
	ResizesApplied  int
	ResizesRejected int
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source information.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithSettings sets encoder settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutput sets stream output information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
