// Package orchestrator coordinates the encoding pipeline.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/pipeline"
	"github.com/user/vpxenc/pkg/ports"
	"github.com/user/vpxenc/pkg/summarizer"
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Output
	OutputPath  string // empty when packets only go to a transport
	Container   string // ivf, mp4 or rtp
	SummaryPath string // empty disables the summary

	// Source description for the summary
	SourceKind        string
	SourceDescription string

	// Encoding
	Profile            ports.Profile
	Options            ports.EncoderOptions
	ForceKeyframeEvery int
	Resizes            []pipeline.Resize
	MaxFrames          int

	Version string
}

// Orchestrator coordinates the execution of the pipeline stages.
type Orchestrator struct {
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	fs          ports.FileSystem
	sink        ports.DebugSink
	logger      ports.Logger
}

// New creates a new Orchestrator.
func New(
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		encodeStage: encodeStage,
		fs:          fs,
		sink:        sink,
		logger:      logger,
	}
}

// configJSON is the debug dump of the requested configuration.
type configJSON struct {
	Profile            string            `json:"profile"`
	Width              int               `json:"width,omitempty"`
	Height             int               `json:"height,omitempty"`
	Bitrate            int               `json:"bitrate,omitempty"`
	KeyframeInterval   int               `json:"keyframe_interval,omitempty"`
	Framerate          float64           `json:"framerate,omitempty"`
	ForceKeyframeEvery int               `json:"force_keyframe_every,omitempty"`
	Resizes            []pipeline.Resize `json:"resizes,omitempty"`
	Container          string            `json:"container"`
	Output             string            `json:"output,omitempty"`
}

// Run encodes every frame of source and writes the container.
func (o *Orchestrator) Run(ctx context.Context, source ports.FrameSource, config Config) (RunResult, error) {
	o.logger.Info("Starting pipeline")

	if o.sink.Enabled() {
		data, err := json.MarshalIndent(configJSON{
			Profile:            config.Profile.String(),
			Width:              config.Options.FrameSize.Width,
			Height:             config.Options.FrameSize.Height,
			Bitrate:            config.Options.Bitrate,
			KeyframeInterval:   config.Options.KeyframeInterval,
			Framerate:          config.Options.Framerate,
			ForceKeyframeEvery: config.ForceKeyframeEvery,
			Resizes:            config.Resizes,
			Container:          config.Container,
			Output:             config.OutputPath,
		}, "", "  ")
		if err == nil {
			if err := o.sink.SaveConfigJSON(data); err != nil {
				o.logger.Warn("Failed to save debug config: %v", err)
			}
		}
	}

	o.logger.Info("Encoding %s with %s", config.SourceKind, config.Profile)
	encoded, err := o.encodeStage.Execute(ctx, pipeline.EncodeInput{
		Source:             source,
		Profile:            config.Profile,
		Options:            config.Options,
		ForceKeyframeEvery: config.ForceKeyframeEvery,
		Resizes:            config.Resizes,
		MaxFrames:          config.MaxFrames,
	})
	if err != nil {
		o.logger.Error("Failed to encode video: %s", err)
		return RunResult{}, fmt.Errorf("encode stage: %w", err)
	}
	o.logger.Info("Encoded %d frames into %d packets (%d bytes)", encoded.Frames, encoded.Packets, encoded.Bytes)

	result := RunResult{
		Profile:         config.Profile,
		FrameSize:       encoded.Options.FrameSize,
		FinalSize:       encoded.FinalSize,
		Framerate:       encoded.Options.Framerate,
		Frames:          encoded.Frames,
		Packets:         encoded.Packets,
		Keyframes:       encoded.Keyframes,
		Bytes:           encoded.Bytes,
		Duration:        encoded.Duration,
		Elapsed:         encoded.Elapsed,
		ResizesApplied:  encoded.ResizesApplied,
		ResizesRejected: encoded.ResizesRejected,
	}

	if config.OutputPath != "" && encoded.Container != nil {
		if err := o.fs.WriteFile(config.OutputPath, encoded.Container); err != nil {
			o.logger.Error("Failed to write output: %s", err)
			return result, fmt.Errorf("write output: %w", err)
		}
		result.FileSize = int64(len(encoded.Container))
		o.logger.Info("Output saved to %s", config.OutputPath)
	}

	if config.SummaryPath != "" {
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(config.Version),
		), o.fs)
		if err := writer.Write(config.SummaryPath, result.Summary(config)); err != nil {
			o.logger.Warn("Failed to write summary: %v", err)
		} else {
			o.logger.Info("Summary saved to %s", config.SummaryPath)
		}
	}

	o.logger.Info("Pipeline completed successfully")
	return result, nil
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	Profile   ports.Profile
	FrameSize media.Size
	FinalSize media.Size
	Framerate float64

	Frames    int
	Packets   int
	Keyframes int
	Bytes     int64
	FileSize  int64

	Duration time.Duration
	Elapsed  time.Duration

	ResizesApplied  int
	ResizesRejected int
}

// Summary converts the result to a summarizer.Summary.
func (r RunResult) Summary(config Config) *summarizer.Summary {
	return summarizer.NewBuilder().
		WithSource(summarizer.SourceInfo{
			Kind:        config.SourceKind,
			Description: config.SourceDescription,
			Width:       r.FrameSize.Width,
			Height:      r.FrameSize.Height,
		}).
		WithSettings(summarizer.Settings{
			Profile:            r.Profile.String(),
			Width:              r.FrameSize.Width,
			Height:             r.FrameSize.Height,
			Bitrate:            config.Options.Bitrate,
			KeyframeInterval:   config.Options.KeyframeInterval,
			Framerate:          r.Framerate,
			ForceKeyframeEvery: config.ForceKeyframeEvery,
			Container:          config.Container,
		}).
		WithOutput(summarizer.OutputInfo{
			Path:            config.OutputPath,
			FrameCount:      r.Frames,
			PacketCount:     r.Packets,
			KeyframeCount:   r.Keyframes,
			Bytes:           r.Bytes,
			FileSize:        r.FileSize,
			DurationMs:      int(r.Duration / time.Millisecond),
			ElapsedMs:       int(r.Elapsed / time.Millisecond),
			FinalWidth:      r.FinalSize.Width,
			FinalHeight:     r.FinalSize.Height,
			ResizesApplied:  r.ResizesApplied,
			ResizesRejected: r.ResizesRejected,
		}).
		Build()
}
