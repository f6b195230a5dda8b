// Package encode implements the video encoding stage.
package encode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/pipeline"
	"github.com/user/vpxenc/pkg/ports"
)

// ErrNoFrames is returned when the source ends before producing a frame.
var ErrNoFrames = errors.New("encode: no frames to encode")

// Stage pulls frames from a source through a VideoEncoder into a muxer.
type Stage struct {
	encoder ports.VideoEncoder
	muxer   ports.Muxer
	sink    ports.DebugSink
	logger  ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(encoder ports.VideoEncoder, muxer ports.Muxer, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		encoder: encoder,
		muxer:   muxer,
		sink:    sink,
		logger:  logger.WithComponent("encode"),
	}
}

// Execute encodes every frame of input.Source. The encoder is closed before
// returning.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}
	start := time.Now()

	info, err := input.Source.Open(ctx)
	if err != nil {
		return result, fmt.Errorf("open source: %w", err)
	}
	defer input.Source.Close()

	opts := input.Options
	if opts.FrameSize.IsEmpty() {
		opts.FrameSize = info.FrameSize
	}
	if opts.Framerate == 0 {
		opts.Framerate = info.Framerate
	}
	result.Options = opts
	result.FinalSize = opts.FrameSize

	if err := s.muxer.Begin(ports.StreamInfo{
		Profile:   input.Profile,
		FrameSize: opts.FrameSize,
		Framerate: opts.Framerate,
	}); err != nil {
		return result, fmt.Errorf("begin muxer: %w", err)
	}

	// Muxer errors surface from inside the output callback, so keep the
	// first one and stop at the next frame boundary.
	var muxErr error
	output := func(out ports.EncodedOutput) {
		index := result.Packets
		result.Packets++
		result.Bytes += int64(len(out.Data))
		if out.Keyframe {
			result.Keyframes++
		}
		if out.Timestamp > result.Duration {
			result.Duration = out.Timestamp
		}
		if s.sink.Enabled() {
			if err := s.sink.SavePacket(index, out); err != nil {
				s.logger.Warn("Failed to save packet %d: %v", index, err)
			}
		}
		if muxErr == nil {
			muxErr = s.muxer.WritePacket(out)
		}
	}

	if err := s.encoder.Initialize(input.Profile, opts, output); err != nil {
		return result, fmt.Errorf("initialize encoder: %w", err)
	}
	defer s.encoder.Close()

	resizes := append([]pipeline.Resize(nil), input.Resizes...)
	sort.SliceStable(resizes, func(i, j int) bool { return resizes[i].AtFrame < resizes[j].AtFrame })
	current := opts

	for index := 0; input.MaxFrames <= 0 || index < input.MaxFrames; index++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		frame, err := input.Source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read frame %d: %w", index, err)
		}

		for len(resizes) > 0 && resizes[0].AtFrame <= index {
			current = s.applyResize(current, resizes[0], &result)
			resizes = resizes[1:]
		}

		if index == 0 && s.sink.Enabled() {
			s.saveFrame(index, frame)
		}

		keyframe := index == 0 || (input.ForceKeyframeEvery > 0 && index%input.ForceKeyframeEvery == 0)
		if err := s.encoder.Encode(frame, keyframe); err != nil {
			return result, fmt.Errorf("encode frame %d at %v: %w", index, frame.Timestamp, err)
		}
		if muxErr != nil {
			return result, fmt.Errorf("mux frame %d: %w", index, muxErr)
		}
		result.Frames++

		if result.Frames%100 == 0 {
			s.logger.Debug("Encoded %d frames", result.Frames)
		}
	}

	if result.Frames == 0 {
		return result, ErrNoFrames
	}

	if err := s.encoder.Flush(); err != nil {
		return result, fmt.Errorf("flush encoder: %w", err)
	}
	if muxErr != nil {
		return result, fmt.Errorf("mux flushed packets: %w", muxErr)
	}

	data, err := s.muxer.End()
	if err != nil {
		return result, fmt.Errorf("end muxer: %w", err)
	}

	result.Container = data
	result.FinalSize = current.FrameSize
	result.Elapsed = time.Since(start)
	return result, nil
}

// applyResize reconfigures the encoder. A rejected resize keeps the
// previous options and encoding continues.
func (s *Stage) applyResize(current ports.EncoderOptions, r pipeline.Resize, result *pipeline.EncodeResult) ports.EncoderOptions {
	next := current
	next.FrameSize = r.FrameSize
	if r.Bitrate > 0 {
		next.Bitrate = r.Bitrate
	}

	if err := s.encoder.ChangeOptions(next, nil); err != nil {
		result.ResizesRejected++
		s.logger.Warn("Resize to %s at frame %d rejected: %v", r.FrameSize, r.AtFrame, err)
		return current
	}
	result.ResizesApplied++
	s.logger.Info("Resized to %s at frame %d", r.FrameSize, r.AtFrame)
	return next
}

func (s *Stage) saveFrame(index int, frame *media.VideoFrame) {
	img, err := media.ToImage(frame)
	if err != nil {
		s.logger.Debug("Frame %d not saved: %v", index, err)
		return
	}
	if err := s.sink.SaveFrame(index, img); err != nil {
		s.logger.Warn("Failed to save frame %d: %v", index, err)
	}
}

var _ pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult] = (*Stage)(nil)
