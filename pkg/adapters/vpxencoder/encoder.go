// Package vpxencoder implements ports.VideoEncoder on top of libvpx.
//
// The encoder talks to libvpx through ports.VpxLibrary so the
// configuration, frame preparation and output logic run without cgo in
// tests. Production code passes the binding from pkg/adapters/libvpx.
package vpxencoder

import (
	"time"

	"github.com/user/vpxenc/pkg/adapters/logger"
	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

const (
	// cpuUsed trades quality for speed; libvpx accepts -16..16 for VP8 and
	// -9..9 for VP9.
	cpuUsed = 5

	scratchFrames = 2
)

// Encoder implements ports.VideoEncoder for VP8 and VP9.
//
// It is not safe for concurrent use.
type Encoder struct {
	lib ports.VpxLibrary
	log ports.Logger

	codec   ports.VpxContext
	profile ports.Profile
	config  ports.VpxConfig
	options ports.EncoderOptions

	// originalSize is the size the codec context was created with. Later
	// reconfiguration may only shrink it.
	originalSize media.Size

	image  ports.VpxImage
	output ports.OutputCB
	pool   *media.FramePool

	lastTimestamp time.Duration
	closed        bool
}

// New creates an encoder using lib. A nil log discards messages.
func New(lib ports.VpxLibrary, log ports.Logger) *Encoder {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Encoder{
		lib:  lib,
		log:  log.WithComponent("vpx"),
		pool: media.NewFramePool(scratchFrames),
	}
}

// Initialize selects the codec for profile and creates the libvpx context.
func (e *Encoder) Initialize(profile ports.Profile, opts ports.EncoderOptions, output ports.OutputCB) error {
	if e.closed {
		return newStatus(CodeClosed, "Encoder is closed.")
	}
	if e.codec != nil {
		return newStatus(CodeInitializeTwice, "Encoder has already been initialized.")
	}

	iface, err := interfaceFor(profile)
	if err != nil {
		return err
	}

	cfg, err := e.lib.DefaultConfig(iface)
	if err != nil {
		return newStatus(CodeInitializationError, "Failed to get default VPX config.").withCause(err)
	}

	highBitDepth := false
	format := ports.ImageFormatI420
	switch profile {
	case ports.ProfileVP9Profile2:
		cfg.Profile = 2
		cfg.BitDepth = 10
		cfg.InputBitDepth = 10
		highBitDepth = true
		format = ports.ImageFormatI42016
	default:
		cfg.Profile = 0
		cfg.BitDepth = 8
		cfg.InputBitDepth = 8
	}

	if err := setUpVpxConfig(opts, &cfg); err != nil {
		return err
	}

	codec, err := e.lib.NewContext(iface, cfg, highBitDepth)
	if err != nil {
		return newStatus(CodeInitializationError, "VPX encoder initialization error.").withCause(err)
	}

	if err := codec.Control(ports.ControlCPUUsed, cpuUsed); err != nil {
		codec.Destroy()
		return newStatus(CodeInitializationError, "VPX encoder initialization error: setting cpu_used failed.").withCause(err)
	}

	if profile.IsVP9() {
		// Row multithreading needs tile columns to spread rows over threads.
		if err := codec.Control(ports.ControlTileColumns, log2TileColumns(cfg.Width)); err != nil {
			codec.Destroy()
			return newStatus(CodeInitializationError, "VPX encoder initialization error: setting tile columns failed.").withCause(err)
		}
		if err := codec.Control(ports.ControlRowMT, 1); err != nil {
			codec.Destroy()
			return newStatus(CodeInitializationError, "VPX encoder initialization error: setting row-mt failed.").withCause(err)
		}
	}

	e.codec = codec
	e.profile = profile
	e.config = cfg
	e.options = opts
	e.output = output
	e.originalSize = media.Size{Width: int(cfg.Width), Height: int(cfg.Height)}
	reallocateImageIfNeeded(&e.image, format, int(cfg.Width), int(cfg.Height))

	e.log.Debug("Initialized %s encoder: %dx%d, %d threads, %d kbps",
		profile, cfg.Width, cfg.Height, cfg.Threads, cfg.TargetBitrate)
	return nil
}

func interfaceFor(profile ports.Profile) (ports.VpxInterface, error) {
	switch profile {
	case ports.ProfileVP8:
		return ports.VpxInterfaceVP8, nil
	case ports.ProfileVP9Profile0, ports.ProfileVP9Profile2:
		return ports.VpxInterfaceVP9, nil
	case ports.ProfileVP9Profile1, ports.ProfileVP9Profile3:
		// 4:2:2 and 4:4:4 input is not supported.
		return 0, newStatus(CodeUnsupportedProfile, "Unsupported VP9 profile %s.", profile)
	}
	return 0, newStatus(CodeUnsupportedProfile, "Unsupported profile %s.", profile)
}

// Encode compresses frame and delivers every packet libvpx produced before
// returning.
func (e *Encoder) Encode(frame *media.VideoFrame, keyframe bool) error {
	if e.closed {
		return newStatus(CodeClosed, "Encoder is closed.")
	}
	if e.codec == nil {
		return newStatus(CodeInitializeNeverCompleted, "Encoder initialization has not completed.")
	}
	if frame == nil {
		return newStatus(CodeFailedEncode, "No frame provided for encoding.")
	}
	if !supportedFormat(frame.Format) || !(frame.IsMappable() || frame.HasGpuMemoryBuffer()) {
		return newStatus(CodeFailedEncode, "Unexpected frame format.")
	}

	// NV12 frames with a GPU buffer are always read through the mapping.
	if frame.HasGpuMemoryBuffer() && (frame.Format == media.PixelFormatNV12 || !frame.IsMappable()) {
		mapped, err := media.ConvertToMemoryMappedFrame(frame)
		if err != nil {
			return newStatus(CodeFailedEncode, "Failed to map GPU memory buffer.").withCause(err)
		}
		frame = mapped
	}
	if err := frame.Validate(); err != nil {
		return newStatus(CodeFailedEncode, "Invalid frame.").withCause(err)
	}

	var scratch []*media.VideoFrame
	defer func() {
		for _, f := range scratch {
			e.pool.Release(f)
		}
	}()

	size := media.Size{Width: int(e.config.Width), Height: int(e.config.Height)}
	if frame.VisibleSize() != size || (frame.Format != media.PixelFormatI420 && frame.Format != media.PixelFormatNV12) {
		format := media.PixelFormatI420
		if frame.Format == media.PixelFormatNV12 {
			format = media.PixelFormatNV12
		}
		converted, err := e.convertFrame(frame, format, size)
		if err != nil {
			return newStatus(CodeFailedEncode, "Failed to resize or convert frame.").withCause(err)
		}
		scratch = append(scratch, converted)
		frame = converted
	}

	if e.profile == ports.ProfileVP9Profile2 {
		if frame.Format != media.PixelFormatI420 {
			converted, err := e.convertFrame(frame, media.PixelFormatI420, size)
			if err != nil {
				return newStatus(CodeFailedEncode, "Failed to convert frame to I420.").withCause(err)
			}
			scratch = append(scratch, converted)
			frame = converted
		}
		reallocateImageIfNeeded(&e.image, ports.ImageFormatI42016, size.Width, size.Height)
		if err := media.ConvertI420ToI010(frame, e.image.Planes, e.image.Strides); err != nil {
			return newStatus(CodeFailedEncode, "Failed to convert frame to I010.").withCause(err)
		}
	} else {
		reallocateImageIfNeeded(&e.image, imageFormatFor(e.profile, frame.Format), size.Width, size.Height)
		wrapFramePlanes(&e.image, frame)
		defer func() { e.image.Planes = [3][]byte{} }()
	}

	duration := frameDuration(frame, e.options.Framerate, e.lastTimestamp)
	// Frames the codec rejects still advance the duration baseline.
	e.lastTimestamp = frame.Timestamp

	var flags ports.EncodeFlags
	if keyframe {
		flags |= ports.EncodeFlagForceKeyframe
	}

	err := e.codec.Encode(&e.image, frame.Timestamp.Microseconds(), uint64(duration.Microseconds()), flags, ports.DeadlineRealtime)
	if err != nil {
		e.log.Warn("VPX encoding error: %v", err)
		return newStatus(CodeFailedEncode, "VPX encoding error.").withCause(err)
	}

	e.drainOutputs()
	return nil
}

func supportedFormat(f media.PixelFormat) bool {
	switch f {
	case media.PixelFormatNV12, media.PixelFormatI420,
		media.PixelFormatXBGR, media.PixelFormatXRGB,
		media.PixelFormatABGR, media.PixelFormatARGB:
		return true
	}
	return false
}

// convertFrame scales and converts src into a pooled frame.
func (e *Encoder) convertFrame(src *media.VideoFrame, format media.PixelFormat, size media.Size) (*media.VideoFrame, error) {
	dst, err := e.pool.CreateFrame(format, size, src.Timestamp)
	if err != nil {
		return nil, err
	}
	if err := media.ConvertAndScaleFrame(src, dst); err != nil {
		e.pool.Release(dst)
		return nil, err
	}
	dst.Metadata = src.Metadata
	return dst, nil
}

// ChangeOptions reconfigures the live codec context. On failure the
// previous configuration stays in effect.
func (e *Encoder) ChangeOptions(opts ports.EncoderOptions, output ports.OutputCB) error {
	if e.closed {
		return newStatus(CodeClosed, "Encoder is closed.")
	}
	if e.codec == nil {
		return newStatus(CodeInitializeNeverCompleted, "Encoder initialization has not completed.")
	}

	if e.profile == ports.ProfileVP8 {
		originalArea, _ := e.originalSize.CheckedArea()
		area, ok := opts.FrameSize.CheckedArea()
		if !ok || area > originalArea {
			return newStatus(CodeUnsupportedConfig, "libvpx/VP8 doesn't support dynamically increasing frame area.")
		}
	} else if opts.FrameSize.Width > e.originalSize.Width || opts.FrameSize.Height > e.originalSize.Height {
		return newStatus(CodeUnsupportedConfig, "libvpx/VP9 doesn't support dynamically increasing frame dimensions.")
	}

	cfg := e.config
	if err := setUpVpxConfig(opts, &cfg); err != nil {
		return err
	}

	if err := e.codec.SetConfig(cfg); err != nil {
		return newStatus(CodeUnsupportedConfig, "Failed to set new VPX config.").withCause(err)
	}

	e.config = cfg
	e.options = opts
	if output != nil {
		e.output = output
	}
	reallocateImageIfNeeded(&e.image, e.image.Format, int(cfg.Width), int(cfg.Height))

	e.log.Debug("Reconfigured encoder: %dx%d, %d kbps", cfg.Width, cfg.Height, cfg.TargetBitrate)
	return nil
}

// Flush signals end of stream and delivers every buffered packet.
func (e *Encoder) Flush() error {
	if e.closed {
		return newStatus(CodeClosed, "Encoder is closed.")
	}
	if e.codec == nil {
		return newStatus(CodeInitializeNeverCompleted, "Encoder initialization has not completed.")
	}

	if err := e.codec.Flush(); err != nil {
		return newStatus(CodeFailedEncode, "VPX flushing error.").withCause(err)
	}
	e.drainOutputs()
	return nil
}

// Close destroys the codec context. It is safe to call more than once.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if e.codec != nil {
		if err := e.codec.Destroy(); err != nil {
			e.log.Warn("Failed to destroy VPX encoder: %v", err)
		}
		e.codec = nil
	}
	e.image = ports.VpxImage{}
	e.output = nil
	return nil
}

// Config returns the active libvpx configuration.
func (e *Encoder) Config() ports.VpxConfig {
	return e.config
}

func (e *Encoder) drainOutputs() {
	for _, pkt := range e.codec.Packets() {
		if pkt.Kind != ports.PacketKindFrame {
			continue
		}
		if e.output == nil {
			continue
		}
		e.output(ports.EncodedOutput{
			Data:      pkt.Data,
			Timestamp: time.Duration(pkt.PTS) * time.Microsecond,
			Keyframe:  pkt.Keyframe,
		})
	}
}

var _ ports.VideoEncoder = (*Encoder)(nil)
