package ports

import "fmt"

// VpxInterface selects the libvpx encoder interface.
type VpxInterface int

const (
	VpxInterfaceVP8 VpxInterface = iota
	VpxInterfaceVP9
)

func (i VpxInterface) String() string {
	if i == VpxInterfaceVP9 {
		return "vp9"
	}
	return "vp8"
}

// RateControlMode mirrors vpx_rc_mode.
type RateControlMode int

const (
	RateControlVBR RateControlMode = iota
	RateControlCBR
	RateControlCQ
	RateControlQ
)

// KeyframeMode mirrors vpx_kf_mode.
type KeyframeMode int

const (
	KeyframeModeFixed KeyframeMode = iota
	KeyframeModeAuto
)

// VpxConfig is the subset of vpx_codec_enc_cfg_t the encoder manages.
type VpxConfig struct {
	Profile         uint
	Width           uint
	Height          uint
	TimebaseNum     int
	TimebaseDen     int
	Threads         uint
	OnePass         bool
	LagInFrames     uint
	ResizeAllowed   bool
	DropframeThresh uint
	EndUsage        RateControlMode
	TargetBitrate   uint // kbps
	KeyframeMode    KeyframeMode
	KeyframeMinDist uint
	KeyframeMaxDist uint
	BitDepth        uint
	InputBitDepth   uint
}

// ImageFormat mirrors the vpx_img_fmt values the encoder uses.
type ImageFormat int

const (
	ImageFormatNone ImageFormat = iota
	ImageFormatI420
	ImageFormatNV12
	// ImageFormatI42016 is I420 with 16-bit sample storage.
	ImageFormatI42016
)

func (f ImageFormat) String() string {
	switch f {
	case ImageFormatI420:
		return "I420"
	case ImageFormatNV12:
		return "NV12"
	case ImageFormatI42016:
		return "I42016"
	}
	return "NONE"
}

// HighBitDepth reports whether samples are stored in 16 bits.
func (f ImageFormat) HighBitDepth() bool {
	return f == ImageFormatI42016
}

// VpxImage describes the pixels handed to the encoder. For NV12 the V
// plane aliases the UV plane shifted by one byte and shares its stride.
type VpxImage struct {
	Format   ImageFormat
	Width    int
	Height   int
	BitDepth int
	Planes   [3][]byte
	Strides  [3]int
}

// EncodeFlags mirrors vpx_enc_frame_flags_t.
type EncodeFlags uint

const (
	EncodeFlagForceKeyframe EncodeFlags = 1
)

// Deadline mirrors the libvpx encode deadline in microseconds.
type Deadline uint

const (
	DeadlineBestQuality Deadline = 0
	DeadlineRealtime    Deadline = 1
	DeadlineGoodQuality Deadline = 1000000
)

// VpxControl names the codec controls the encoder sets.
type VpxControl int

const (
	ControlCPUUsed VpxControl = iota
	ControlTileColumns
	ControlRowMT
)

func (c VpxControl) String() string {
	switch c {
	case ControlCPUUsed:
		return "VP8E_SET_CPUUSED"
	case ControlTileColumns:
		return "VP9E_SET_TILE_COLUMNS"
	case ControlRowMT:
		return "VP9E_SET_ROW_MT"
	}
	return fmt.Sprintf("control(%d)", int(c))
}

// PacketKind mirrors vpx_codec_cx_pkt_kind.
type PacketKind int

const (
	PacketKindFrame PacketKind = iota
	PacketKindStats
	PacketKindOther
)

// VpxPacket is one packet drained from the encoder.
type VpxPacket struct {
	Kind     PacketKind
	Data     []byte
	PTS      int64
	Duration uint64
	Keyframe bool
}

// VpxLibrary abstracts the libvpx encoder entry points.
type VpxLibrary interface {
	// DefaultConfig returns the library default configuration.
	DefaultConfig(iface VpxInterface) (VpxConfig, error)

	// NewContext initializes an encoder instance.
	NewContext(iface VpxInterface, cfg VpxConfig, highBitDepth bool) (VpxContext, error)
}

// VpxContext is an initialized libvpx encoder instance.
type VpxContext interface {
	Control(ctrl VpxControl, value int) error
	SetConfig(cfg VpxConfig) error
	Encode(img *VpxImage, pts int64, duration uint64, flags EncodeFlags, deadline Deadline) error
	// Flush signals end of stream.
	Flush() error
	// Packets drains every packet produced since the last call.
	Packets() []VpxPacket
	Destroy() error
}

// VpxError is a native libvpx failure.
type VpxError struct {
	Code    int
	Message string
	Detail  string
}

func (e *VpxError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Detail)
	}
	return e.Message
}
