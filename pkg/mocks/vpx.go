package mocks

import (
	"fmt"

	"github.com/user/vpxenc/pkg/ports"
)

// VpxLibrary is a fake ports.VpxLibrary that records every context it
// creates. Contexts produce one frame packet per encoded image.
type VpxLibrary struct {
	DefaultConfigFunc func(iface ports.VpxInterface) (ports.VpxConfig, error)
	NewContextFunc    func(iface ports.VpxInterface, cfg ports.VpxConfig, highBitDepth bool) (ports.VpxContext, error)

	// Errors injected into contexts created after they are set.
	ControlErr   error
	SetConfigErr error
	EncodeErr    error
	FlushErr     error

	// Recorded calls for verification
	Contexts []*VpxContext
}

// DefaultVpxConfig mirrors the libvpx defaults that matter to the encoder.
func DefaultVpxConfig() ports.VpxConfig {
	return ports.VpxConfig{
		Width:           320,
		Height:          240,
		TimebaseNum:     1,
		TimebaseDen:     30,
		LagInFrames:     25,
		EndUsage:        ports.RateControlVBR,
		TargetBitrate:   256,
		KeyframeMode:    ports.KeyframeModeAuto,
		KeyframeMaxDist: 128,
		BitDepth:        8,
		InputBitDepth:   8,
	}
}

func (m *VpxLibrary) DefaultConfig(iface ports.VpxInterface) (ports.VpxConfig, error) {
	if m.DefaultConfigFunc != nil {
		return m.DefaultConfigFunc(iface)
	}
	return DefaultVpxConfig(), nil
}

func (m *VpxLibrary) NewContext(iface ports.VpxInterface, cfg ports.VpxConfig, highBitDepth bool) (ports.VpxContext, error) {
	if m.NewContextFunc != nil {
		return m.NewContextFunc(iface, cfg, highBitDepth)
	}
	ctx := &VpxContext{
		Interface:    iface,
		Config:       cfg,
		HighBitDepth: highBitDepth,
		Controls:     map[ports.VpxControl]int{},
		ControlErr:   m.ControlErr,
		SetConfigErr: m.SetConfigErr,
		EncodeErr:    m.EncodeErr,
		FlushErr:     m.FlushErr,
	}
	m.Contexts = append(m.Contexts, ctx)
	return ctx, nil
}

// Last returns the most recently created context, or nil.
func (m *VpxLibrary) Last() *VpxContext {
	if len(m.Contexts) == 0 {
		return nil
	}
	return m.Contexts[len(m.Contexts)-1]
}

// VpxContext is a fake ports.VpxContext.
//
// While Config.LagInFrames is non-zero, packets are held back until Flush.
type VpxContext struct {
	Interface    ports.VpxInterface
	Config       ports.VpxConfig
	HighBitDepth bool
	Controls     map[ports.VpxControl]int

	ControlErr   error
	SetConfigErr error
	EncodeErr    error
	FlushErr     error

	// ExtraPackets are returned, and cleared, by the next Packets call.
	ExtraPackets []ports.VpxPacket

	// Recorded calls for verification
	EncodeCalls    []VpxEncodeCall
	SetConfigCalls []ports.VpxConfig
	FlushCalls     int
	Destroyed      bool

	pending []ports.VpxPacket
	ready   []ports.VpxPacket
}

// VpxEncodeCall records a call to Encode. Image holds copies of the
// planes as they were at call time.
type VpxEncodeCall struct {
	Image    ports.VpxImage
	PTS      int64
	Duration uint64
	Flags    ports.EncodeFlags
	Deadline ports.Deadline
}

func (m *VpxContext) Control(ctrl ports.VpxControl, value int) error {
	if m.ControlErr != nil {
		return m.ControlErr
	}
	m.Controls[ctrl] = value
	return nil
}

func (m *VpxContext) SetConfig(cfg ports.VpxConfig) error {
	m.SetConfigCalls = append(m.SetConfigCalls, cfg)
	if m.SetConfigErr != nil {
		return m.SetConfigErr
	}
	m.Config = cfg
	return nil
}

func (m *VpxContext) Encode(img *ports.VpxImage, pts int64, duration uint64, flags ports.EncodeFlags, deadline ports.Deadline) error {
	if m.Destroyed {
		return &ports.VpxError{Code: 1, Message: "Unspecified internal error", Detail: "context destroyed"}
	}
	if m.EncodeErr != nil {
		return m.EncodeErr
	}
	if img == nil {
		return &ports.VpxError{Code: 8, Message: "Invalid parameter", Detail: "nil image"}
	}
	if uint(img.Width) != m.Config.Width || uint(img.Height) != m.Config.Height {
		return &ports.VpxError{
			Code:    8,
			Message: "Invalid parameter",
			Detail:  fmt.Sprintf("image %dx%d does not match config %dx%d", img.Width, img.Height, m.Config.Width, m.Config.Height),
		}
	}

	call := VpxEncodeCall{Image: *img, PTS: pts, Duration: duration, Flags: flags, Deadline: deadline}
	for i, p := range img.Planes {
		call.Image.Planes[i] = append([]byte(nil), p...)
	}
	m.EncodeCalls = append(m.EncodeCalls, call)

	n := len(m.EncodeCalls)
	pkt := ports.VpxPacket{
		Kind:     ports.PacketKindFrame,
		Data:     []byte(fmt.Sprintf("frame-%d", n)),
		PTS:      pts,
		Duration: duration,
		Keyframe: n == 1 || flags&ports.EncodeFlagForceKeyframe != 0,
	}
	if m.Config.LagInFrames > 0 {
		m.pending = append(m.pending, pkt)
		return nil
	}
	m.ready = append(m.ready, pkt)
	return nil
}

func (m *VpxContext) Flush() error {
	m.FlushCalls++
	if m.FlushErr != nil {
		return m.FlushErr
	}
	m.ready = append(m.ready, m.pending...)
	m.pending = nil
	return nil
}

func (m *VpxContext) Packets() []ports.VpxPacket {
	pkts := append(m.ExtraPackets, m.ready...)
	m.ExtraPackets = nil
	m.ready = nil
	return pkts
}

func (m *VpxContext) Destroy() error {
	m.Destroyed = true
	return nil
}

var (
	_ ports.VpxLibrary = (*VpxLibrary)(nil)
	_ ports.VpxContext = (*VpxContext)(nil)
)
