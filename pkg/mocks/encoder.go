package mocks

import (
	"fmt"
	"time"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder. Every
// encoded frame produces one output carrying "frame-N".
type VideoEncoder struct {
	InitializeFunc    func(profile ports.Profile, opts ports.EncoderOptions, output ports.OutputCB) error
	EncodeFunc        func(frame *media.VideoFrame, keyframe bool) error
	ChangeOptionsFunc func(opts ports.EncoderOptions, output ports.OutputCB) error
	FlushFunc         func() error

	// Recorded calls for verification
	Profile            ports.Profile
	Options            ports.EncoderOptions
	EncodeCalls        []EncodeCall
	ChangeOptionsCalls []ports.EncoderOptions
	FlushCalled        bool
	CloseCalled        bool

	output ports.OutputCB
}

// EncodeCall records a call to Encode.
type EncodeCall struct {
	Timestamp time.Duration
	Size      media.Size
	Keyframe  bool
}

func (m *VideoEncoder) Initialize(profile ports.Profile, opts ports.EncoderOptions, output ports.OutputCB) error {
	if m.InitializeFunc != nil {
		if err := m.InitializeFunc(profile, opts, output); err != nil {
			return err
		}
	}
	m.Profile = profile
	m.Options = opts
	m.output = output
	return nil
}

func (m *VideoEncoder) Encode(frame *media.VideoFrame, keyframe bool) error {
	if m.EncodeFunc != nil {
		if err := m.EncodeFunc(frame, keyframe); err != nil {
			return err
		}
	}
	n := len(m.EncodeCalls)
	m.EncodeCalls = append(m.EncodeCalls, EncodeCall{
		Timestamp: frame.Timestamp,
		Size:      frame.VisibleSize(),
		Keyframe:  keyframe,
	})
	if m.output != nil {
		m.output(ports.EncodedOutput{
			Data:      []byte(fmt.Sprintf("frame-%d", n)),
			Timestamp: frame.Timestamp,
			Keyframe:  keyframe || n == 0,
		})
	}
	return nil
}

func (m *VideoEncoder) ChangeOptions(opts ports.EncoderOptions, output ports.OutputCB) error {
	if m.ChangeOptionsFunc != nil {
		if err := m.ChangeOptionsFunc(opts, output); err != nil {
			return err
		}
	}
	m.ChangeOptionsCalls = append(m.ChangeOptionsCalls, opts)
	m.Options = opts
	if output != nil {
		m.output = output
	}
	return nil
}

func (m *VideoEncoder) Flush() error {
	m.FlushCalled = true
	if m.FlushFunc != nil {
		return m.FlushFunc()
	}
	return nil
}

func (m *VideoEncoder) Close() error {
	m.CloseCalled = true
	return nil
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)
