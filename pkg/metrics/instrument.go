package metrics

import (
	"time"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

// InstrumentedEncoder counts frames, outputs and failures of a wrapped
// encoder.
type InstrumentedEncoder struct {
	inner ports.VideoEncoder
	m     *Metrics
}

// Instrument wraps enc so every call is recorded in m.
func Instrument(enc ports.VideoEncoder, m *Metrics) *InstrumentedEncoder {
	return &InstrumentedEncoder{inner: enc, m: m}
}

func (e *InstrumentedEncoder) wrap(output ports.OutputCB) ports.OutputCB {
	if output == nil {
		return nil
	}
	return func(out ports.EncodedOutput) {
		e.m.Packets.Add(1)
		e.m.Bytes.Add(uint64(len(out.Data)))
		if out.Keyframe {
			e.m.Keyframes.Add(1)
		}
		output(out)
	}
}

func (e *InstrumentedEncoder) setSize(size media.Size) {
	e.m.Width.Store(uint64(size.Width))
	e.m.Height.Store(uint64(size.Height))
}

func (e *InstrumentedEncoder) Initialize(profile ports.Profile, opts ports.EncoderOptions, output ports.OutputCB) error {
	if err := e.inner.Initialize(profile, opts, e.wrap(output)); err != nil {
		e.m.EncodeErrors.Add(1)
		return err
	}
	e.setSize(opts.FrameSize)
	return nil
}

func (e *InstrumentedEncoder) Encode(frame *media.VideoFrame, keyframe bool) error {
	start := time.Now()
	err := e.inner.Encode(frame, keyframe)
	e.m.ObserveEncode(time.Since(start))
	if err != nil {
		e.m.EncodeErrors.Add(1)
		return err
	}
	e.m.FramesEncoded.Add(1)
	return nil
}

func (e *InstrumentedEncoder) ChangeOptions(opts ports.EncoderOptions, output ports.OutputCB) error {
	if err := e.inner.ChangeOptions(opts, e.wrap(output)); err != nil {
		e.m.EncodeErrors.Add(1)
		return err
	}
	e.m.Reconfigures.Add(1)
	e.setSize(opts.FrameSize)
	return nil
}

func (e *InstrumentedEncoder) Flush() error {
	if err := e.inner.Flush(); err != nil {
		e.m.EncodeErrors.Add(1)
		return err
	}
	return nil
}

func (e *InstrumentedEncoder) Close() error {
	return e.inner.Close()
}

var _ ports.VideoEncoder = (*InstrumentedEncoder)(nil)
