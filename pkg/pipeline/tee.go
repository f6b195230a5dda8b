package pipeline

import (
	"errors"

	"github.com/user/vpxenc/pkg/ports"
)

// TeeMuxer forwards every packet to several muxers.
type TeeMuxer struct {
	muxers []ports.Muxer
}

// Tee returns a muxer writing to all of muxers. End returns the first
// non-nil container.
func Tee(muxers ...ports.Muxer) *TeeMuxer {
	return &TeeMuxer{muxers: muxers}
}

// Begin implements ports.Muxer.
func (t *TeeMuxer) Begin(info ports.StreamInfo) error {
	for _, m := range t.muxers {
		if err := m.Begin(info); err != nil {
			return err
		}
	}
	return nil
}

// WritePacket implements ports.Muxer.
func (t *TeeMuxer) WritePacket(out ports.EncodedOutput) error {
	for _, m := range t.muxers {
		if err := m.WritePacket(out); err != nil {
			return err
		}
	}
	return nil
}

// End implements ports.Muxer. Every muxer is ended even if one fails.
func (t *TeeMuxer) End() ([]byte, error) {
	var container []byte
	var errs []error
	for _, m := range t.muxers {
		data, err := m.End()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if container == nil {
			container = data
		}
	}
	return container, errors.Join(errs...)
}

var _ ports.Muxer = (*TeeMuxer)(nil)
