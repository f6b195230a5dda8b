// Package nullsink provides the debug sink used when --debug is off.
package nullsink

import (
	"image"

	"github.com/user/vpxenc/pkg/ports"
)

// Sink reports itself disabled and drops everything.
type Sink struct{}

func New() *Sink { return &Sink{} }

func (*Sink) Enabled() bool                             { return false }
func (*Sink) SaveConfigJSON([]byte) error               { return nil }
func (*Sink) SaveFrame(int, image.Image) error          { return nil }
func (*Sink) SavePacket(int, ports.EncodedOutput) error { return nil }

var _ ports.DebugSink = (*Sink)(nil)
