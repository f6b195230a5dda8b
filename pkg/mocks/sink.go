package mocks

import (
	"image"
	"sync"

	"github.com/user/vpxenc/pkg/ports"
)

// DebugSink records everything saved to it. When Err is set every save
// fails with it after recording.
type DebugSink struct {
	mu      sync.Mutex
	enabled bool

	Err error

	ConfigJSON []byte
	Frames     map[int]image.Image
	Packets    map[int]ports.EncodedOutput
}

func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled: enabled,
		Frames:  make(map[int]image.Image),
		Packets: make(map[int]ports.EncodedOutput),
	}
}

func (m *DebugSink) Enabled() bool { return m.enabled }

func (m *DebugSink) SaveConfigJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConfigJSON = data
	return m.Err
}

func (m *DebugSink) SaveFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[index] = img
	return m.Err
}

func (m *DebugSink) SavePacket(index int, out ports.EncodedOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Packets[index] = out
	return m.Err
}

var _ ports.DebugSink = (*DebugSink)(nil)
