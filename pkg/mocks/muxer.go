package mocks

import (
	"github.com/user/vpxenc/pkg/ports"
)

// Muxer is a mock implementation of ports.Muxer.
type Muxer struct {
	BeginFunc       func(info ports.StreamInfo) error
	WritePacketFunc func(out ports.EncodedOutput) error
	EndFunc         func() ([]byte, error)

	// Recorded calls for verification
	Info    ports.StreamInfo
	Packets []ports.EncodedOutput
	Began   bool
	Ended   bool
}

func (m *Muxer) Begin(info ports.StreamInfo) error {
	if m.BeginFunc != nil {
		if err := m.BeginFunc(info); err != nil {
			return err
		}
	}
	m.Began = true
	m.Info = info
	return nil
}

func (m *Muxer) WritePacket(out ports.EncodedOutput) error {
	if m.WritePacketFunc != nil {
		if err := m.WritePacketFunc(out); err != nil {
			return err
		}
	}
	m.Packets = append(m.Packets, out)
	return nil
}

// End returns the concatenated packet data unless EndFunc is set.
func (m *Muxer) End() ([]byte, error) {
	m.Ended = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	var data []byte
	for _, p := range m.Packets {
		data = append(data, p.Data...)
	}
	return data, nil
}

var _ ports.Muxer = (*Muxer)(nil)
