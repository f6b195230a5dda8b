// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/user/vpxenc/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveConfigJSON saves the effective encoder configuration.
func (s *Sink) SaveConfigJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "config.json")
	return s.fs.WriteFile(path, data)
}

// SaveFrame saves a source frame as PNG.
func (s *Sink) SaveFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index))
	return s.fs.WriteFile(path, buf.Bytes())
}

// SavePacket saves one encoded output. Keyframes are marked in the name.
func (s *Sink) SavePacket(index int, out ports.EncodedOutput) error {
	dir := filepath.Join(s.baseDir, "packets")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	kind := "delta"
	if out.Keyframe {
		kind = "key"
	}
	path := filepath.Join(dir, fmt.Sprintf("packet-%04d-%s.bin", index, kind))
	return s.fs.WriteFile(path, out.Data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
