// Package media provides raw video frames, pixel formats and the
// scaling/conversion routines the encoders need.
package media

import (
	"fmt"
	"math"
	"strings"
)

// PixelFormat identifies the memory layout of a raw video frame.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	// PixelFormatI420 is 8-bit planar YUV 4:2:0 (Y, U, V planes).
	PixelFormatI420
	// PixelFormatNV12 is 8-bit YUV 4:2:0 with an interleaved UV plane.
	PixelFormatNV12
	// PixelFormatI010 is planar YUV 4:2:0 with 10-bit samples stored in
	// little-endian 16-bit words.
	PixelFormatI010
	// PixelFormatXRGB is packed 32-bit B, G, R, X in memory.
	PixelFormatXRGB
	// PixelFormatARGB is packed 32-bit B, G, R, A in memory.
	PixelFormatARGB
	// PixelFormatXBGR is packed 32-bit R, G, B, X in memory.
	PixelFormatXBGR
	// PixelFormatABGR is packed 32-bit R, G, B, A in memory.
	PixelFormatABGR
)

var pixelFormatNames = map[PixelFormat]string{
	PixelFormatI420: "i420",
	PixelFormatNV12: "nv12",
	PixelFormatI010: "i010",
	PixelFormatXRGB: "xrgb",
	PixelFormatARGB: "argb",
	PixelFormatXBGR: "xbgr",
	PixelFormatABGR: "abgr",
}

// String returns the lower-case name of the format.
func (f PixelFormat) String() string {
	if name, ok := pixelFormatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParsePixelFormat parses a format name such as "i420" or "nv12".
func ParsePixelFormat(s string) (PixelFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range pixelFormatNames {
		if name == s {
			return f, nil
		}
	}
	return PixelFormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// IsYUVPlanar reports whether the format stores luma and chroma in
// separate planes.
func (f PixelFormat) IsYUVPlanar() bool {
	switch f {
	case PixelFormatI420, PixelFormatNV12, PixelFormatI010:
		return true
	}
	return false
}

// IsRGB reports whether the format is one of the packed 32-bit RGB layouts.
func (f PixelFormat) IsRGB() bool {
	switch f {
	case PixelFormatXRGB, PixelFormatARGB, PixelFormatXBGR, PixelFormatABGR:
		return true
	}
	return false
}

// NumPlanes returns the number of memory planes of the format.
func (f PixelFormat) NumPlanes() int {
	switch f {
	case PixelFormatI420, PixelFormatI010:
		return 3
	case PixelFormatNV12:
		return 2
	case PixelFormatXRGB, PixelFormatARGB, PixelFormatXBGR, PixelFormatABGR:
		return 1
	}
	return 0
}

// BytesPerSample returns the storage size of a single sample.
func (f PixelFormat) BytesPerSample() int {
	switch {
	case f == PixelFormatI010:
		return 2
	case f.IsRGB():
		return 4
	}
	return 1
}

// PlaneRowBytes returns the number of meaningful bytes in one row of the
// given plane for a frame of the given width.
func (f PixelFormat) PlaneRowBytes(plane, width int) int {
	if plane == 0 {
		return width * f.BytesPerSample()
	}
	chroma := (width + 1) / 2
	if f == PixelFormatNV12 {
		return chroma * 2
	}
	return chroma * f.BytesPerSample()
}

// PlaneRows returns the number of rows of the given plane for a frame of
// the given height.
func (f PixelFormat) PlaneRows(plane, height int) int {
	if plane == 0 {
		return height
	}
	return (height + 1) / 2
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// IsEmpty reports whether either dimension is non-positive.
func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// CheckedArea returns the area and whether it fits in a signed 32-bit
// integer. Negative dimensions never produce a valid area.
func (s Size) CheckedArea() (int, bool) {
	if s.Width < 0 || s.Height < 0 {
		return 0, false
	}
	area := int64(s.Width) * int64(s.Height)
	if s.Width != 0 && area/int64(s.Width) != int64(s.Height) {
		return 0, false
	}
	if area > math.MaxInt32 {
		return 0, false
	}
	return int(area), true
}

// String returns "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ParseSize parses "WxH".
func ParseSize(s string) (Size, error) {
	var size Size
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &size.Width, &size.Height); err != nil {
		return Size{}, fmt.Errorf("parse size %q: %w", s, err)
	}
	if size.IsEmpty() {
		return Size{}, fmt.Errorf("%w: %s", ErrInvalidSize, size)
	}
	return size, nil
}
