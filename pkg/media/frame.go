package media

import (
	"fmt"
	"image"
	"time"
)

// GpuMemoryBuffer is a frame backing store that is not directly CPU
// accessible and must be mapped before its pixels can be read.
type GpuMemoryBuffer interface {
	// Map returns a CPU-accessible copy or view of the buffer contents.
	Map() (*VideoFrame, error)
}

// Metadata carries optional per-frame information.
type Metadata struct {
	// FrameDuration is the declared display duration, if known.
	FrameDuration *time.Duration
}

// VideoFrame is a raw video frame.
//
// Planes and Strides describe the coded area. VisibleRect selects the part
// of the coded area that holds the picture.
type VideoFrame struct {
	Format      PixelFormat
	CodedSize   Size
	VisibleRect image.Rectangle
	Planes      [][]byte
	Strides     []int
	Timestamp   time.Duration
	Metadata    Metadata

	// GpuBuffer is set for frames whose pixels live outside CPU memory.
	GpuBuffer GpuMemoryBuffer
}

// NewFrame allocates a frame with tightly packed planes.
func NewFrame(format PixelFormat, size Size, timestamp time.Duration) (*VideoFrame, error) {
	if format.NumPlanes() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if _, ok := size.CheckedArea(); !ok || size.IsEmpty() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSize, size)
	}

	f := &VideoFrame{
		Format:      format,
		CodedSize:   size,
		VisibleRect: image.Rect(0, 0, size.Width, size.Height),
		Planes:      make([][]byte, format.NumPlanes()),
		Strides:     make([]int, format.NumPlanes()),
		Timestamp:   timestamp,
	}
	for p := range f.Planes {
		stride := format.PlaneRowBytes(p, size.Width)
		f.Strides[p] = stride
		f.Planes[p] = make([]byte, stride*format.PlaneRows(p, size.Height))
	}
	return f, nil
}

// WithFrameDuration sets the duration metadata and returns the frame.
func (f *VideoFrame) WithFrameDuration(d time.Duration) *VideoFrame {
	f.Metadata.FrameDuration = &d
	return f
}

// IsMappable reports whether the frame's planes are CPU accessible.
func (f *VideoFrame) IsMappable() bool {
	return f.Format.NumPlanes() > 0 && len(f.Planes) == f.Format.NumPlanes()
}

// HasGpuMemoryBuffer reports whether the frame is backed by a GPU buffer.
func (f *VideoFrame) HasGpuMemoryBuffer() bool {
	return f.GpuBuffer != nil
}

// VisibleSize returns the size of the visible rectangle.
func (f *VideoFrame) VisibleSize() Size {
	return Size{Width: f.VisibleRect.Dx(), Height: f.VisibleRect.Dy()}
}

// VisibleData returns the given plane starting at the visible origin.
func (f *VideoFrame) VisibleData(plane int) []byte {
	if plane >= len(f.Planes) {
		return nil
	}
	x, y := f.VisibleRect.Min.X, f.VisibleRect.Min.Y
	if plane > 0 {
		x, y = x/2, y/2
	}
	bpe := f.Format.BytesPerSample()
	if f.Format == PixelFormatNV12 && plane == 1 {
		bpe = 2
	}
	offset := y*f.Strides[plane] + x*bpe
	if offset > len(f.Planes[plane]) {
		return nil
	}
	return f.Planes[plane][offset:]
}

// Validate checks that every plane is large enough for the visible area.
func (f *VideoFrame) Validate() error {
	if !f.IsMappable() {
		return ErrNotMappable
	}
	size := f.VisibleSize()
	if size.IsEmpty() {
		return fmt.Errorf("%w: visible %s", ErrInvalidSize, size)
	}
	for p := range f.Planes {
		rows := f.Format.PlaneRows(p, size.Height)
		need := (rows-1)*f.Strides[p] + f.Format.PlaneRowBytes(p, size.Width)
		if f.Strides[p] < f.Format.PlaneRowBytes(p, size.Width) || len(f.VisibleData(p)) < need {
			return fmt.Errorf("%w: plane %d", ErrPlaneTooSmall, p)
		}
	}
	return nil
}

// ConvertToMemoryMappedFrame maps a GPU-backed frame into CPU memory,
// carrying over timestamp and metadata.
func ConvertToMemoryMappedFrame(f *VideoFrame) (*VideoFrame, error) {
	if f.GpuBuffer == nil {
		return nil, ErrNotMappable
	}
	mapped, err := f.GpuBuffer.Map()
	if err != nil {
		return nil, fmt.Errorf("map gpu buffer: %w", err)
	}
	if mapped == nil || !mapped.IsMappable() {
		return nil, ErrNotMappable
	}
	mapped.Timestamp = f.Timestamp
	mapped.Metadata = f.Metadata
	return mapped, nil
}
