package media

import (
	"fmt"
	"io"
	"time"
)

// RawFrameSize returns the number of bytes of one tightly packed frame.
func RawFrameSize(format PixelFormat, size Size) (int, error) {
	if format.NumPlanes() == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if _, ok := size.CheckedArea(); !ok || size.IsEmpty() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSize, size)
	}
	total := 0
	for p := 0; p < format.NumPlanes(); p++ {
		total += format.PlaneRowBytes(p, size.Width) * format.PlaneRows(p, size.Height)
	}
	return total, nil
}

// ReadRawFrame reads one tightly packed frame. It returns io.EOF when r is
// exhausted before the first byte and io.ErrUnexpectedEOF for a partial
// frame.
func ReadRawFrame(r io.Reader, format PixelFormat, size Size, timestamp time.Duration) (*VideoFrame, error) {
	f, err := NewFrame(format, size, timestamp)
	if err != nil {
		return nil, err
	}
	for p := range f.Planes {
		if _, err := io.ReadFull(r, f.Planes[p]); err != nil {
			if err == io.EOF && p > 0 {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return f, nil
}

// WriteRawFrame writes the visible area of f tightly packed.
func WriteRawFrame(w io.Writer, f *VideoFrame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	size := f.VisibleSize()
	for p := range f.Planes {
		rowBytes := f.Format.PlaneRowBytes(p, size.Width)
		data := f.VisibleData(p)
		for row := 0; row < f.Format.PlaneRows(p, size.Height); row++ {
			off := row * f.Strides[p]
			if _, err := w.Write(data[off : off+rowBytes]); err != nil {
				return fmt.Errorf("write plane %d: %w", p, err)
			}
		}
	}
	return nil
}
