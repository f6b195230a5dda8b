package media

import "errors"

var (
	// ErrUnsupportedFormat is returned for pixel formats a routine cannot handle.
	ErrUnsupportedFormat = errors.New("media: unsupported pixel format")

	// ErrInvalidSize is returned for empty or overflowing frame sizes.
	ErrInvalidSize = errors.New("media: invalid frame size")

	// ErrNotMappable is returned when a frame has no CPU-accessible planes.
	ErrNotMappable = errors.New("media: frame is not mappable")

	// ErrPlaneTooSmall is returned when a plane buffer cannot hold the
	// rows its stride and size imply.
	ErrPlaneTooSmall = errors.New("media: plane buffer too small")
)
