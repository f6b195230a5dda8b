package libvpx

import "errors"

var (
	// ErrPlatformNotSupported is returned when the binary was built without cgo.
	ErrPlatformNotSupported = errors.New("libvpx: platform not supported")

	// ErrContextDestroyed is returned by calls on a destroyed context.
	ErrContextDestroyed = errors.New("libvpx: context destroyed")

	// ErrImageTooSmall is returned when an image plane is shorter than its
	// declared geometry.
	ErrImageTooSmall = errors.New("libvpx: image plane too small")

	// ErrUnsupportedImageFormat is returned for image formats the binding
	// cannot allocate.
	ErrUnsupportedImageFormat = errors.New("libvpx: unsupported image format")
)
