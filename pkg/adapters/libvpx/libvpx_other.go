//go:build !cgo

// Package libvpx binds the libvpx VP8/VP9 encoder to ports.VpxLibrary.
package libvpx

import "github.com/user/vpxenc/pkg/ports"

// Library is a placeholder used when cgo is disabled.
type Library struct{}

// New returns a library whose calls fail with ErrPlatformNotSupported.
func New() *Library {
	return &Library{}
}

// Version returns an empty string without cgo.
func Version() string {
	return ""
}

func (l *Library) DefaultConfig(iface ports.VpxInterface) (ports.VpxConfig, error) {
	return ports.VpxConfig{}, ErrPlatformNotSupported
}

func (l *Library) NewContext(iface ports.VpxInterface, cfg ports.VpxConfig, highBitDepth bool) (ports.VpxContext, error) {
	return nil, ErrPlatformNotSupported
}

var _ ports.VpxLibrary = (*Library)(nil)
