package vpxencoder

import (
	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

// reallocateImageIfNeeded makes img describe a width x height image of the
// given format. 16-bit images get their own buffers; 8-bit images only get
// their geometry set because Encode points them at the frame's planes.
// It reports whether anything changed.
func reallocateImageIfNeeded(img *ports.VpxImage, format ports.ImageFormat, width, height int) bool {
	if img.Format == format && img.Width == width && img.Height == height {
		return false
	}

	*img = ports.VpxImage{
		Format:   format,
		Width:    width,
		Height:   height,
		BitDepth: 8,
	}

	cw, ch := (width+1)/2, (height+1)/2
	switch format {
	case ports.ImageFormatI42016:
		img.BitDepth = 16
		img.Strides = [3]int{2 * width, 2 * cw, 2 * cw}
		img.Planes = [3][]byte{
			make([]byte, img.Strides[0]*height),
			make([]byte, img.Strides[1]*ch),
			make([]byte, img.Strides[2]*ch),
		}
	case ports.ImageFormatNV12:
		img.Strides = [3]int{width, 2 * cw, 2 * cw}
	default:
		img.Strides = [3]int{width, cw, cw}
	}
	return true
}

// wrapFramePlanes points an 8-bit image at the visible planes of frame.
func wrapFramePlanes(img *ports.VpxImage, frame *media.VideoFrame) {
	switch frame.Format {
	case media.PixelFormatNV12:
		uv := frame.VisibleData(1)
		img.Planes = [3][]byte{frame.VisibleData(0), uv, uv[1:]}
		img.Strides = [3]int{frame.Strides[0], frame.Strides[1], frame.Strides[1]}
	default:
		img.Planes = [3][]byte{frame.VisibleData(0), frame.VisibleData(1), frame.VisibleData(2)}
		img.Strides = [3]int{frame.Strides[0], frame.Strides[1], frame.Strides[2]}
	}
}

// imageFormatFor returns the working image format for a profile and an
// 8-bit input format.
func imageFormatFor(profile ports.Profile, format media.PixelFormat) ports.ImageFormat {
	if profile == ports.ProfileVP9Profile2 {
		return ports.ImageFormatI42016
	}
	if format == media.PixelFormatNV12 {
		return ports.ImageFormatNV12
	}
	return ports.ImageFormatI420
}
