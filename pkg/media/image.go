package media

import (
	"image"
	"time"

	"golang.org/x/image/draw"
)

// WrapImage exposes an image.Image as a VideoFrame.
//
// 4:2:0 *image.YCbCr and *image.RGBA images are wrapped without copying;
// anything else is drawn into a new RGBA buffer first.
func WrapImage(img image.Image, timestamp time.Duration) *VideoFrame {
	bounds := img.Bounds()
	size := Size{Width: bounds.Dx(), Height: bounds.Dy()}
	visible := image.Rect(0, 0, size.Width, size.Height)

	switch m := img.(type) {
	case *image.YCbCr:
		if m.SubsampleRatio == image.YCbCrSubsampleRatio420 && bounds.Min.X%2 == 0 && bounds.Min.Y%2 == 0 {
			return &VideoFrame{
				Format:      PixelFormatI420,
				CodedSize:   size,
				VisibleRect: visible,
				Planes: [][]byte{
					m.Y[m.YOffset(bounds.Min.X, bounds.Min.Y):],
					m.Cb[m.COffset(bounds.Min.X, bounds.Min.Y):],
					m.Cr[m.COffset(bounds.Min.X, bounds.Min.Y):],
				},
				Strides:   []int{m.YStride, m.CStride, m.CStride},
				Timestamp: timestamp,
			}
		}
	case *image.RGBA:
		return &VideoFrame{
			Format:      PixelFormatABGR,
			CodedSize:   size,
			VisibleRect: visible,
			Planes:      [][]byte{m.Pix[m.PixOffset(bounds.Min.X, bounds.Min.Y):]},
			Strides:     []int{m.Stride},
			Timestamp:   timestamp,
		}
	}

	rgba := image.NewRGBA(visible)
	draw.Draw(rgba, visible, img, bounds.Min, draw.Src)
	return WrapImage(rgba, timestamp)
}

// ToImage returns an image.Image view of an 8-bit frame for debugging
// output. NV12 and RGB frames are converted; I420 frames are wrapped.
func ToImage(f *VideoFrame) (image.Image, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	size := f.VisibleSize()
	rect := image.Rect(0, 0, size.Width, size.Height)

	switch {
	case f.Format == PixelFormatI420 || f.Format == PixelFormatNV12:
		planes := yuvPlanes(f)
		if planes[1].Stride != planes[2].Stride {
			for i := 1; i < 3; i++ {
				c := image.NewGray(planes[i].Rect)
				copyPlane(c.Pix, c.Stride, planes[i])
				planes[i] = c
			}
		}
		return &image.YCbCr{
			Y:              planes[0].Pix,
			Cb:             planes[1].Pix,
			Cr:             planes[2].Pix,
			YStride:        planes[0].Stride,
			CStride:        planes[1].Stride,
			SubsampleRatio: image.YCbCrSubsampleRatio420,
			Rect:           rect,
		}, nil
	case f.Format.IsRGB():
		return rgbaView(f), nil
	}
	return nil, ErrUnsupportedFormat
}
