package media

import (
	"encoding/binary"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ConvertAndScaleFrame converts src into dst's pixel format and scales it
// to dst's visible size.
//
// Supported conversions are 8-bit YUV (I420, NV12) to 8-bit YUV, and any
// packed RGB layout to I420.
func ConvertAndScaleFrame(src, dst *VideoFrame) error {
	if err := src.Validate(); err != nil {
		return fmt.Errorf("source frame: %w", err)
	}
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("destination frame: %w", err)
	}

	switch {
	case src.Format.IsRGB() && dst.Format == PixelFormatI420:
		convertRGBToI420(src, dst)
		return nil
	case isEightBitYUV(src.Format) && isEightBitYUV(dst.Format):
		convertYUVToYUV(src, dst)
		return nil
	}
	return fmt.Errorf("%w: %s to %s", ErrUnsupportedFormat, src.Format, dst.Format)
}

func isEightBitYUV(f PixelFormat) bool {
	return f == PixelFormatI420 || f == PixelFormatNV12
}

func convertYUVToYUV(src, dst *VideoFrame) {
	in := yuvPlanes(src)
	size := dst.VisibleSize()
	cw, ch := (size.Width+1)/2, (size.Height+1)/2
	out := [3]*image.Gray{
		scalePlane(in[0], size.Width, size.Height),
		scalePlane(in[1], cw, ch),
		scalePlane(in[2], cw, ch),
	}
	writeYUVPlanes(dst, out)
}

// yuvPlanes returns Y, U and V views of the visible area. NV12 chroma is
// de-interleaved into new buffers.
func yuvPlanes(f *VideoFrame) [3]*image.Gray {
	size := f.VisibleSize()
	cw, ch := (size.Width+1)/2, (size.Height+1)/2
	y := grayView(f.VisibleData(0), f.Strides[0], size.Width, size.Height)
	if f.Format == PixelFormatI420 {
		return [3]*image.Gray{
			y,
			grayView(f.VisibleData(1), f.Strides[1], cw, ch),
			grayView(f.VisibleData(2), f.Strides[2], cw, ch),
		}
	}

	u := image.NewGray(image.Rect(0, 0, cw, ch))
	v := image.NewGray(image.Rect(0, 0, cw, ch))
	uv, stride := f.VisibleData(1), f.Strides[1]
	for row := 0; row < ch; row++ {
		line := uv[row*stride:]
		for col := 0; col < cw; col++ {
			u.Pix[row*u.Stride+col] = line[2*col]
			v.Pix[row*v.Stride+col] = line[2*col+1]
		}
	}
	return [3]*image.Gray{y, u, v}
}

func grayView(pix []byte, stride, width, height int) *image.Gray {
	return &image.Gray{Pix: pix, Stride: stride, Rect: image.Rect(0, 0, width, height)}
}

func scalePlane(src *image.Gray, width, height int) *image.Gray {
	if src.Rect.Dx() == width && src.Rect.Dy() == height {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func writeYUVPlanes(dst *VideoFrame, planes [3]*image.Gray) {
	copyPlane(dst.VisibleData(0), dst.Strides[0], planes[0])
	if dst.Format == PixelFormatI420 {
		copyPlane(dst.VisibleData(1), dst.Strides[1], planes[1])
		copyPlane(dst.VisibleData(2), dst.Strides[2], planes[2])
		return
	}

	uv, stride := dst.VisibleData(1), dst.Strides[1]
	u, v := planes[1], planes[2]
	for row := 0; row < u.Rect.Dy(); row++ {
		line := uv[row*stride:]
		for col := 0; col < u.Rect.Dx(); col++ {
			line[2*col] = u.Pix[row*u.Stride+col]
			line[2*col+1] = v.Pix[row*v.Stride+col]
		}
	}
}

func copyPlane(dst []byte, stride int, src *image.Gray) {
	w := src.Rect.Dx()
	for row := 0; row < src.Rect.Dy(); row++ {
		copy(dst[row*stride:row*stride+w], src.Pix[row*src.Stride:row*src.Stride+w])
	}
}

func convertRGBToI420(src, dst *VideoFrame) {
	rgba := rgbaView(src)
	size := dst.VisibleSize()
	if rgba.Rect.Dx() != size.Width || rgba.Rect.Dy() != size.Height {
		scaled := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
		draw.BiLinear.Scale(scaled, scaled.Bounds(), rgba, rgba.Bounds(), draw.Src, nil)
		rgba = scaled
	}
	rgbaToI420(rgba, dst)
}

// rgbaView returns the visible area as an *image.RGBA. R,G,B,A ordered
// formats are wrapped without copying.
func rgbaView(f *VideoFrame) *image.RGBA {
	size := f.VisibleSize()
	pix, stride := f.VisibleData(0), f.Strides[0]
	if f.Format == PixelFormatABGR || f.Format == PixelFormatXBGR {
		return &image.RGBA{Pix: pix, Stride: stride, Rect: image.Rect(0, 0, size.Width, size.Height)}
	}

	out := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	for y := 0; y < size.Height; y++ {
		s := pix[y*stride:]
		d := out.Pix[y*out.Stride:]
		for x := 0; x < size.Width; x++ {
			d[4*x] = s[4*x+2]
			d[4*x+1] = s[4*x+1]
			d[4*x+2] = s[4*x]
			d[4*x+3] = s[4*x+3]
		}
	}
	return out
}

// rgbaToI420 writes BT.601 limited range YUV. Chroma is the average of
// each 2x2 block.
func rgbaToI420(img *image.RGBA, dst *VideoFrame) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	yPlane, uPlane, vPlane := dst.VisibleData(0), dst.VisibleData(1), dst.VisibleData(2)
	yStride, uStride, vStride := dst.Strides[0], dst.Strides[1], dst.Strides[2]

	for by := 0; by < h; by += 2 {
		for bx := 0; bx < w; bx += 2 {
			var sr, sg, sb, n int
			for y := by; y < by+2 && y < h; y++ {
				for x := bx; x < bx+2 && x < w; x++ {
					i := y*img.Stride + 4*x
					r, g, b := int(img.Pix[i]), int(img.Pix[i+1]), int(img.Pix[i+2])
					yPlane[y*yStride+x] = clampByte(((66*r + 129*g + 25*b + 128) >> 8) + 16)
					sr, sg, sb = sr+r, sg+g, sb+b
					n++
				}
			}
			r, g, b := sr/n, sg/n, sb/n
			ci := (by / 2)
			cx := bx / 2
			uPlane[ci*uStride+cx] = clampByte(((-38*r - 74*g + 112*b + 128) >> 8) + 128)
			vPlane[ci*vStride+cx] = clampByte(((112*r - 94*g - 18*b + 128) >> 8) + 128)
		}
	}
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// ConvertI420ToI010 expands the visible area of an 8-bit I420 frame into
// 10-bit samples stored as little-endian 16-bit words. Destination strides
// are in bytes.
func ConvertI420ToI010(src *VideoFrame, dst [3][]byte, dstStrides [3]int) error {
	if src.Format != PixelFormatI420 {
		return fmt.Errorf("%w: %s to i010", ErrUnsupportedFormat, src.Format)
	}
	if err := src.Validate(); err != nil {
		return err
	}

	size := src.VisibleSize()
	for p := 0; p < 3; p++ {
		width := PixelFormatI420.PlaneRowBytes(p, size.Width)
		rows := PixelFormatI420.PlaneRows(p, size.Height)
		if dstStrides[p] < 2*width || len(dst[p]) < (rows-1)*dstStrides[p]+2*width {
			return fmt.Errorf("%w: i010 plane %d", ErrPlaneTooSmall, p)
		}

		in := src.VisibleData(p)
		for row := 0; row < rows; row++ {
			s := in[row*src.Strides[p]:]
			d := dst[p][row*dstStrides[p]:]
			for x := 0; x < width; x++ {
				v := uint16(s[x])
				binary.LittleEndian.PutUint16(d[2*x:], v<<2|v>>6)
			}
		}
	}
	return nil
}
