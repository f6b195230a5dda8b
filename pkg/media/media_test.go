package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSize_CheckedArea(t *testing.T) {
	tests := []struct {
		size Size
		area int
		ok   bool
	}{
		{Size{Width: 640, Height: 480}, 307200, true},
		{Size{Width: 0, Height: 480}, 0, true},
		{Size{Width: -1, Height: 480}, 0, false},
		{Size{Width: 65536, Height: 65536}, 0, false},
		{Size{Width: math.MaxInt32, Height: 1}, math.MaxInt32, true},
	}
	for _, tt := range tests {
		area, ok := tt.size.CheckedArea()
		assert.Equal(t, tt.ok, ok, tt.size.String())
		assert.Equal(t, tt.area, area, tt.size.String())
	}
}

func TestParseSize(t *testing.T) {
	s, err := ParseSize("1280x720")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 1280, Height: 720}, s)

	_, err = ParseSize("0x720")
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = ParseSize("wide")
	assert.Error(t, err)
}

func TestParsePixelFormat(t *testing.T) {
	f, err := ParsePixelFormat(" NV12 ")
	require.NoError(t, err)
	assert.Equal(t, PixelFormatNV12, f)

	_, err = ParsePixelFormat("yuyv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNewFrame_Layout(t *testing.T) {
	f, err := NewFrame(PixelFormatI420, Size{Width: 5, Height: 3}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3, 3}, f.Strides)
	assert.Len(t, f.Planes[0], 15)
	assert.Len(t, f.Planes[1], 6)
	assert.NoError(t, f.Validate())

	nv12, err := NewFrame(PixelFormatNV12, Size{Width: 4, Height: 4}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4}, nv12.Strides)
	assert.Len(t, nv12.Planes[1], 8)

	_, err = NewFrame(PixelFormatUnknown, Size{Width: 4, Height: 4}, 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = NewFrame(PixelFormatI420, Size{}, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestVideoFrame_Validate(t *testing.T) {
	f, err := NewFrame(PixelFormatI420, Size{Width: 8, Height: 8}, 0)
	require.NoError(t, err)

	f.Planes[2] = f.Planes[2][:3]
	assert.ErrorIs(t, f.Validate(), ErrPlaneTooSmall)

	f.Planes = f.Planes[:2]
	assert.ErrorIs(t, f.Validate(), ErrNotMappable)
}

func TestVideoFrame_VisibleData(t *testing.T) {
	f, err := NewFrame(PixelFormatI420, Size{Width: 8, Height: 8}, 0)
	require.NoError(t, err)
	f.Planes[0][2*8+4] = 9
	f.Planes[1][1*4+2] = 7
	f.VisibleRect = image.Rect(4, 2, 8, 8)

	assert.Equal(t, byte(9), f.VisibleData(0)[0])
	assert.Equal(t, byte(7), f.VisibleData(1)[0])
	assert.Nil(t, f.VisibleData(3))
}

type fakeGpuBuffer struct {
	frame *VideoFrame
	err   error
}

func (b fakeGpuBuffer) Map() (*VideoFrame, error) { return b.frame, b.err }

func TestConvertToMemoryMappedFrame(t *testing.T) {
	mapped, err := NewFrame(PixelFormatNV12, Size{Width: 4, Height: 4}, 0)
	require.NoError(t, err)

	src := (&VideoFrame{Format: PixelFormatNV12, Timestamp: 3 * time.Second, GpuBuffer: fakeGpuBuffer{frame: mapped}}).
		WithFrameDuration(time.Second / 30)
	out, err := ConvertToMemoryMappedFrame(src)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, out.Timestamp)
	require.NotNil(t, out.Metadata.FrameDuration)
	assert.Equal(t, time.Second/30, *out.Metadata.FrameDuration)

	_, err = ConvertToMemoryMappedFrame(&VideoFrame{GpuBuffer: fakeGpuBuffer{err: errors.New("lost")}})
	assert.Error(t, err)
	_, err = ConvertToMemoryMappedFrame(&VideoFrame{})
	assert.ErrorIs(t, err, ErrNotMappable)
}

func TestFramePool(t *testing.T) {
	pool := NewFramePool(1)
	size := Size{Width: 16, Height: 16}

	a, err := pool.CreateFrame(PixelFormatI420, size, 0)
	require.NoError(t, err)
	pool.Release(a)
	assert.Equal(t, 1, pool.Len())

	b, err := pool.CreateFrame(PixelFormatI420, size, time.Second)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, time.Second, b.Timestamp)
	assert.Equal(t, 0, pool.Len())

	c, err := pool.CreateFrame(PixelFormatNV12, size, 0)
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	pool.Release(b)
	pool.Release(c)
	assert.Equal(t, 1, pool.Len())
}

func fill(f *VideoFrame, values ...byte) {
	for p := range f.Planes {
		for i := range f.Planes[p] {
			f.Planes[p][i] = values[p]
		}
	}
}

func TestConvertAndScaleFrame_YUV(t *testing.T) {
	src, err := NewFrame(PixelFormatNV12, Size{Width: 8, Height: 8}, 0)
	require.NoError(t, err)
	fill(src, 100, 0)
	for i := 0; i < len(src.Planes[1]); i += 2 {
		src.Planes[1][i] = 60
		src.Planes[1][i+1] = 200
	}

	dst, err := NewFrame(PixelFormatI420, Size{Width: 4, Height: 4}, 0)
	require.NoError(t, err)
	require.NoError(t, ConvertAndScaleFrame(src, dst))

	assert.Equal(t, byte(100), dst.Planes[0][5])
	assert.Equal(t, byte(60), dst.Planes[1][0])
	assert.Equal(t, byte(200), dst.Planes[2][3])

	back, err := NewFrame(PixelFormatNV12, Size{Width: 4, Height: 4}, 0)
	require.NoError(t, err)
	require.NoError(t, ConvertAndScaleFrame(dst, back))
	assert.Equal(t, []byte{60, 200}, back.Planes[1][:2])
}

func TestConvertAndScaleFrame_RGB(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0, 0, 0, 255
	}
	src := WrapImage(img, 0)
	require.Equal(t, PixelFormatABGR, src.Format)

	dst, err := NewFrame(PixelFormatI420, Size{Width: 4, Height: 4}, 0)
	require.NoError(t, err)
	require.NoError(t, ConvertAndScaleFrame(src, dst))
	assert.Equal(t, byte(16), dst.Planes[0][0])
	assert.Equal(t, byte(128), dst.Planes[1][0])
	assert.Equal(t, byte(128), dst.Planes[2][0])

	nv12, err := NewFrame(PixelFormatNV12, Size{Width: 4, Height: 4}, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, ConvertAndScaleFrame(src, nv12), ErrUnsupportedFormat)
}

func TestConvertAndScaleFrame_BGRAOrder(t *testing.T) {
	// Pure blue in B,G,R,A memory order.
	src, err := NewFrame(PixelFormatARGB, Size{Width: 2, Height: 2}, 0)
	require.NoError(t, err)
	for i := 0; i < len(src.Planes[0]); i += 4 {
		src.Planes[0][i], src.Planes[0][i+3] = 255, 255
	}
	dst, err := NewFrame(PixelFormatI420, Size{Width: 2, Height: 2}, 0)
	require.NoError(t, err)
	require.NoError(t, ConvertAndScaleFrame(src, dst))

	assert.Equal(t, byte(41), dst.Planes[0][0])
	assert.Equal(t, byte(240), dst.Planes[1][0])
	assert.Equal(t, byte(110), dst.Planes[2][0])
}

func TestConvertI420ToI010(t *testing.T) {
	src, err := NewFrame(PixelFormatI420, Size{Width: 2, Height: 2}, 0)
	require.NoError(t, err)
	fill(src, 0xff, 0x80, 0x00)

	dst := [3][]byte{make([]byte, 8), make([]byte, 2), make([]byte, 2)}
	require.NoError(t, ConvertI420ToI010(src, dst, [3]int{4, 2, 2}))
	assert.Equal(t, []byte{0xff, 0x03}, dst[0][:2])
	assert.Equal(t, []byte{0x02, 0x02}, dst[1])
	assert.Equal(t, []byte{0x00, 0x00}, dst[2])

	assert.ErrorIs(t, ConvertI420ToI010(src, dst, [3]int{2, 2, 2}), ErrPlaneTooSmall)

	nv12, err := NewFrame(PixelFormatNV12, Size{Width: 2, Height: 2}, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, ConvertI420ToI010(nv12, dst, [3]int{4, 2, 2}), ErrUnsupportedFormat)
}

func TestWrapImage(t *testing.T) {
	ycc := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420)
	f := WrapImage(ycc, time.Second)
	assert.Equal(t, PixelFormatI420, f.Format)
	ycc.Y[0] = 42
	assert.Equal(t, byte(42), f.Planes[0][0], "YCbCr should be wrapped without copying")

	pal := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.White})
	f = WrapImage(pal, 0)
	assert.Equal(t, PixelFormatABGR, f.Format)
	assert.Equal(t, byte(255), f.Planes[0][0])
}

func TestToImage(t *testing.T) {
	f, err := NewFrame(PixelFormatNV12, Size{Width: 4, Height: 2}, 0)
	require.NoError(t, err)
	fill(f, 50, 128)

	img, err := ToImage(f)
	require.NoError(t, err)
	ycc, ok := img.(*image.YCbCr)
	require.True(t, ok)
	assert.Equal(t, uint8(50), ycc.YCbCrAt(1, 1).Y)
	assert.Equal(t, uint8(128), ycc.YCbCrAt(1, 1).Cb)
}

func TestRawFrame_RoundTrip(t *testing.T) {
	size := Size{Width: 4, Height: 2}
	n, err := RawFrameSize(PixelFormatI420, size)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	data := make([]byte, 2*n)
	for i := range data {
		data[i] = byte(i)
	}
	r := bytes.NewReader(data)

	f, err := ReadRawFrame(r, PixelFormatI420, size, 0)
	require.NoError(t, err)
	assert.Equal(t, data[8:10], f.Planes[1])

	var out bytes.Buffer
	require.NoError(t, WriteRawFrame(&out, f))
	assert.Equal(t, data[:n], out.Bytes())

	_, err = ReadRawFrame(r, PixelFormatI420, size, 0)
	require.NoError(t, err)
	_, err = ReadRawFrame(r, PixelFormatI420, size, 0)
	assert.ErrorIs(t, err, io.EOF)

	_, err = ReadRawFrame(bytes.NewReader(data[:10]), PixelFormatI420, size, 0)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
