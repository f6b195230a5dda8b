//go:build cgo

package libvpx

import (
	"errors"
	"testing"

	"github.com/user/vpxenc/pkg/ports"
)

func testImage(format ports.ImageFormat, width, height int, value byte) *ports.VpxImage {
	bps := 1
	if format.HighBitDepth() {
		bps = 2
	}
	cw, ch := (width+1)/2, (height+1)/2
	img := &ports.VpxImage{Format: format, Width: width, Height: height, BitDepth: 8 * bps}
	img.Strides = [3]int{width * bps, cw * bps, cw * bps}
	if format == ports.ImageFormatNV12 {
		img.Strides = [3]int{width, 2 * cw, 2 * cw}
	}
	for p := 0; p < 3; p++ {
		rows := height
		if p > 0 {
			rows = ch
		}
		img.Planes[p] = make([]byte, img.Strides[p]*rows)
		for i := range img.Planes[p] {
			img.Planes[p][i] = value
		}
	}
	if format.HighBitDepth() {
		// 10-bit samples, little endian.
		for p := range img.Planes {
			for i := 1; i < len(img.Planes[p]); i += 2 {
				img.Planes[p][i] = 0x01
			}
		}
	}
	if format == ports.ImageFormatNV12 {
		img.Planes[2] = img.Planes[1][1:]
	}
	return img
}

func newContext(t *testing.T, iface ports.VpxInterface, width, height int, highBitDepth bool) ports.VpxContext {
	t.Helper()
	lib := New()

	cfg, err := lib.DefaultConfig(iface)
	if err != nil {
		t.Fatalf("DefaultConfig failed: %v", err)
	}
	cfg.Width = uint(width)
	cfg.Height = uint(height)
	cfg.TimebaseNum = 1
	cfg.TimebaseDen = 1000000
	cfg.LagInFrames = 0
	cfg.OnePass = true
	cfg.EndUsage = ports.RateControlCBR
	cfg.TargetBitrate = 300
	if highBitDepth {
		cfg.Profile = 2
		cfg.BitDepth = 10
		cfg.InputBitDepth = 10
	}

	ctx, err := lib.NewContext(iface, cfg, highBitDepth)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	t.Cleanup(func() { ctx.Destroy() })
	return ctx
}

func encodeFrames(t *testing.T, ctx ports.VpxContext, img *ports.VpxImage, n int) []ports.VpxPacket {
	t.Helper()
	var packets []ports.VpxPacket
	for i := 0; i < n; i++ {
		var flags ports.EncodeFlags
		if i == 0 {
			flags = ports.EncodeFlagForceKeyframe
		}
		if err := ctx.Encode(img, int64(i)*33333, 33333, flags, ports.DeadlineRealtime); err != nil {
			t.Fatalf("Encode frame %d failed: %v", i, err)
		}
		packets = append(packets, ctx.Packets()...)
	}
	if err := ctx.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	return append(packets, ctx.Packets()...)
}

func framePackets(packets []ports.VpxPacket) []ports.VpxPacket {
	var frames []ports.VpxPacket
	for _, p := range packets {
		if p.Kind == ports.PacketKindFrame {
			frames = append(frames, p)
		}
	}
	return frames
}

func TestVersion(t *testing.T) {
	if Version() == "" {
		t.Error("expected a libvpx version string")
	}
}

func TestLibrary_DefaultConfig(t *testing.T) {
	for _, iface := range []ports.VpxInterface{ports.VpxInterfaceVP8, ports.VpxInterfaceVP9} {
		cfg, err := New().DefaultConfig(iface)
		if err != nil {
			t.Fatalf("%s: DefaultConfig failed: %v", iface, err)
		}
		if cfg.Width == 0 || cfg.Height == 0 {
			t.Errorf("%s: expected default dimensions, got %dx%d", iface, cfg.Width, cfg.Height)
		}
		if cfg.TargetBitrate == 0 {
			t.Errorf("%s: expected default bitrate", iface)
		}
	}
}

func TestContext_EncodeVP8(t *testing.T) {
	ctx := newContext(t, ports.VpxInterfaceVP8, 64, 48, false)
	if err := ctx.Control(ports.ControlCPUUsed, 5); err != nil {
		t.Fatalf("Control failed: %v", err)
	}

	frames := framePackets(encodeFrames(t, ctx, testImage(ports.ImageFormatI420, 64, 48, 128), 5))
	if len(frames) != 5 {
		t.Fatalf("expected 5 frame packets, got %d", len(frames))
	}
	if !frames[0].Keyframe {
		t.Error("expected first packet to be a keyframe")
	}
	for i, f := range frames {
		if len(f.Data) == 0 {
			t.Errorf("packet %d is empty", i)
		}
		if f.PTS != int64(i)*33333 {
			t.Errorf("packet %d: expected pts %d, got %d", i, int64(i)*33333, f.PTS)
		}
	}
}

func TestContext_EncodeVP9NV12(t *testing.T) {
	ctx := newContext(t, ports.VpxInterfaceVP9, 64, 64, false)
	if err := ctx.Control(ports.ControlTileColumns, 0); err != nil {
		t.Fatalf("tile columns: %v", err)
	}
	if err := ctx.Control(ports.ControlRowMT, 1); err != nil {
		t.Fatalf("row mt: %v", err)
	}

	frames := framePackets(encodeFrames(t, ctx, testImage(ports.ImageFormatNV12, 64, 64, 100), 3))
	if len(frames) == 0 {
		t.Fatal("expected frame packets")
	}
	if !frames[0].Keyframe {
		t.Error("expected first packet to be a keyframe")
	}
}

func TestContext_SetConfigShrinks(t *testing.T) {
	lib := New()
	cfg, err := lib.DefaultConfig(ports.VpxInterfaceVP8)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Width, cfg.Height = 64, 64
	cfg.LagInFrames = 0

	ctx, err := lib.NewContext(ports.VpxInterfaceVP8, cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Destroy()

	cfg.Width, cfg.Height = 32, 32
	if err := ctx.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}

	if err := ctx.Encode(testImage(ports.ImageFormatI420, 32, 32, 60), 0, 33333, 0, ports.DeadlineRealtime); err != nil {
		t.Fatalf("Encode after SetConfig failed: %v", err)
	}
	if len(framePackets(ctx.Packets())) != 1 {
		t.Error("expected one frame packet")
	}
}

func TestContext_ImageTooSmall(t *testing.T) {
	ctx := newContext(t, ports.VpxInterfaceVP8, 64, 48, false)

	img := testImage(ports.ImageFormatI420, 64, 48, 0)
	img.Planes[1] = img.Planes[1][:10]

	err := ctx.Encode(img, 0, 33333, 0, ports.DeadlineRealtime)
	if !errors.Is(err, ErrImageTooSmall) {
		t.Errorf("expected ErrImageTooSmall, got %v", err)
	}
}

func TestContext_InvalidConfig(t *testing.T) {
	lib := New()
	cfg, err := lib.DefaultConfig(ports.VpxInterfaceVP8)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Width, cfg.Height = 0, 0

	_, err = lib.NewContext(ports.VpxInterfaceVP8, cfg, false)
	var vpxErr *ports.VpxError
	if !errors.As(err, &vpxErr) {
		t.Fatalf("expected VpxError, got %v", err)
	}
	if vpxErr.Code == 0 {
		t.Error("expected a non-zero libvpx error code")
	}
}

func TestContext_Destroyed(t *testing.T) {
	lib := New()
	cfg, err := lib.DefaultConfig(ports.VpxInterfaceVP8)
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := lib.NewContext(ports.VpxInterfaceVP8, cfg, false)
	if err != nil {
		t.Fatal(err)
	}

	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if err := ctx.Destroy(); err != nil {
		t.Errorf("second Destroy failed: %v", err)
	}
	if err := ctx.Flush(); !errors.Is(err, ErrContextDestroyed) {
		t.Errorf("expected ErrContextDestroyed, got %v", err)
	}
}

func TestNeedsCopy(t *testing.T) {
	for format, want := range map[ports.ImageFormat]bool{
		ports.ImageFormatI420:   false,
		ports.ImageFormatNV12:   false,
		ports.ImageFormatI42016: true,
	} {
		if got := needsCopy(format); got != want {
			t.Errorf("needsCopy(%s) = %v, want %v", format, got, want)
		}
	}
}

func TestContext_EncodeInPlacePaddedPlanes(t *testing.T) {
	ctx := newContext(t, ports.VpxInterfaceVP8, 64, 48, false)

	// One buffer holding all three planes with padded rows, as a decoder
	// or capture pool would hand them out.
	const yStride, cStride = 80, 48
	buf := make([]byte, yStride*48+2*cStride*24)
	for i := range buf {
		buf[i] = 90
	}
	img := &ports.VpxImage{
		Format:   ports.ImageFormatI420,
		Width:    64,
		Height:   48,
		BitDepth: 8,
		Strides:  [3]int{yStride, cStride, cStride},
		Planes: [3][]byte{
			buf[:yStride*48],
			buf[yStride*48 : yStride*48+cStride*24],
			buf[yStride*48+cStride*24:],
		},
	}

	frames := framePackets(encodeFrames(t, ctx, img, 3))
	if len(frames) != 3 || !frames[0].Keyframe {
		t.Fatalf("expected 3 frames starting with a keyframe, got %d", len(frames))
	}
	if ctx.(*context).img != nil {
		t.Error("8-bit input should not allocate a libvpx image")
	}
}

func TestContext_EncodeI42016Copies(t *testing.T) {
	lib := New()
	cfg, err := lib.DefaultConfig(ports.VpxInterfaceVP9)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Width, cfg.Height = 64, 48
	cfg.LagInFrames = 0
	cfg.Profile, cfg.BitDepth, cfg.InputBitDepth = 2, 10, 10
	ctx, err := lib.NewContext(ports.VpxInterfaceVP9, cfg, true)
	if err != nil {
		t.Skipf("libvpx built without high bit depth support: %v", err)
	}
	defer ctx.Destroy()

	frames := framePackets(encodeFrames(t, ctx, testImage(ports.ImageFormatI42016, 64, 48, 0x80), 2))
	if len(frames) == 0 || !frames[0].Keyframe {
		t.Fatal("expected frame packets starting with a keyframe")
	}
	if ctx.(*context).img == nil {
		t.Error("16-bit input should go through the libvpx image")
	}
}
