//go:build cgo

// Package libvpx binds the libvpx VP8/VP9 encoder to ports.VpxLibrary.
package libvpx

/*
#cgo !windows pkg-config: vpx
#cgo windows CFLAGS: -IC:/vcpkg/installed/x64-windows-static/include
#cgo windows LDFLAGS: -LC:/vcpkg/installed/x64-windows-static/lib -lvpx -static -lpthread
#include <vpx/vpx_encoder.h>
#include <vpx/vp8cx.h>
#include <stdlib.h>
#include <string.h>

static vpx_codec_iface_t* get_vp8_interface() {
    return vpx_codec_vp8_cx();
}

static vpx_codec_iface_t* get_vp9_interface() {
    return vpx_codec_vp9_cx();
}

// vpx_codec_enc_init is a macro
static vpx_codec_err_t init_encoder(vpx_codec_ctx_t *ctx, vpx_codec_iface_t *iface,
                                    const vpx_codec_enc_cfg_t *cfg, int high_bit_depth) {
    vpx_codec_flags_t flags = high_bit_depth ? VPX_CODEC_USE_HIGHBITDEPTH : 0;
    return vpx_codec_enc_init_ver(ctx, iface, cfg, flags, VPX_ENCODER_ABI_VERSION);
}

// vpx_codec_control is variadic
static vpx_codec_err_t set_cpu_used(vpx_codec_ctx_t *ctx, int value) {
    return vpx_codec_control(ctx, VP8E_SET_CPUUSED, value);
}

static vpx_codec_err_t set_tile_columns(vpx_codec_ctx_t *ctx, int value) {
    return vpx_codec_control(ctx, VP9E_SET_TILE_COLUMNS, value);
}

static vpx_codec_err_t set_row_mt(vpx_codec_ctx_t *ctx, unsigned int value) {
    return vpx_codec_control(ctx, VP9E_SET_ROW_MT, value);
}

// Packet accessors, the payload is a union
static int packet_kind(const vpx_codec_cx_pkt_t *pkt) {
    switch (pkt->kind) {
    case VPX_CODEC_CX_FRAME_PKT:
        return 0;
    case VPX_CODEC_STATS_PKT:
        return 1;
    default:
        return 2;
    }
}

static void* frame_buf(const vpx_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.buf;
}

static size_t frame_sz(const vpx_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.sz;
}

static vpx_codec_pts_t frame_pts(const vpx_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.pts;
}

static unsigned long frame_duration(const vpx_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.duration;
}

static int frame_is_key(const vpx_codec_cx_pkt_t *pkt) {
    return (pkt->data.frame.flags & VPX_FRAME_IS_KEY) != 0;
}

static void* stats_buf(const vpx_codec_cx_pkt_t *pkt) {
    return pkt->data.twopass_stats.buf;
}

static size_t stats_sz(const vpx_codec_cx_pkt_t *pkt) {
    return pkt->data.twopass_stats.sz;
}

// encode_wrapped encodes an 8-bit image whose planes live in caller
// memory. libvpx copies the input into its lookahead before returning, so
// no reference to the planes outlives the call.
static vpx_codec_err_t encode_wrapped(vpx_codec_ctx_t *ctx, vpx_img_fmt_t fmt,
                                      unsigned int w, unsigned int h,
                                      unsigned char *y, int y_stride,
                                      unsigned char *u, int u_stride,
                                      unsigned char *v, int v_stride,
                                      vpx_codec_pts_t pts, unsigned long duration,
                                      vpx_enc_frame_flags_t flags, unsigned long deadline) {
    vpx_image_t img;
    if (!vpx_img_wrap(&img, fmt, w, h, 1, y)) {
        return VPX_CODEC_INVALID_PARAM;
    }
    img.planes[VPX_PLANE_Y] = y;
    img.planes[VPX_PLANE_U] = u;
    img.planes[VPX_PLANE_V] = v;
    img.stride[VPX_PLANE_Y] = y_stride;
    img.stride[VPX_PLANE_U] = u_stride;
    img.stride[VPX_PLANE_V] = v_stride;
    return vpx_codec_encode(ctx, &img, pts, duration, flags, deadline);
}

static unsigned char* image_plane(vpx_image_t *img, int plane) {
    return img->planes[plane];
}

static int image_stride(vpx_image_t *img, int plane) {
    return img->stride[plane];
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/user/vpxenc/pkg/ports"
)

// Library implements ports.VpxLibrary with libvpx.
type Library struct{}

// New returns the libvpx binding.
func New() *Library {
	return &Library{}
}

// Version returns the libvpx version string.
func Version() string {
	return C.GoString(C.vpx_codec_version_str())
}

func codecInterface(iface ports.VpxInterface) *C.vpx_codec_iface_t {
	if iface == ports.VpxInterfaceVP9 {
		return C.get_vp9_interface()
	}
	return C.get_vp8_interface()
}

// DefaultConfig returns libvpx's default encoder configuration.
func (l *Library) DefaultConfig(iface ports.VpxInterface) (ports.VpxConfig, error) {
	cfg := (*C.vpx_codec_enc_cfg_t)(C.malloc(C.sizeof_vpx_codec_enc_cfg_t))
	if cfg == nil {
		return ports.VpxConfig{}, fmt.Errorf("failed to allocate encoder config")
	}
	defer C.free(unsafe.Pointer(cfg))

	if res := C.vpx_codec_enc_config_default(codecInterface(iface), cfg, 0); res != C.VPX_CODEC_OK {
		return ports.VpxConfig{}, codecError(res, nil)
	}
	return configFromC(cfg), nil
}

// NewContext initializes an encoder with cfg applied over libvpx defaults.
func (l *Library) NewContext(iface ports.VpxInterface, cfg ports.VpxConfig, highBitDepth bool) (ports.VpxContext, error) {
	c := &context{}

	c.codec = (*C.vpx_codec_ctx_t)(C.malloc(C.sizeof_vpx_codec_ctx_t))
	if c.codec == nil {
		return nil, fmt.Errorf("failed to allocate codec context")
	}
	C.memset(unsafe.Pointer(c.codec), 0, C.sizeof_vpx_codec_ctx_t)

	c.cfg = (*C.vpx_codec_enc_cfg_t)(C.malloc(C.sizeof_vpx_codec_enc_cfg_t))
	if c.cfg == nil {
		c.free()
		return nil, fmt.Errorf("failed to allocate encoder config")
	}

	cif := codecInterface(iface)
	if res := C.vpx_codec_enc_config_default(cif, c.cfg, 0); res != C.VPX_CODEC_OK {
		c.free()
		return nil, codecError(res, nil)
	}
	applyConfig(cfg, c.cfg)

	hbd := C.int(0)
	if highBitDepth {
		hbd = 1
	}
	if res := C.init_encoder(c.codec, cif, c.cfg, hbd); res != C.VPX_CODEC_OK {
		err := codecError(res, c.codec)
		c.free()
		return nil, err
	}
	c.open = true
	return c, nil
}

// context owns a libvpx encoder instance. Codec state lives in C memory;
// img is only allocated for 16-bit input.
type context struct {
	codec *C.vpx_codec_ctx_t
	cfg   *C.vpx_codec_enc_cfg_t
	img   *C.vpx_image_t

	imgFormat ports.ImageFormat
	imgWidth  int
	imgHeight int

	packets []ports.VpxPacket
	open    bool
}

func (c *context) Control(ctrl ports.VpxControl, value int) error {
	if !c.open {
		return ErrContextDestroyed
	}
	var res C.vpx_codec_err_t
	switch ctrl {
	case ports.ControlCPUUsed:
		res = C.set_cpu_used(c.codec, C.int(value))
	case ports.ControlTileColumns:
		res = C.set_tile_columns(c.codec, C.int(value))
	case ports.ControlRowMT:
		res = C.set_row_mt(c.codec, C.uint(value))
	default:
		return fmt.Errorf("libvpx: unknown control %s", ctrl)
	}
	if res != C.VPX_CODEC_OK {
		return codecError(res, c.codec)
	}
	return nil
}

// SetConfig pushes cfg into the live encoder. The previous configuration
// is kept when libvpx rejects it.
func (c *context) SetConfig(cfg ports.VpxConfig) error {
	if !c.open {
		return ErrContextDestroyed
	}
	prev := *c.cfg
	applyConfig(cfg, c.cfg)
	if res := C.vpx_codec_enc_config_set(c.codec, c.cfg); res != C.VPX_CODEC_OK {
		*c.cfg = prev
		return codecError(res, c.codec)
	}
	return nil
}

// Encode encodes img. 8-bit images are handed to libvpx in place; only
// 16-bit images go through the context's own vpx_image_t.
func (c *context) Encode(img *ports.VpxImage, pts int64, duration uint64, flags ports.EncodeFlags, deadline ports.Deadline) error {
	if !c.open {
		return ErrContextDestroyed
	}
	if img == nil {
		return c.encode(nil, -1, 0, 0, deadline)
	}
	if needsCopy(img.Format) {
		if err := c.copyImage(img); err != nil {
			return err
		}
		return c.encode(c.img, pts, duration, flags, deadline)
	}
	return c.encodeWrapped(img, pts, duration, flags, deadline)
}

// needsCopy reports whether images of format are copied before encoding.
func needsCopy(format ports.ImageFormat) bool {
	return format.HighBitDepth()
}

func (c *context) encodeWrapped(img *ports.VpxImage, pts int64, duration uint64, flags ports.EncodeFlags, deadline ports.Deadline) error {
	fmtC, err := imageFormat(img.Format)
	if err != nil {
		return err
	}
	if err := checkPlanes(img); err != nil {
		return err
	}

	u, uStride := img.Planes[1], img.Strides[1]
	v, vStride := img.Planes[2], img.Strides[2]
	if img.Format == ports.ImageFormatNV12 {
		v, vStride = u[1:], uStride
	}

	res := C.encode_wrapped(c.codec, fmtC, C.uint(img.Width), C.uint(img.Height),
		planePtr(img.Planes[0]), C.int(img.Strides[0]),
		planePtr(u), C.int(uStride),
		planePtr(v), C.int(vStride),
		C.vpx_codec_pts_t(pts), C.ulong(duration), encodeFlags(flags), C.ulong(deadline))
	if res != C.VPX_CODEC_OK {
		return codecError(res, c.codec)
	}
	c.collectPackets()
	return nil
}

func planePtr(plane []byte) *C.uchar {
	return (*C.uchar)(unsafe.Pointer(&plane[0]))
}

// Flush signals end of stream so buffered frames come out.
func (c *context) Flush() error {
	if !c.open {
		return ErrContextDestroyed
	}
	return c.encode(nil, -1, 0, 0, ports.DeadlineRealtime)
}

func (c *context) encode(img *C.vpx_image_t, pts int64, duration uint64, flags ports.EncodeFlags, deadline ports.Deadline) error {
	res := C.vpx_codec_encode(c.codec, img, C.vpx_codec_pts_t(pts), C.ulong(duration), encodeFlags(flags), C.ulong(deadline))
	if res != C.VPX_CODEC_OK {
		return codecError(res, c.codec)
	}
	c.collectPackets()
	return nil
}

func encodeFlags(flags ports.EncodeFlags) C.vpx_enc_frame_flags_t {
	var cflags C.vpx_enc_frame_flags_t
	if flags&ports.EncodeFlagForceKeyframe != 0 {
		cflags |= C.VPX_EFLAG_FORCE_KF
	}
	return cflags
}

func (c *context) collectPackets() {
	var iter C.vpx_codec_iter_t
	for {
		pkt := C.vpx_codec_get_cx_data(c.codec, &iter)
		if pkt == nil {
			break
		}

		switch C.packet_kind(pkt) {
		case 0:
			c.packets = append(c.packets, ports.VpxPacket{
				Kind:     ports.PacketKindFrame,
				Data:     C.GoBytes(C.frame_buf(pkt), C.int(C.frame_sz(pkt))),
				PTS:      int64(C.frame_pts(pkt)),
				Duration: uint64(C.frame_duration(pkt)),
				Keyframe: C.frame_is_key(pkt) != 0,
			})
		case 1:
			c.packets = append(c.packets, ports.VpxPacket{
				Kind: ports.PacketKindStats,
				Data: C.GoBytes(C.stats_buf(pkt), C.int(C.stats_sz(pkt))),
			})
		default:
			c.packets = append(c.packets, ports.VpxPacket{Kind: ports.PacketKindOther})
		}
	}
}

func (c *context) Packets() []ports.VpxPacket {
	pkts := c.packets
	c.packets = nil
	return pkts
}

func (c *context) Destroy() error {
	if !c.open {
		return nil
	}
	c.open = false

	var err error
	if res := C.vpx_codec_destroy(c.codec); res != C.VPX_CODEC_OK {
		err = codecError(res, nil)
	}
	c.free()
	return err
}

func (c *context) free() {
	if c.img != nil {
		C.vpx_img_free(c.img)
		c.img = nil
	}
	if c.cfg != nil {
		C.free(unsafe.Pointer(c.cfg))
		c.cfg = nil
	}
	if c.codec != nil {
		C.free(unsafe.Pointer(c.codec))
		c.codec = nil
	}
}

// copyImage copies a 16-bit img into the context's vpx_image_t,
// reallocating it when the format or size changed.
func (c *context) copyImage(img *ports.VpxImage) error {
	if err := checkPlanes(img); err != nil {
		return err
	}
	if c.img == nil || c.imgFormat != img.Format || c.imgWidth != img.Width || c.imgHeight != img.Height {
		if err := c.allocImage(img.Format, img.Width, img.Height); err != nil {
			return err
		}
	}

	for p, g := range planeGeometry(img) {
		src, srcStride := img.Planes[p], img.Strides[p]
		dstStride := int(C.image_stride(c.img, C.int(p)))
		dst := unsafe.Slice((*byte)(unsafe.Pointer(C.image_plane(c.img, C.int(p)))), (g.rows-1)*dstStride+g.rowBytes)
		for row := 0; row < g.rows; row++ {
			copy(dst[row*dstStride:row*dstStride+g.rowBytes], src[row*srcStride:row*srcStride+g.rowBytes])
		}
	}
	return nil
}

type planeSize struct {
	rowBytes, rows int
}

// planeGeometry returns the bytes per row and rows of each plane libvpx
// reads. NV12 has two: its V plane aliases the interleaved UV plane.
func planeGeometry(img *ports.VpxImage) []planeSize {
	bps := 1
	if img.Format.HighBitDepth() {
		bps = 2
	}
	cw, ch := (img.Width+1)/2, (img.Height+1)/2
	if img.Format == ports.ImageFormatNV12 {
		return []planeSize{{img.Width, img.Height}, {2 * cw, ch}}
	}
	return []planeSize{{img.Width * bps, img.Height}, {cw * bps, ch}, {cw * bps, ch}}
}

func checkPlanes(img *ports.VpxImage) error {
	for p, g := range planeGeometry(img) {
		src, stride := img.Planes[p], img.Strides[p]
		if stride < g.rowBytes || len(src) < (g.rows-1)*stride+g.rowBytes {
			return fmt.Errorf("%w: plane %d", ErrImageTooSmall, p)
		}
	}
	return nil
}

func imageFormat(format ports.ImageFormat) (C.vpx_img_fmt_t, error) {
	switch format {
	case ports.ImageFormatI420:
		return C.VPX_IMG_FMT_I420, nil
	case ports.ImageFormatNV12:
		return C.VPX_IMG_FMT_NV12, nil
	case ports.ImageFormatI42016:
		return C.VPX_IMG_FMT_I42016, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedImageFormat, format)
}

func (c *context) allocImage(format ports.ImageFormat, width, height int) error {
	fmtC, err := imageFormat(format)
	if err != nil {
		return err
	}

	if c.img != nil {
		C.vpx_img_free(c.img)
		c.img = nil
	}
	img := C.vpx_img_alloc(nil, fmtC, C.uint(width), C.uint(height), 1)
	if img == nil {
		return fmt.Errorf("failed to allocate %s image %dx%d", format, width, height)
	}
	if format.HighBitDepth() {
		img.bit_depth = 16
	} else {
		img.bit_depth = 8
	}

	c.img = img
	c.imgFormat = format
	c.imgWidth = width
	c.imgHeight = height
	return nil
}

func codecError(res C.vpx_codec_err_t, codec *C.vpx_codec_ctx_t) error {
	err := &ports.VpxError{
		Code:    int(res),
		Message: C.GoString(C.vpx_codec_err_to_string(res)),
	}
	if codec != nil {
		if detail := C.vpx_codec_error_detail(codec); detail != nil {
			err.Detail = C.GoString(detail)
		}
	}
	return err
}

func configFromC(c *C.vpx_codec_enc_cfg_t) ports.VpxConfig {
	cfg := ports.VpxConfig{
		Profile:         uint(c.g_profile),
		Width:           uint(c.g_w),
		Height:          uint(c.g_h),
		TimebaseNum:     int(c.g_timebase.num),
		TimebaseDen:     int(c.g_timebase.den),
		Threads:         uint(c.g_threads),
		OnePass:         c.g_pass == C.VPX_RC_ONE_PASS,
		LagInFrames:     uint(c.g_lag_in_frames),
		ResizeAllowed:   c.rc_resize_allowed != 0,
		DropframeThresh: uint(c.rc_dropframe_thresh),
		TargetBitrate:   uint(c.rc_target_bitrate),
		KeyframeMinDist: uint(c.kf_min_dist),
		KeyframeMaxDist: uint(c.kf_max_dist),
		BitDepth:        uint(c.g_bit_depth),
		InputBitDepth:   uint(c.g_input_bit_depth),
	}

	switch c.rc_end_usage {
	case C.VPX_CBR:
		cfg.EndUsage = ports.RateControlCBR
	case C.VPX_CQ:
		cfg.EndUsage = ports.RateControlCQ
	case C.VPX_Q:
		cfg.EndUsage = ports.RateControlQ
	default:
		cfg.EndUsage = ports.RateControlVBR
	}

	if c.kf_mode == C.VPX_KF_AUTO {
		cfg.KeyframeMode = ports.KeyframeModeAuto
	} else {
		cfg.KeyframeMode = ports.KeyframeModeFixed
	}
	return cfg
}

// applyConfig writes the managed fields of cfg into c. Fields outside
// ports.VpxConfig keep their libvpx defaults.
func applyConfig(cfg ports.VpxConfig, c *C.vpx_codec_enc_cfg_t) {
	c.g_profile = C.uint(cfg.Profile)
	c.g_w = C.uint(cfg.Width)
	c.g_h = C.uint(cfg.Height)
	c.g_timebase.num = C.int(cfg.TimebaseNum)
	c.g_timebase.den = C.int(cfg.TimebaseDen)
	c.g_threads = C.uint(cfg.Threads)
	if cfg.OnePass {
		c.g_pass = C.VPX_RC_ONE_PASS
	}
	c.g_lag_in_frames = C.uint(cfg.LagInFrames)
	c.rc_resize_allowed = 0
	if cfg.ResizeAllowed {
		c.rc_resize_allowed = 1
	}
	c.rc_dropframe_thresh = C.uint(cfg.DropframeThresh)
	c.rc_target_bitrate = C.uint(cfg.TargetBitrate)

	switch cfg.EndUsage {
	case ports.RateControlCBR:
		c.rc_end_usage = C.VPX_CBR
	case ports.RateControlCQ:
		c.rc_end_usage = C.VPX_CQ
	case ports.RateControlQ:
		c.rc_end_usage = C.VPX_Q
	default:
		c.rc_end_usage = C.VPX_VBR
	}

	if cfg.KeyframeMode == ports.KeyframeModeAuto {
		c.kf_mode = C.VPX_KF_AUTO
	} else {
		c.kf_mode = C.VPX_KF_FIXED
	}
	c.kf_min_dist = C.uint(cfg.KeyframeMinDist)
	c.kf_max_dist = C.uint(cfg.KeyframeMaxDist)

	if cfg.BitDepth > 0 {
		c.g_bit_depth = C.vpx_bit_depth_t(cfg.BitDepth)
	}
	if cfg.InputBitDepth > 0 {
		c.g_input_bit_depth = C.uint(cfg.InputBitDepth)
	}
}

var (
	_ ports.VpxLibrary = (*Library)(nil)
	_ ports.VpxContext = (*context)(nil)
)
