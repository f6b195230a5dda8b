// Package containerprobe inspects IVF and MP4 files produced by the encoder.
package containerprobe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/pion/webrtc/v3/pkg/media/ivfreader"

	"github.com/user/vpxenc/pkg/adapters/mp4muxer"
	"github.com/user/vpxenc/pkg/ports"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecVP8     Codec = "vp8"
	CodecVP9     Codec = "vp9"
	CodecH264    Codec = "h264"
	CodecAV1     Codec = "av1"
	CodecUnknown Codec = "unknown"
)

// Container names.
const (
	ContainerIVF = "ivf"
	ContainerMP4 = "mp4"
)

// ErrNoVideoTrack is returned when no video track is found.
var ErrNoVideoTrack = errors.New("containerprobe: no video track found")

// sample_is_non_sync_sample in ISO/IEC 14496-12 sample flags.
const nonSyncSampleBit = 0x00010000

// Info summarizes a container.
type Info struct {
	Container string
	Codec     Codec
	Width     int
	Height    int
	Frames    int
	Keyframes int
	Duration  time.Duration
	Bytes     int64

	// VPConfig is the vpcC record of MP4 files, when present.
	VPConfig *mp4muxer.VPCodecConfigBox
}

// ProbeFile inspects the file at path.
func ProbeFile(fs ports.FileSystem, path string) (Info, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("read file: %w", err)
	}
	return ProbeBytes(data)
}

// ProbeBytes inspects an IVF or MP4 file held in memory.
func ProbeBytes(data []byte) (Info, error) {
	var info Info
	var err error
	if len(data) >= 4 && string(data[:4]) == "DKIF" {
		info, err = probeIVF(bytes.NewReader(data))
	} else {
		info, err = probeMP4(bytes.NewReader(data))
	}
	info.Bytes = int64(len(data))
	return info, err
}

func probeIVF(r io.Reader) (Info, error) {
	reader, header, err := ivfreader.NewWith(r)
	if err != nil {
		return Info{}, fmt.Errorf("decode ivf: %w", err)
	}

	info := Info{
		Container: ContainerIVF,
		Codec:     codecFromFourCC(header.FourCC),
		Width:     int(header.Width),
		Height:    int(header.Height),
	}

	var first, last uint64
	for {
		frame, fh, err := reader.ParseNextFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return info, fmt.Errorf("read ivf frame %d: %w", info.Frames, err)
		}
		if info.Frames == 0 {
			first = fh.Timestamp
		}
		last = fh.Timestamp
		info.Frames++
		if isKeyframe(info.Codec, frame) {
			info.Keyframes++
		}
	}

	if info.Frames > 0 && header.TimebaseDenominator > 0 {
		ticks := last - first
		info.Duration = time.Duration(ticks * uint64(header.TimebaseNumerator) * uint64(time.Second) / uint64(header.TimebaseDenominator))
	}
	return info, nil
}

func codecFromFourCC(fourcc string) Codec {
	switch fourcc {
	case "VP80":
		return CodecVP8
	case "VP90":
		return CodecVP9
	case "AV01":
		return CodecAV1
	}
	return CodecUnknown
}

// isKeyframe reads the frame type from the uncompressed header.
func isKeyframe(codec Codec, frame []byte) bool {
	if len(frame) == 0 {
		return false
	}
	b := frame[0]
	switch codec {
	case CodecVP8:
		// frame_type is bit 0 of the frame tag, 0 for key frames.
		return b&0x01 == 0
	case CodecVP9:
		if b>>6 != 2 {
			return false
		}
		profile := (b>>5)&1 | (b>>4)&1<<1
		shift := uint(3)
		if profile == 3 {
			// reserved_zero bit
			shift = 2
		}
		showExisting := (b >> shift) & 1
		frameType := (b >> (shift - 1)) & 1
		return showExisting == 0 && frameType == 0
	}
	return false
}

func probeMP4(r io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	info := Info{Container: ContainerMP4, Codec: CodecUnknown}

	var traks []*mp4.TrakBox
	var trexs []*mp4.TrexBox
	if mp4File.Init != nil && mp4File.Init.Moov != nil {
		traks = mp4File.Init.Moov.Traks
		if mp4File.Init.Moov.Mvex != nil {
			trexs = mp4File.Init.Moov.Mvex.Trexs
		}
	} else if mp4File.Moov != nil {
		traks = mp4File.Moov.Traks
	}

	var video *mp4.TrakBox
	for _, trak := range traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			video = trak
			break
		}
	}
	if video == nil {
		return info, ErrNoVideoTrack
	}

	trackID := video.Tkhd.TrackID
	info.Width = int(video.Tkhd.Width >> 16)
	info.Height = int(video.Tkhd.Height >> 16)
	detectCodecFromTrack(video, &info)

	timescale := uint32(1000)
	if video.Mdia.Mdhd != nil && video.Mdia.Mdhd.Timescale > 0 {
		timescale = video.Mdia.Mdhd.Timescale
	}

	var trex *mp4.TrexBox
	for _, t := range trexs {
		if t.TrackID == trackID {
			trex = t
			break
		}
	}

	var total uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return info, fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				info.Frames++
				if s.Flags&nonSyncSampleBit == 0 {
					info.Keyframes++
				}
				total += uint64(s.Dur)
			}
		}
	}
	info.Duration = time.Duration(total * uint64(time.Second) / uint64(timescale))
	return info, nil
}

func detectCodecFromTrack(trak *mp4.TrakBox, info *Info) {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "vp08":
			info.Codec = CodecVP8
		case "vp09":
			info.Codec = CodecVP9
		case "avc1", "avc3":
			info.Codec = CodecH264
		case "av01":
			info.Codec = CodecAV1
		default:
			continue
		}

		if entry, ok := child.(*mp4.VisualSampleEntryBox); ok {
			info.VPConfig = findVPConfig(entry.Children)
		}
		return
	}
}

func findVPConfig(children []mp4.Box) *mp4muxer.VPCodecConfigBox {
	for _, c := range children {
		if c.Type() != "vpcC" {
			continue
		}
		var buf bytes.Buffer
		if err := c.Encode(&buf); err != nil {
			return nil
		}
		cfg, err := mp4muxer.ParseVPCodecConfig(buf.Bytes())
		if err != nil {
			return nil
		}
		return cfg
	}
	return nil
}
