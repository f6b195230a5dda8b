package mp4muxer

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/bits"
	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

// VPCodecConfigBox is the VP codec configuration box (vpcC, version 1)
// carried inside vp08 and vp09 sample entries.
type VPCodecConfigBox struct {
	Profile                 uint8
	Level                   uint8
	BitDepth                uint8
	ChromaSubsampling       uint8
	VideoFullRangeFlag      uint8
	ColourPrimaries         uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8
	CodecInitData           []byte
}

// Chroma subsampling values of the vpcC box.
const (
	chroma420Vertical  = 0
	chroma420Colocated = 1
)

// Colour description codes (ISO/IEC 23091-2) for BT.601 limited range.
const (
	colourPrimariesBT601 = 6
	transferBT601        = 6
	matrixBT601          = 6
)

// newVPCodecConfig derives the configuration record for a stream.
func newVPCodecConfig(profile ports.Profile, size media.Size) *VPCodecConfigBox {
	box := &VPCodecConfigBox{
		BitDepth:                8,
		ChromaSubsampling:       chroma420Colocated,
		ColourPrimaries:         colourPrimariesBT601,
		TransferCharacteristics: transferBT601,
		MatrixCoefficients:      matrixBT601,
	}
	switch profile {
	case ports.ProfileVP9Profile0:
		box.Level = vp9Level(size)
	case ports.ProfileVP9Profile2:
		box.Profile = 2
		box.BitDepth = 10
		box.Level = vp9Level(size)
	}
	return box
}

// vp9Level picks the lowest VP9 level whose maximum picture size holds size.
func vp9Level(size media.Size) uint8 {
	levels := []struct {
		maxArea int
		level   uint8
	}{
		{36864, 10},
		{73728, 11},
		{122880, 20},
		{245760, 21},
		{552960, 30},
		{983040, 31},
		{2228224, 40},
		{8912896, 50},
		{35651584, 60},
	}
	area := size.Width * size.Height
	for _, l := range levels {
		if area <= l.maxArea {
			return l.level
		}
	}
	return 62
}

func (b *VPCodecConfigBox) Type() string {
	return "vpcC"
}

func (b *VPCodecConfigBox) Size() uint64 {
	// header + version/flags + 8 fixed bytes + init data size + init data
	return uint64(8 + 4 + 6 + 2 + len(b.CodecInitData))
}

func (b *VPCodecConfigBox) payload() []byte {
	size := b.Size()
	out := make([]byte, size)
	binary.BigEndian.PutUint32(out[0:], uint32(size))
	copy(out[4:8], b.Type())
	out[8] = 1 // version, flags zero
	out[12] = b.Profile
	out[13] = b.Level
	out[14] = b.BitDepth<<4 | (b.ChromaSubsampling&0x07)<<1 | b.VideoFullRangeFlag&0x01
	out[15] = b.ColourPrimaries
	out[16] = b.TransferCharacteristics
	out[17] = b.MatrixCoefficients
	binary.BigEndian.PutUint16(out[18:], uint16(len(b.CodecInitData)))
	copy(out[20:], b.CodecInitData)
	return out
}

func (b *VPCodecConfigBox) Encode(w io.Writer) error {
	_, err := w.Write(b.payload())
	return err
}

func (b *VPCodecConfigBox) EncodeSW(sw bits.SliceWriter) error {
	sw.WriteBytes(b.payload())
	return sw.AccError()
}

func (b *VPCodecConfigBox) Info(w io.Writer, specificBoxLevels, indent, indentStep string) error {
	_, err := fmt.Fprintf(w, "%s[%s] size=%d\n%s%s - profile: %d\n%s%s - level: %d\n%s%s - bitDepth: %d\n",
		indent, b.Type(), b.Size(),
		indent, indentStep, b.Profile,
		indent, indentStep, b.Level,
		indent, indentStep, b.BitDepth)
	return err
}

// parseVPCodecConfig reads a vpcC payload (after the box header).
func parseVPCodecConfig(data []byte) (*VPCodecConfigBox, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("vpcC too short: %d bytes", len(data))
	}
	b := &VPCodecConfigBox{
		Profile:                 data[4],
		Level:                   data[5],
		BitDepth:                data[6] >> 4,
		ChromaSubsampling:       (data[6] >> 1) & 0x07,
		VideoFullRangeFlag:      data[6] & 0x01,
		ColourPrimaries:         data[7],
		TransferCharacteristics: data[8],
		MatrixCoefficients:      data[9],
	}
	n := int(binary.BigEndian.Uint16(data[10:]))
	if len(data) < 12+n {
		return nil, fmt.Errorf("vpcC init data truncated")
	}
	b.CodecInitData = data[12 : 12+n]
	return b, nil
}

var _ mp4.Box = (*VPCodecConfigBox)(nil)
