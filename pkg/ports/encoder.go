package ports

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/vpxenc/pkg/media"
)

// Profile identifies the codec and bitstream profile to encode.
type Profile int

const (
	ProfileUnknown Profile = iota
	ProfileVP8
	// ProfileVP9Profile0 is 8-bit 4:2:0.
	ProfileVP9Profile0
	// ProfileVP9Profile1 is 8-bit 4:2:2/4:4:4.
	ProfileVP9Profile1
	// ProfileVP9Profile2 is 10/12-bit 4:2:0.
	ProfileVP9Profile2
	// ProfileVP9Profile3 is 10/12-bit 4:2:2/4:4:4.
	ProfileVP9Profile3
)

var profileNames = []struct {
	profile Profile
	name    string
}{
	{ProfileVP8, "vp8"},
	{ProfileVP9Profile0, "vp9"},
	{ProfileVP9Profile0, "vp9-0"},
	{ProfileVP9Profile1, "vp9-1"},
	{ProfileVP9Profile2, "vp9-2"},
	{ProfileVP9Profile3, "vp9-3"},
}

// String returns the canonical profile name.
func (p Profile) String() string {
	switch p {
	case ProfileVP8:
		return "vp8"
	case ProfileVP9Profile0:
		return "vp9-0"
	case ProfileVP9Profile1:
		return "vp9-1"
	case ProfileVP9Profile2:
		return "vp9-2"
	case ProfileVP9Profile3:
		return "vp9-3"
	}
	return fmt.Sprintf("profile(%d)", int(p))
}

// IsVP9 reports whether the profile belongs to VP9.
func (p Profile) IsVP9() bool {
	return p >= ProfileVP9Profile0 && p <= ProfileVP9Profile3
}

// ParseProfile parses "vp8", "vp9" or "vp9-N".
func ParseProfile(s string) (Profile, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range profileNames {
		if p.name == s {
			return p.profile, nil
		}
	}
	return ProfileUnknown, fmt.Errorf("unknown profile %q", s)
}

// EncoderOptions configures a video encoder. Zero values mean "not set".
type EncoderOptions struct {
	FrameSize media.Size

	// Bitrate is the target bitrate in bits per second. When unset the
	// encoder uses variable bitrate scaled by the frame area.
	Bitrate int

	// KeyframeInterval is the maximum distance between keyframes in frames.
	KeyframeInterval int

	// Framerate in frames per second, used to derive frame durations.
	Framerate float64
}

// EncodedOutput is one compressed frame produced by an encoder.
type EncodedOutput struct {
	Data      []byte
	Timestamp time.Duration
	Keyframe  bool
}

// OutputCB receives encoded outputs. The receiver owns the data.
type OutputCB func(out EncodedOutput)

// VideoEncoder abstracts a frame-at-a-time video encoder.
//
// Every method completes before returning. Outputs produced by a call are
// delivered through the output callback before that call returns.
type VideoEncoder interface {
	// Initialize configures the encoder. It may only succeed once.
	Initialize(profile Profile, opts EncoderOptions, output OutputCB) error

	// Encode compresses one frame, forcing a keyframe when requested.
	Encode(frame *media.VideoFrame, keyframe bool) error

	// ChangeOptions reconfigures a running encoder. A nil output keeps the
	// current callback. On failure the previous configuration stays active.
	ChangeOptions(opts EncoderOptions, output OutputCB) error

	// Flush drains every frame buffered inside the encoder.
	Flush() error

	// Close releases the encoder.
	Close() error
}
