package vpxencoder

import (
	"math"
	"math/bits"
	"runtime"

	"github.com/user/vpxenc/pkg/ports"
)

// numCPU is replaced in tests.
var numCPU = runtime.NumCPU

const microsecondsPerSecond = 1000000

// numberOfThreads picks the encoder thread count for a frame width,
// clamped to the number of logical processors.
func numberOfThreads(width int) int {
	// One thread below VGA.
	threads := 1
	switch {
	case width >= 3840:
		threads = 16
	case width >= 2560:
		threads = 8
	case width >= 1280:
		threads = 4
	case width >= 640:
		threads = 2
	}

	if n := numCPU(); n >= 1 && threads > n {
		threads = n
	}
	return threads
}

// log2TileColumns returns the VP9 tile column count in log2 units. A tile
// column is at least 256 pixels wide.
func log2TileColumns(width uint) int {
	columns := width / 256
	if columns == 0 {
		return 0
	}
	return bits.Len(columns) - 1
}

// setUpVpxConfig applies options on top of cfg. cfg is left untouched when
// the options are rejected.
func setUpVpxConfig(opts ports.EncoderOptions, cfg *ports.VpxConfig) error {
	size := opts.FrameSize
	if size.Width <= 0 || size.Height <= 0 {
		return newStatus(CodeUnsupportedConfig, "Negative width or height values.")
	}
	area, ok := size.CheckedArea()
	if !ok {
		return newStatus(CodeUnsupportedConfig, "Frame is too large.")
	}

	cfg.OnePass = true
	cfg.LagInFrames = 0
	cfg.ResizeAllowed = false
	cfg.DropframeThresh = 0
	cfg.TimebaseNum = 1
	cfg.TimebaseDen = microsecondsPerSecond

	cfg.Threads = uint(numberOfThreads(size.Width))

	if opts.KeyframeInterval > 0 {
		cfg.KeyframeMode = ports.KeyframeModeAuto
		cfg.KeyframeMinDist = 0
		cfg.KeyframeMaxDist = uint(opts.KeyframeInterval)
	}

	if opts.Bitrate > 0 {
		cfg.EndUsage = ports.RateControlCBR
		cfg.TargetBitrate = uint(opts.Bitrate / 1000)
	} else {
		// Scale the previous target by the ratio of the new area to the
		// previous frame size.
		cfg.EndUsage = ports.RateControlVBR
		if cfg.Width > 0 && cfg.Height > 0 {
			scaled := float64(area) / float64(cfg.Width) / float64(cfg.Height) * float64(cfg.TargetBitrate)
			cfg.TargetBitrate = uint(math.Min(scaled, math.MaxUint32))
		}
	}

	cfg.Width = uint(size.Width)
	cfg.Height = uint(size.Height)
	return nil
}
