// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/orchestrator"
	"github.com/user/vpxenc/pkg/pipeline"
	"github.com/user/vpxenc/pkg/ports"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config represents the full configuration for vpxenc.
type Config struct {
	// Input/Output
	Input      string        `yaml:"input"`
	OutputPath string        `yaml:"output"`
	Container  string        `yaml:"container"`
	Raw        RawConfig     `yaml:"raw"`
	Pattern    PatternConfig `yaml:"pattern"`
	RTP        RTPConfig     `yaml:"rtp"`

	// Encoding
	Profile            string         `yaml:"profile"`
	Width              int            `yaml:"width"`
	Height             int            `yaml:"height"`
	Bitrate            int            `yaml:"bitrate"` // bits per second
	KeyframeInterval   int            `yaml:"keyframe_interval"`
	Framerate          float64        `yaml:"framerate"`
	ForceKeyframeEvery int            `yaml:"force_keyframe_every"`
	MaxFrames          int            `yaml:"max_frames"`
	Resizes            []ResizeConfig `yaml:"resizes"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // console, text or json

	// Metrics
	MetricsAddr string `yaml:"metrics_addr"`

	// Output extras
	SummaryPath string `yaml:"summary"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// RawConfig describes a raw planar input file.
type RawConfig struct {
	Format string `yaml:"format"`
	Size   string `yaml:"size"`
}

// PatternConfig configures the synthetic test pattern.
type PatternConfig struct {
	Size     string `yaml:"size"`
	Frames   int    `yaml:"frames"`
	FontPath string `yaml:"font_path"`
}

// RTPConfig configures RTP output.
type RTPConfig struct {
	Address     string `yaml:"address"`
	MTU         int    `yaml:"mtu"`
	PayloadType int    `yaml:"payload_type"`
	SSRC        uint32 `yaml:"ssrc"`
}

// ResizeConfig schedules a ChangeOptions call.
type ResizeConfig struct {
	AtFrame int    `yaml:"at_frame"`
	Size    string `yaml:"size"`
	Bitrate int    `yaml:"bitrate"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Container: "ivf",
		Raw: RawConfig{
			Format: "i420",
		},
		Pattern: PatternConfig{
			Size:   "640x360",
			Frames: 150,
		},
		RTP: RTPConfig{
			MTU:         1200,
			PayloadType: 96,
		},

		Profile:   "vp8",
		Framerate: 30.0,

		LogLevel:  "info",
		LogFormat: "console",

		DebugDir: "./debug",
	}
}

// Load parses YAML on top of the defaults.
func Load(data []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(fs ports.FileSystem, path string) (Config, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	return Load(data)
}

// Validate checks the values that flag parsing cannot.
func (c Config) Validate() error {
	if _, err := ports.ParseProfile(c.Profile); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Container) {
	case "ivf", "mp4", "rtp":
	default:
		return fmt.Errorf("%w: unknown container %q", ErrInvalidConfig, c.Container)
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.LogFormat {
	case "console", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.Width < 0 || c.Height < 0 || (c.Width == 0) != (c.Height == 0) {
		return fmt.Errorf("%w: width and height must be set together", ErrInvalidConfig)
	}
	if c.Bitrate < 0 || c.KeyframeInterval < 0 || c.Framerate < 0 || c.ForceKeyframeEvery < 0 {
		return fmt.Errorf("%w: negative encoder option", ErrInvalidConfig)
	}
	if strings.EqualFold(c.Container, "rtp") && c.RTP.Address == "" {
		return fmt.Errorf("%w: rtp output needs an address", ErrInvalidConfig)
	}
	if c.RTP.MTU < 0 || c.RTP.MTU > 65535 || c.RTP.PayloadType < 0 || c.RTP.PayloadType > 127 {
		return fmt.Errorf("%w: rtp mtu or payload type out of range", ErrInvalidConfig)
	}
	for _, r := range c.Resizes {
		if _, err := media.ParseSize(r.Size); err != nil {
			return fmt.Errorf("%w: resize at frame %d: %v", ErrInvalidConfig, r.AtFrame, err)
		}
	}
	return nil
}

// EncoderOptions returns the encoder options described by c.
func (c Config) EncoderOptions() ports.EncoderOptions {
	return ports.EncoderOptions{
		FrameSize:        media.Size{Width: c.Width, Height: c.Height},
		Bitrate:          c.Bitrate,
		KeyframeInterval: c.KeyframeInterval,
		Framerate:        c.Framerate,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config. Validate
// must have succeeded.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	profile, _ := ports.ParseProfile(c.Profile)

	var resizes []pipeline.Resize
	for _, r := range c.Resizes {
		size, _ := media.ParseSize(r.Size)
		resizes = append(resizes, pipeline.Resize{
			AtFrame:   r.AtFrame,
			FrameSize: size,
			Bitrate:   r.Bitrate,
		})
	}

	return orchestrator.Config{
		OutputPath:  c.OutputPath,
		Container:   strings.ToLower(c.Container),
		SummaryPath: c.SummaryPath,

		Profile:            profile,
		Options:            c.EncoderOptions(),
		ForceKeyframeEvery: c.ForceKeyframeEvery,
		Resizes:            resizes,
		MaxFrames:          c.MaxFrames,
	}
}
