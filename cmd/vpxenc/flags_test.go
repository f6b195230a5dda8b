package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/user/vpxenc/pkg/config"
)

func TestParseResize(t *testing.T) {
	r, err := parseResize("30:320x240:250000")
	if err != nil {
		t.Fatal(err)
	}
	if r.AtFrame != 30 || r.Size != "320x240" || r.Bitrate != 250000 {
		t.Errorf("unexpected resize %+v", r)
	}

	r, err = parseResize("5:160x120")
	if err != nil {
		t.Fatal(err)
	}
	if r.Bitrate != 0 {
		t.Errorf("expected bitrate to stay unset, got %d", r.Bitrate)
	}

	for _, bad := range []string{"", "30", "x:320x240", "-1:320x240", "1:2:3:4", "1:320x240:fast"} {
		if _, err := parseResize(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestParseWxH(t *testing.T) {
	w, h, err := parseWxH("1280X720")
	if err != nil || w != 1280 || h != 720 {
		t.Errorf("expected 1280x720, got %dx%d (%v)", w, h, err)
	}
	if _, _, err := parseWxH("1280"); err == nil {
		t.Error("expected error without separator")
	}
}

// runWithFlags parses args as an encode command and returns the merged
// configuration.
func runWithFlags(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	var cfg config.Config
	var loadErr error
	app := &cli.App{
		Name:  "vpxenc",
		Flags: globalFlags(),
		Commands: []*cli.Command{{
			Name:  "encode",
			Flags: append(encodeFlags(), sourceFlags()...),
			Action: func(c *cli.Context) error {
				cfg, loadErr = loadConfig(c)
				return nil
			},
		}},
	}
	if err := app.Run(append([]string{"vpxenc"}, args...)); err != nil {
		t.Fatalf("app failed: %v", err)
	}
	return cfg, loadErr
}

func TestLoadConfig_Flags(t *testing.T) {
	cfg, err := runWithFlags(t,
		"--log-format", "json",
		"encode",
		"-o", "out.mp4", "--container", "mp4",
		"-p", "vp9", "-s", "640x360", "-b", "900000",
		"--force-keyframe-every", "60",
		"--resize", "10:320x180", "--resize", "20:160x90:100000",
		"--format", "nv12", "--input-size", "1280x720",
		"in.yuv",
	)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.LogFormat != "json" || cfg.OutputPath != "out.mp4" || cfg.Container != "mp4" {
		t.Errorf("unexpected output settings %+v", cfg)
	}
	if cfg.Profile != "vp9" || cfg.Width != 640 || cfg.Height != 360 || cfg.Bitrate != 900000 {
		t.Errorf("unexpected encoder settings %+v", cfg)
	}
	if cfg.ForceKeyframeEvery != 60 || len(cfg.Resizes) != 2 || cfg.Resizes[1].Bitrate != 100000 {
		t.Errorf("unexpected keyframe/resize settings %+v", cfg)
	}
	if cfg.Input != "in.yuv" || cfg.Raw.Format != "nv12" || cfg.Raw.Size != "1280x720" {
		t.Errorf("unexpected source settings %+v", cfg.Raw)
	}
	if cfg.Framerate != 30 {
		t.Errorf("expected default framerate, got %f", cfg.Framerate)
	}
}

func TestLoadConfig_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vpxenc.yaml")
	if err := os.WriteFile(path, []byte("profile: vp9-2\nbitrate: 1000000\noutput: file.ivf\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := runWithFlags(t, "--config", path, "encode", "-b", "2000000")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Profile != "vp9-2" || cfg.OutputPath != "file.ivf" {
		t.Errorf("expected file values, got %+v", cfg)
	}
	if cfg.Bitrate != 2000000 {
		t.Errorf("expected flag to override the file, got %d", cfg.Bitrate)
	}
}

func TestLoadConfig_RTPOnly(t *testing.T) {
	cfg, err := runWithFlags(t, "encode", "--rtp-addr", "127.0.0.1:5004")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Container != "rtp" {
		t.Errorf("expected rtp container, got %s", cfg.Container)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := runWithFlags(t, "encode", "-p", "h264"); err == nil {
		t.Error("expected invalid profile to be rejected")
	}
	if _, err := runWithFlags(t, "encode", "-s", "big"); err == nil {
		t.Error("expected invalid size to be rejected")
	}
}
