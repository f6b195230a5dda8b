package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vpxenc/pkg/adapters/osfilesystem"
	"github.com/user/vpxenc/pkg/config"
)

const (
	categoryOutput   = "Output"
	categoryEncoding = "Encoding"
	categorySource   = "Source"
	categoryBrowser  = "Browser"
	categoryDebug    = "Debug"
	categoryLogging  = "Logging"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), EnvVars: []string{"VPXENC_CONFIG"}},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(categoryLogging)},
		&cli.StringFlag{Name: "log-format", Usage: l10n.T("Log format (console, text, json)"), Category: l10n.T(categoryLogging)},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(categoryLogging)},
		&cli.StringFlag{Name: "metrics-addr", Usage: l10n.T("Serve Prometheus metrics on this address (e.g. :9090)"), Category: l10n.T(categoryLogging)},
	}
}

func encodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output file path"), Category: l10n.T(categoryOutput)},
		&cli.StringFlag{Name: "container", Usage: l10n.T("Output container (ivf, mp4, rtp)"), Category: l10n.T(categoryOutput)},
		&cli.StringFlag{Name: "rtp-addr", Usage: l10n.T("Send RTP packets to this UDP address"), Category: l10n.T(categoryOutput)},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a markdown summary to this path"), Category: l10n.T(categoryOutput)},

		&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, Usage: l10n.T("Codec profile (vp8, vp9, vp9-0, vp9-2)"), Category: l10n.T(categoryEncoding)},
		&cli.StringFlag{Name: "size", Aliases: []string{"s"}, Usage: l10n.T("Encoded frame size WxH (default: source size)"), Category: l10n.T(categoryEncoding)},
		&cli.IntFlag{Name: "bitrate", Aliases: []string{"b"}, Usage: l10n.T("Target bitrate in bits per second (0 = variable)"), Category: l10n.T(categoryEncoding)},
		&cli.IntFlag{Name: "keyframe-interval", Usage: l10n.T("Maximum distance between keyframes in frames"), Category: l10n.T(categoryEncoding)},
		&cli.Float64Flag{Name: "framerate", Aliases: []string{"r"}, Usage: l10n.T("Frames per second"), Category: l10n.T(categoryEncoding)},
		&cli.IntFlag{Name: "force-keyframe-every", Usage: l10n.T("Force a keyframe every N frames"), Category: l10n.T(categoryEncoding)},
		&cli.IntFlag{Name: "max-frames", Usage: l10n.T("Stop after N frames"), Category: l10n.T(categoryEncoding)},
		&cli.StringSliceFlag{Name: "resize", Usage: l10n.T("Reconfigure at a frame: FRAME:WxH[:BITRATE] (repeatable)"), Category: l10n.T(categoryEncoding)},

		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Save the configuration, the first frame and every packet"), Category: l10n.T(categoryDebug)},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T(categoryDebug)},
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: l10n.T("Raw pixel format (i420, nv12, argb, abgr, ...)"), Category: l10n.T(categorySource)},
		&cli.StringFlag{Name: "input-size", Usage: l10n.T("Raw frame size WxH"), Category: l10n.T(categorySource)},
		&cli.BoolFlag{Name: "pattern", Usage: l10n.T("Encode a synthetic test pattern instead of a file"), Category: l10n.T(categorySource)},
		&cli.IntFlag{Name: "pattern-frames", Usage: l10n.T("Number of test pattern frames"), Category: l10n.T(categorySource)},
		&cli.StringFlag{Name: "font", Usage: l10n.T("TrueType font for the pattern frame counter"), Category: l10n.T(categorySource)},
	}
}

func captureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{Name: "duration", Value: defaultCaptureDuration, Usage: l10n.T("Capture duration"), Category: l10n.T(categoryBrowser)},
		&cli.StringFlag{Name: "viewport", Value: "1280x720", Usage: l10n.T("Browser viewport WxH"), Category: l10n.T(categoryBrowser)},
		&cli.IntFlag{Name: "quality", Value: 80, Usage: l10n.T("Screencast JPEG quality (1-100)"), Category: l10n.T(categoryBrowser)},
		&cli.StringFlag{Name: "chrome-path", Usage: l10n.T("Path to Chrome executable (falls back to CHROME_PATH env, then system default)"), Category: l10n.T(categoryBrowser)},
		&cli.BoolFlag{Name: "no-headless", Usage: l10n.T("Run browser in non-headless mode"), Category: l10n.T(categoryBrowser)},
		&cli.StringFlag{Name: "user-agent", Usage: l10n.T("Browser user agent"), Category: l10n.T(categoryBrowser)},
		&cli.BoolFlag{Name: "ignore-https-errors", Usage: l10n.T("Ignore HTTPS certificate errors"), Category: l10n.T(categoryBrowser)},
		&cli.StringFlag{Name: "proxy-server", Usage: l10n.T("HTTP proxy server (e.g., http://proxy:8080)"), Category: l10n.T(categoryBrowser)},
	}
}

// loadConfig reads the configuration file, if any, and applies every flag
// set on the command line on top of it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.LoadFromFile(osfilesystem.New(), path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}

	setString(c, "output", &cfg.OutputPath)
	setString(c, "container", &cfg.Container)
	setString(c, "rtp-addr", &cfg.RTP.Address)
	setString(c, "summary", &cfg.SummaryPath)
	setString(c, "profile", &cfg.Profile)
	setInt(c, "bitrate", &cfg.Bitrate)
	setInt(c, "keyframe-interval", &cfg.KeyframeInterval)
	setInt(c, "force-keyframe-every", &cfg.ForceKeyframeEvery)
	setInt(c, "max-frames", &cfg.MaxFrames)
	setString(c, "debug-dir", &cfg.DebugDir)
	setString(c, "format", &cfg.Raw.Format)
	setString(c, "input-size", &cfg.Raw.Size)
	setInt(c, "pattern-frames", &cfg.Pattern.Frames)
	setString(c, "font", &cfg.Pattern.FontPath)

	if c.IsSet("framerate") {
		cfg.Framerate = c.Float64("framerate")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("size") {
		w, h, err := parseWxH(c.String("size"))
		if err != nil {
			return cfg, err
		}
		cfg.Width, cfg.Height = w, h
	}
	if c.IsSet("resize") {
		cfg.Resizes = nil
		for _, arg := range c.StringSlice("resize") {
			r, err := parseResize(arg)
			if err != nil {
				return cfg, err
			}
			cfg.Resizes = append(cfg.Resizes, r)
		}
	}
	if c.Args().Present() {
		cfg.Input = c.Args().First()
	}
	if cfg.RTP.Address != "" && !c.IsSet("container") && cfg.OutputPath == "" {
		cfg.Container = "rtp"
	}

	return cfg, cfg.Validate()
}

func setString(c *cli.Context, name string, dst *string) {
	if c.IsSet(name) {
		*dst = c.String(name)
	}
}

func setInt(c *cli.Context, name string, dst *int) {
	if c.IsSet(name) {
		*dst = c.Int(name)
	}
}

func parseWxH(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, expected WxH", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q", s)
	}
	return w, h, nil
}

// parseResize parses FRAME:WxH[:BITRATE].
func parseResize(s string) (config.ResizeConfig, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return config.ResizeConfig{}, fmt.Errorf("invalid resize %q, expected FRAME:WxH[:BITRATE]", s)
	}
	frame, err := strconv.Atoi(parts[0])
	if err != nil || frame < 0 {
		return config.ResizeConfig{}, fmt.Errorf("invalid resize frame in %q", s)
	}
	r := config.ResizeConfig{AtFrame: frame, Size: parts[1]}
	if len(parts) == 3 {
		if r.Bitrate, err = strconv.Atoi(parts[2]); err != nil {
			return config.ResizeConfig{}, fmt.Errorf("invalid resize bitrate in %q", s)
		}
	}
	return r, nil
}
