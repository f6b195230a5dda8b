package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vpxenc/pkg/adapters/containerprobe"
	"github.com/user/vpxenc/pkg/adapters/filesink"
	"github.com/user/vpxenc/pkg/adapters/ivfmuxer"
	"github.com/user/vpxenc/pkg/adapters/libvpx"
	"github.com/user/vpxenc/pkg/adapters/logger"
	"github.com/user/vpxenc/pkg/adapters/mp4muxer"
	"github.com/user/vpxenc/pkg/adapters/nullsink"
	"github.com/user/vpxenc/pkg/adapters/osfilesystem"
	"github.com/user/vpxenc/pkg/adapters/patternsource"
	"github.com/user/vpxenc/pkg/adapters/rawsource"
	"github.com/user/vpxenc/pkg/adapters/rtpsink"
	"github.com/user/vpxenc/pkg/adapters/screencast"
	"github.com/user/vpxenc/pkg/adapters/vpxencoder"
	"github.com/user/vpxenc/pkg/config"
	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/metrics"
	"github.com/user/vpxenc/pkg/orchestrator"
	"github.com/user/vpxenc/pkg/pipeline"
	"github.com/user/vpxenc/pkg/ports"
	"github.com/user/vpxenc/pkg/stages/encode"
)

const defaultCaptureDuration = 10 * time.Second

func newLogger(cfg config.Config, quiet bool) ports.Logger {
	if quiet {
		return logger.NewNoop()
	}
	// Validate has already rejected unknown levels.
	level, _ := ports.ParseLogLevel(cfg.LogLevel)
	switch cfg.LogFormat {
	case "json":
		return logger.NewLogrus(level, logger.FormatJSON)
	case "text":
		return logger.NewLogrus(level, logger.FormatText)
	default:
		return logger.NewConsole(level)
	}
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func runEncode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg, c.Bool("quiet"))
	fs := osfilesystem.New()

	var source ports.FrameSource
	var kind, desc string
	if c.Bool("pattern") || cfg.Input == "" {
		size, err := media.ParseSize(cfg.Pattern.Size)
		if err != nil {
			return err
		}
		source = patternsource.New(patternsource.Options{
			FrameSize:       size,
			Framerate:       cfg.Framerate,
			Frames:          cfg.Pattern.Frames,
			DeclareDuration: true,
			FontPath:        cfg.Pattern.FontPath,
		})
		kind, desc = "pattern", size.String()
	} else {
		format, err := media.ParsePixelFormat(cfg.Raw.Format)
		if err != nil {
			return err
		}
		size, err := media.ParseSize(cfg.Raw.Size)
		if err != nil {
			return fmt.Errorf("raw input needs --input-size: %w", err)
		}
		source = rawsource.New(fs, rawsource.Options{
			Path:      cfg.Input,
			Format:    format,
			FrameSize: size,
			Framerate: cfg.Framerate,
		})
		kind, desc = "raw", cfg.Input
	}

	return encodeSource(cfg, log, fs, source, kind, desc)
}

func runCapture(c *cli.Context) error {
	if !c.Args().Present() {
		return errors.New(l10n.T("capture needs a URL"))
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(cfg, c.Bool("quiet"))

	viewport, err := media.ParseSize(c.String("viewport"))
	if err != nil {
		return err
	}
	// Screencast frames arrive at an irregular rate.
	if !c.IsSet("framerate") {
		cfg.Framerate = 0
	}

	url := c.Args().First()
	source := screencast.New(screencast.Options{
		URL:               url,
		ChromePath:        c.String("chrome-path"),
		Headless:          !c.Bool("no-headless"),
		UserAgent:         c.String("user-agent"),
		Viewport:          viewport,
		Quality:           c.Int("quality"),
		Duration:          c.Duration("duration"),
		IgnoreHTTPSErrors: c.Bool("ignore-https-errors"),
		ProxyServer:       c.String("proxy-server"),
	}, log)

	return encodeSource(cfg, log, osfilesystem.New(), source, "screencast", url)
}

// encodeSource wires the encoder, muxers and sinks and runs the pipeline.
func encodeSource(cfg config.Config, log ports.Logger, fs ports.FileSystem, source ports.FrameSource, kind, desc string) error {
	if cfg.Container != "rtp" && cfg.OutputPath == "" {
		return errors.New(l10n.T("--output is required for ivf and mp4 containers"))
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	var encoder ports.VideoEncoder = vpxencoder.New(libvpx.New(), log)
	if cfg.MetricsAddr != "" {
		m := metrics.New()
		encoder = metrics.Instrument(encoder, m)
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error("Metrics server failed: %v", err)
			}
		}()
		log.Info("Serving metrics on %s", cfg.MetricsAddr)
	}

	muxer, closeMuxer, err := buildMuxer(cfg, log)
	if err != nil {
		return err
	}
	defer closeMuxer()

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs)
	} else {
		sink = nullsink.New()
	}

	orch := orchestrator.New(encode.NewStage(encoder, muxer, sink, log), fs, sink, log)

	orchConfig := cfg.ToOrchestratorConfig()
	orchConfig.SourceKind = kind
	orchConfig.SourceDescription = desc
	orchConfig.Version = version
	if orchConfig.Container == "rtp" {
		orchConfig.OutputPath = ""
	}

	log.Info("Encoding %s to %s (%s)", desc, describeOutput(cfg), orchConfig.Profile)
	result, err := orch.Run(ctx, source, orchConfig)
	if err != nil {
		return err
	}
	log.Info("Encoded %d frames in %v", result.Frames, result.Elapsed.Round(time.Millisecond))
	return nil
}

// buildMuxer returns the container muxer, teed with RTP when an address
// is set.
func buildMuxer(cfg config.Config, log ports.Logger) (ports.Muxer, func(), error) {
	var muxers []ports.Muxer
	switch cfg.Container {
	case "ivf":
		muxers = append(muxers, ivfmuxer.New())
	case "mp4":
		muxers = append(muxers, mp4muxer.New())
	}

	closer := func() {}
	if cfg.RTP.Address != "" {
		conn, err := net.Dial("udp", cfg.RTP.Address)
		if err != nil {
			return nil, nil, fmt.Errorf("dial rtp: %w", err)
		}
		sink := rtpsink.New(conn, rtpsink.Options{
			MTU:         uint16(cfg.RTP.MTU),
			PayloadType: uint8(cfg.RTP.PayloadType),
			SSRC:        cfg.RTP.SSRC,
		})
		muxers = append(muxers, sink)
		closer = func() {
			packets, bytes := sink.Stats()
			log.Info("Sent %d RTP packets (%d bytes) to %s", packets, bytes, cfg.RTP.Address)
			conn.Close()
		}
	}

	if len(muxers) == 1 {
		return muxers[0], closer, nil
	}
	return pipeline.Tee(muxers...), closer, nil
}

func describeOutput(cfg config.Config) string {
	switch {
	case cfg.Container == "rtp":
		return "rtp://" + cfg.RTP.Address
	case cfg.RTP.Address != "":
		return cfg.OutputPath + " + rtp://" + cfg.RTP.Address
	default:
		return cfg.OutputPath
	}
}

func runProbe(c *cli.Context) error {
	if !c.Args().Present() {
		return errors.New(l10n.T("probe needs a file"))
	}
	path := c.Args().First()
	info, err := containerprobe.ProbeFile(osfilesystem.New(), path)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintln(w, l10n.F("File: %s", path))
	fmt.Fprintln(w, l10n.F("Container: %s", info.Container))
	fmt.Fprintln(w, l10n.F("Codec: %s", info.Codec))
	fmt.Fprintln(w, l10n.F("Size: %dx%d", info.Width, info.Height))
	fmt.Fprintln(w, l10n.F("Frames: %d (%d keyframes)", info.Frames, info.Keyframes))
	fmt.Fprintln(w, l10n.F("Duration: %v", info.Duration))
	if info.VPConfig != nil {
		fmt.Fprintln(w, l10n.F("VP profile %d, level %d, %d-bit", info.VPConfig.Profile, info.VPConfig.Level, info.VPConfig.BitDepth))
	}
	return nil
}
