// Package screencast captures a web page as video frames through the
// Chrome DevTools screencast API.
package screencast

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

var (
	// ErrChromeNotFound is returned when no Chrome executable is found.
	ErrChromeNotFound = errors.New("screencast: chrome not found, install Chrome/Chromium, set CHROME_PATH or pass --chrome-path")

	// ErrNotOpen is returned when frames are read before Open.
	ErrNotOpen = errors.New("screencast: source not open")
)

// Options configures the capture.
type Options struct {
	URL        string
	ChromePath string
	Headless   bool
	UserAgent  string

	// Viewport is the page size in CSS pixels.
	Viewport media.Size

	// Quality is the JPEG quality of screencast frames (1-100).
	Quality int

	// Duration bounds the capture.
	Duration time.Duration

	IgnoreHTTPSErrors bool
	ProxyServer       string
}

// Source implements ports.FrameSource over a Chrome screencast.
//
// Screencast frames arrive at an irregular rate, so frames carry no
// duration metadata and SourceInfo.Framerate is zero.
type Source struct {
	opts Options
	log  ports.Logger

	allocCancel context.CancelFunc
	cancel      context.CancelFunc
	ctx         context.Context

	frames   chan rawFrame
	navErr   chan error
	start    time.Time
	deadline time.Time

	mu      sync.Mutex
	active  bool
	dropped int
}

type rawFrame struct {
	data      []byte
	timestamp time.Duration
}

// New creates a screencast source.
func New(opts Options, log ports.Logger) *Source {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 80
	}
	return &Source{opts: opts, log: log.WithComponent("screencast")}
}

// Open launches Chrome, starts the screencast and begins loading the page.
func (s *Source) Open(ctx context.Context) (ports.SourceInfo, error) {
	if s.opts.Viewport.IsEmpty() {
		return ports.SourceInfo{}, fmt.Errorf("%w: viewport %s", media.ErrInvalidSize, s.opts.Viewport)
	}
	chromePath := ResolveChromePath(s.opts.ChromePath)
	if chromePath == "" {
		return ports.SourceInfo{}, ErrChromeNotFound
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, s.allocatorOptions(chromePath)...)
	s.ctx, s.cancel = chromedp.NewContext(allocCtx)
	s.allocCancel = allocCancel

	w, h := int64(s.opts.Viewport.Width), int64(s.opts.Viewport.Height)
	if err := chromedp.Run(s.ctx, emulation.SetDeviceMetricsOverride(w, h, 1, false)); err != nil {
		s.Close()
		return ports.SourceInfo{}, fmt.Errorf("set device metrics: %w", err)
	}

	s.frames = make(chan rawFrame, 64)
	s.navErr = make(chan error, 1)
	s.start = time.Now()
	if s.opts.Duration > 0 {
		s.deadline = s.start.Add(s.opts.Duration)
	}
	s.setActive(true)

	chromedp.ListenTarget(s.ctx, s.onEvent)
	if err := chromedp.Run(s.ctx,
		network.Enable(),
		page.StartScreencast().
			WithFormat(page.ScreencastFormatJpeg).
			WithQuality(int64(s.opts.Quality)).
			WithMaxWidth(w).
			WithMaxHeight(h).
			WithEveryNthFrame(1),
	); err != nil {
		s.Close()
		return ports.SourceInfo{}, fmt.Errorf("start screencast: %w", err)
	}

	go func() {
		s.navErr <- chromedp.Run(s.ctx, chromedp.Navigate(s.opts.URL))
	}()

	s.log.Debug("Screencast started: %s at %s", s.opts.URL, s.opts.Viewport)
	return ports.SourceInfo{FrameSize: s.opts.Viewport}, nil
}

func (s *Source) allocatorOptions(chromePath string) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.ExecPath(chromePath),
		chromedp.WindowSize(s.opts.Viewport.Width, s.opts.Viewport.Height),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("incognito", true),
	}
	if s.opts.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	if s.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.opts.UserAgent))
	}
	if s.opts.IgnoreHTTPSErrors {
		opts = append(opts,
			chromedp.Flag("ignore-certificate-errors", true),
			chromedp.Flag("allow-insecure-localhost", true))
	}
	if s.opts.ProxyServer != "" {
		opts = append(opts, chromedp.Flag("proxy-server", s.opts.ProxyServer))
	}
	return opts
}

func (s *Source) onEvent(ev interface{}) {
	e, ok := ev.(*page.EventScreencastFrame)
	if !ok {
		return
	}

	// Ack even when the frame is dropped, or Chrome stops sending.
	go chromedp.Run(s.ctx, page.ScreencastFrameAck(e.SessionID))

	data, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	select {
	case s.frames <- rawFrame{data: data, timestamp: time.Since(s.start)}:
	default:
		s.dropped++
	}
}

// Next returns the next screencast frame, or io.EOF once the capture
// duration has elapsed.
func (s *Source) Next(ctx context.Context) (*media.VideoFrame, error) {
	if s.frames == nil {
		return nil, ErrNotOpen
	}

	var timeout <-chan time.Time
	if !s.deadline.IsZero() {
		remaining := time.Until(s.deadline)
		if remaining <= 0 {
			return nil, io.EOF
		}
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, io.EOF
		case err := <-s.navErr:
			if err != nil {
				return nil, fmt.Errorf("navigate: %w", err)
			}
		case f, ok := <-s.frames:
			if !ok {
				return nil, io.EOF
			}
			return decodeFrame(f.data, f.timestamp)
		}
	}
}

// decodeFrame decodes a JPEG screencast frame. Baseline 4:2:0 JPEGs wrap
// as I420 without another copy.
func decodeFrame(data []byte, timestamp time.Duration) (*media.VideoFrame, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screencast frame: %w", err)
	}
	return media.WrapImage(img, timestamp), nil
}

// Dropped returns the number of frames dropped because the reader fell
// behind.
func (s *Source) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Source) setActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

// Close stops the screencast and shuts Chrome down.
func (s *Source) Close() error {
	s.setActive(false)
	if s.ctx != nil {
		stopCtx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
		_ = chromedp.Run(stopCtx, page.StopScreencast())
		cancel()
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	if dropped := s.Dropped(); dropped > 0 {
		s.log.Warn("Screencast dropped %d frames", dropped)
	}
	return nil
}

var _ ports.FrameSource = (*Source)(nil)
