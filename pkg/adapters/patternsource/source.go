// Package patternsource renders a synthetic test pattern with the gg library.
package patternsource

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/fogleman/gg"

	"github.com/user/vpxenc/pkg/media"
	"github.com/user/vpxenc/pkg/ports"
)

// ErrInvalidOptions is returned for empty sizes or non-positive framerates.
var ErrInvalidOptions = errors.New("patternsource: invalid options")

// SMPTE-style colour bars, left to right.
var bars = []color.RGBA{
	{192, 192, 192, 255},
	{192, 192, 0, 255},
	{0, 192, 192, 255},
	{0, 192, 0, 255},
	{192, 0, 192, 255},
	{192, 0, 0, 255},
	{0, 0, 192, 255},
}

// Options configures the pattern.
type Options struct {
	FrameSize media.Size
	Framerate float64
	Frames    int

	// DeclareDuration attaches the frame duration as metadata.
	DeclareDuration bool

	// FontPath loads a TrueType face for the frame counter when set.
	FontPath string
}

// Source implements ports.FrameSource.
type Source struct {
	opts  Options
	index int
	open  bool
}

// New creates a pattern source.
func New(opts Options) *Source {
	return &Source{opts: opts}
}

// Open validates the options.
func (s *Source) Open(ctx context.Context) (ports.SourceInfo, error) {
	if s.opts.FrameSize.IsEmpty() || s.opts.Framerate <= 0 || s.opts.Frames < 0 {
		return ports.SourceInfo{}, fmt.Errorf("%w: %s at %.2f fps", ErrInvalidOptions, s.opts.FrameSize, s.opts.Framerate)
	}
	s.index = 0
	s.open = true
	return ports.SourceInfo{FrameSize: s.opts.FrameSize, Framerate: s.opts.Framerate}, nil
}

// Next renders the next frame as an ABGR frame.
func (s *Source) Next(ctx context.Context) (*media.VideoFrame, error) {
	if !s.open || s.index >= s.opts.Frames {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frameDur := time.Duration(float64(time.Second) / s.opts.Framerate)
	ts := time.Duration(float64(s.index) * float64(time.Second) / s.opts.Framerate)
	frame := media.WrapImage(s.Render(s.index).Image(), ts)
	if s.opts.DeclareDuration {
		frame.WithFrameDuration(frameDur)
	}
	s.index++
	return frame, nil
}

// Render draws frame n: colour bars, a box moving left to right and the
// frame counter.
func (s *Source) Render(n int) *gg.Context {
	w, h := s.opts.FrameSize.Width, s.opts.FrameSize.Height
	dc := gg.NewContext(w, h)
	dc.SetColor(color.Black)
	dc.Clear()

	barHeight := float64(h) * 2 / 3
	barWidth := float64(w) / float64(len(bars))
	for i, c := range bars {
		dc.SetColor(c)
		dc.DrawRectangle(float64(i)*barWidth, 0, barWidth+1, barHeight)
		dc.Fill()
	}

	box := float64(h) / 6
	travel := float64(w) - box
	x := 0.0
	if s.opts.Frames > 1 && travel > 0 {
		x = travel * float64(n%s.opts.Frames) / float64(s.opts.Frames-1)
	}
	dc.SetColor(color.White)
	dc.DrawRectangle(x, barHeight+(float64(h)-barHeight-box)/2, box, box)
	dc.Fill()

	if s.opts.FontPath != "" {
		// Keep the built-in face when the font cannot be loaded.
		_ = dc.LoadFontFace(s.opts.FontPath, float64(h)/12)
	}
	dc.SetColor(color.RGBA{255, 255, 0, 255})
	dc.DrawStringAnchored(fmt.Sprintf("%05d", n), float64(w)/2, barHeight/2, 0.5, 0.5)
	return dc
}

// Close stops the source.
func (s *Source) Close() error {
	s.open = false
	return nil
}

var _ ports.FrameSource = (*Source)(nil)
