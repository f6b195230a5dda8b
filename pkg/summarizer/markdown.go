package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = v
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Encoding Summary"))

	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	row(&b, t("Kind"), s.Source.Kind)
	if s.Source.Description != "" {
		row(&b, t("Input"), s.Source.Description)
	}
	if s.Source.Width > 0 {
		row(&b, t("Source Size"), fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	row(&b, t("Profile"), s.Settings.Profile)
	row(&b, t("Frame Size"), fmt.Sprintf("%dx%d", s.Settings.Width, s.Settings.Height))
	if s.Settings.Bitrate > 0 {
		row(&b, t("Bitrate"), fmt.Sprintf("%d kbps", s.Settings.Bitrate/1000))
	} else {
		row(&b, t("Bitrate"), t("Variable"))
	}
	if s.Settings.Framerate > 0 {
		row(&b, t("Framerate"), fmt.Sprintf("%.2f fps", s.Settings.Framerate))
	} else {
		row(&b, t("Framerate"), t("Variable"))
	}
	if s.Settings.KeyframeInterval > 0 {
		row(&b, t("Keyframe Interval"), fmt.Sprintf("%d", s.Settings.KeyframeInterval))
	}
	if s.Settings.ForceKeyframeEvery > 0 {
		row(&b, t("Forced Keyframes"), fmt.Sprintf("%s %d", t("every"), s.Settings.ForceKeyframeEvery))
	}
	row(&b, t("Container"), s.Settings.Container)
	b.WriteString("\n")

	o := s.Output
	fmt.Fprintf(&b, "## %s\n\n", t("Output"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	if o.Path != "" {
		row(&b, t("File"), o.Path)
	}
	row(&b, t("Frames"), fmt.Sprintf("%d", o.FrameCount))
	row(&b, t("Packets"), fmt.Sprintf("%d", o.PacketCount))
	row(&b, t("Keyframes"), fmt.Sprintf("%d", o.KeyframeCount))
	row(&b, t("Bitstream"), formatBytes(o.Bytes))
	if o.FileSize > 0 {
		row(&b, t("File Size"), formatBytes(o.FileSize))
	}
	row(&b, t("Duration"), fmt.Sprintf("%d ms", o.DurationMs))
	if o.DurationMs > 0 {
		kbps := float64(o.Bytes*8) / float64(o.DurationMs)
		row(&b, t("Average Bitrate"), fmt.Sprintf("%.1f kbps", kbps))
	}
	if o.FinalWidth > 0 && (o.FinalWidth != s.Settings.Width || o.FinalHeight != s.Settings.Height) {
		row(&b, t("Final Size"), fmt.Sprintf("%dx%d", o.FinalWidth, o.FinalHeight))
	}
	if o.ResizesApplied > 0 || o.ResizesRejected > 0 {
		row(&b, t("Resizes"), fmt.Sprintf("%d / %d %s", o.ResizesApplied, o.ResizesRejected, t("rejected")))
	}
	row(&b, t("Encoding Time"), fmt.Sprintf("%d ms", o.ElapsedMs))
	b.WriteString("\n")

	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += fmt.Sprintf(" (vpxenc %s)", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", label, value)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
