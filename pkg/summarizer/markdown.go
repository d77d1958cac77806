package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator translates labels and headings, e.g. with l10n.T.
func WithTranslator(translate func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = translate
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
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

	fmt.Fprintf(&b, "# %s\n\n", t("Depth Benchmark Summary"))

	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	f.table(&b, [][2]string{
		{t("Kind"), s.Source.Kind},
		{t("Path"), orDash(s.Source.Path)},
		{t("Resolution"), fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height)},
		{t("Reliable range"), fmt.Sprintf("%d - %d mm", s.Source.MinReliable, s.Source.MaxReliable)},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	f.table(&b, [][2]string{
		{t("Preset"), orDash(s.Settings.Preset)},
		{t("Markers"), s.Settings.Markers},
		{t("Hue ceiling"), fmt.Sprintf("%d mm", s.Settings.HueMaxDepth)},
		{t("Lookup table"), f.yesNo(s.Settings.LookupTable)},
		{t("Auto reconfigure"), f.yesNo(s.Settings.AutoReconfigure)},
		{t("Bytes per pixel"), fmt.Sprint(s.Settings.BytesPerPixel)},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Results"))
	f.table(&b, [][2]string{
		{t("Frames read"), fmt.Sprint(s.Run.FramesRead)},
		{t("Frames processed"), fmt.Sprint(s.Run.FramesProcessed)},
		{t("Frames skipped"), fmt.Sprint(s.Run.FramesSkipped)},
		{t("Reconfigurations"), fmt.Sprint(s.Run.Reconfigurations)},
		{t("Duration"), formatDuration(s.Run.Duration)},
		{t("Throughput"), fmt.Sprintf("%.1f fps", s.Run.FPS())},
		{t("Average process time"), formatDuration(s.Run.AvgProcessTime)},
		{t("Max process time"), formatDuration(s.Run.MaxProcessTime)},
		{t("Stopped by"), orDash(s.Run.StopReason)},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Pixels"))
	total := s.Pixels.Total()
	f.table(&b, [][2]string{
		{t("No data"), formatShare(s.Pixels.NoData, total)},
		{t("Out of range"), formatShare(s.Pixels.OutOfRange, total)},
		{t("In range"), formatShare(s.Pixels.InRange, total)},
	})

	fmt.Fprintf(&b, "---\n\n%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		fmt.Fprintf(&b, " (depthshow %s)", f.version)
	}
	b.WriteString("\n")

	return b.String()
}

func (f *MarkdownFormatter) table(b *strings.Builder, rows [][2]string) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], r[1])
	}
	b.WriteString("\n")
}

func (f *MarkdownFormatter) yesNo(v bool) string {
	if v {
		return f.translate("yes")
	}
	return f.translate("no")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDuration keeps sub-millisecond precision for short durations.
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(10 * time.Microsecond).String()
	default:
		return d.String()
	}
}

func formatShare(n, total int) string {
	if total == 0 {
		return fmt.Sprintf("%d (0.0%%)", n)
	}
	return fmt.Sprintf("%d (%.1f%%)", n, float64(n)*100/float64(total))
}

var _ Formatter = (*MarkdownFormatter)(nil)
