package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/fileutil/pkg/fileutil/types"
)

// PrettyFormatter formats output for a terminal with lipgloss styling.
type PrettyFormatter struct {
	theme theme
}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	root := r.Root
	if r.Recursive {
		root += " (recursive)"
	}
	lines = append(lines, f.theme.field("Directory", root))

	var filters []string
	if r.MinSize > 0 || r.MaxSize != types.Unbounded {
		filters = append(filters, f.theme.field("Size", formatRange(r.MinSize, r.MaxSize)))
	}
	if r.Pattern != "" {
		filters = append(filters, f.theme.field("Pattern", "/^"+r.Pattern+"$/"))
	}
	if len(filters) > 0 {
		lines = append(lines, strings.Join(filters, "  "))
	}

	scanned := fmt.Sprintf("%s files in %s dirs, %s",
		humanize.Comma(r.Stats.FilesFound),
		humanize.Comma(r.Stats.DirsScanned),
		formatDuration(r.Stats.Elapsed))
	lines = append(lines, f.theme.field("Scanned", scanned))

	if r.Stats.Skipped > 0 {
		lines = append(lines, f.theme.warn.Render(fmt.Sprintf("%s entries skipped", humanize.Comma(r.Stats.Skipped))))
	}

	return f.theme.summary.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(r *Result) string {
	if len(r.Entries) == 0 {
		return f.theme.note.Render("  No matches") + "\n"
	}

	rankWidth := len(fmt.Sprint(len(r.Entries)))
	sizeWidth := 8
	for _, e := range r.Entries {
		sizeWidth = max(sizeWidth, len(e.SizeHuman))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s  %s  %s\n",
		f.theme.column.Render(padLeft("#", rankWidth)),
		f.theme.column.Render(padLeft("SIZE", sizeWidth)),
		f.theme.column.Render("PATH"))

	for _, e := range r.Entries {
		fmt.Fprintf(&sb, "  %s  %s  %s\n",
			f.theme.label.Render(padLeft(fmt.Sprint(e.Rank), rankWidth)),
			f.theme.size.Render(padLeft(e.SizeHuman, sizeWidth)),
			f.theme.value.Render(e.Rel))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	parts := []string{
		f.theme.field("Files", fmt.Sprintf("%d of %d", len(r.Entries), r.Top)),
		f.theme.label.Render("Total:") + " " + f.theme.size.Render(types.FormatSize(r.TotalSize())),
		f.theme.note.Render("Use --format plain for unformatted output"),
	}
	return f.theme.totals.Render(strings.Join(parts, "  "))
}

func formatRange(minSize, maxSize uint64) string {
	hi := "unbounded"
	if maxSize != types.Unbounded {
		hi = types.FormatSize(maxSize)
	}
	return types.FormatSize(minSize) + " to " + hi
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{theme: newTheme()}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
