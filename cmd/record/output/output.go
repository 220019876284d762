// Package output renders styled terminal messages for the record command.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Color styles for terminal output
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")
	colorCode    = lipgloss.Color("#A78BFA")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	codeStyle    = lipgloss.NewStyle().Foreground(colorCode)
)

// Out receives all output. Commands point it at their own writer.
var Out io.Writer = os.Stdout

func line(icon lipgloss.Style, mark, format string, args ...any) {
	_, _ = fmt.Fprint(Out, icon.Render(mark+" "))
	_, _ = fmt.Fprintf(Out, format+"\n", args...)
}

// Success prints a success message
func Success(format string, args ...any) { line(successStyle, "✓", format, args...) }

// Warning prints a warning message
func Warning(format string, args ...any) { line(warningStyle, "⚠", format, args...) }

// Error prints an error message
func Error(format string, args ...any) { line(errorStyle, "✗", format, args...) }

// Info prints an info message
func Info(format string, args ...any) { line(infoStyle, "ℹ", format, args...) }

// Muted prints a muted message
func Muted(format string, args ...any) {
	_, _ = fmt.Fprintln(Out, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header
func Section(title string) {
	_, _ = fmt.Fprintln(Out)
	_, _ = fmt.Fprintln(Out, primaryStyle.Render(title))
	_, _ = fmt.Fprintln(Out, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

// SQL prints a statement and its parameters.
func SQL(query string, params [][2]string) {
	_, _ = fmt.Fprintln(Out, codeStyle.Render(query))
	if len(params) == 0 {
		return
	}
	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	for _, p := range params {
		_, _ = fmt.Fprintf(w, "  :%s\t%s\n", p[0], p[1])
	}
	_ = w.Flush()
}

// Table prints rows under a header using aligned columns.
func Table(header []string, rows [][]string) {
	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	sep := make([]string, len(header))
	for i, h := range header {
		sep[i] = strings.Repeat("-", len(h))
	}
	_, _ = fmt.Fprintln(w, strings.Join(sep, "\t"))
	for _, r := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	_ = w.Flush()
}

// StateIcon returns a colored marker for an entity state.
func StateIcon(state string) string {
	switch state {
	case "persisted":
		return successStyle.Render("✓")
	case "dirty":
		return warningStyle.Render("○")
	case "deleted":
		return errorStyle.Render("✗")
	case "new":
		return infoStyle.Render("◉")
	default:
		return mutedStyle.Render("•")
	}
}
