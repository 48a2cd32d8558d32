// Package reporter writes user-facing progress lines. Diagnostics go to
// slog; everything an operator is expected to read goes through a Reporter.
package reporter

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Theme holds the styles used for each kind of output.
type Theme struct {
	Warn      lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultTheme returns the standard 16-color palette styles.
func DefaultTheme() Theme {
	return Theme{
		Warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

// Reporter is safe for concurrent use; each call writes whole lines.
type Reporter struct {
	mu       sync.Mutex
	out      io.Writer
	theme    Theme
	useColor bool
	quiet    bool
}

// New returns a Reporter writing to out. Colors are applied only when
// useColor is set.
func New(out io.Writer, useColor bool) *Reporter {
	return &Reporter{out: out, theme: DefaultTheme(), useColor: useColor}
}

// ForFile returns a Reporter that colors output only when f is a terminal.
func ForFile(f *os.File) *Reporter {
	fd := f.Fd()
	return New(f, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// SetQuiet suppresses Info lines. Warnings and errors are always written.
func (r *Reporter) SetQuiet(quiet bool) {
	r.mu.Lock()
	r.quiet = quiet
	r.mu.Unlock()
}

// Info writes an informational line.
func (r *Reporter) Info(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.quiet {
		return
	}

	fmt.Fprintln(r.out, msg)
}

// Infof formats and writes an informational line.
func (r *Reporter) Infof(format string, args ...any) {
	r.Info(fmt.Sprintf(format, args...))
}

// Warn writes a warning line.
func (r *Reporter) Warn(msg string) {
	r.write(msg, r.theme.Warn)
}

// Warnf formats and writes a warning line.
func (r *Reporter) Warnf(format string, args ...any) {
	r.Warn(fmt.Sprintf(format, args...))
}

// Error writes an error line.
func (r *Reporter) Error(msg string) {
	r.write(msg, r.theme.Error)
}

// Errorf formats and writes an error line.
func (r *Reporter) Errorf(format string, args ...any) {
	r.Error(fmt.Sprintf(format, args...))
}

// Muted renders low-significance text (grey).
func (r *Reporter) Muted(text string) string {
	return r.style(text, r.theme.Muted)
}

// Highlight renders significant text (bright green).
func (r *Reporter) Highlight(text string) string {
	return r.style(text, r.theme.Highlight)
}

func (r *Reporter) write(msg string, style lipgloss.Style) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, r.style(msg, style))
}

func (r *Reporter) style(text string, style lipgloss.Style) string {
	if !r.useColor {
		return text
	}

	return style.Render(text)
}
