// Package output provides adapters for writing application output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
)

// Format selects how the result of a run is reported.
type Format string

const (
	// FormatText reports progress lines only.
	FormatText Format = "text"

	// FormatJSON suppresses progress lines and writes the result as JSON.
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want %q or %q)", s, FormatText, FormatJSON)
	}
}

var (
	colorProgress = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorError    = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
)

// Writer writes progress lines to stdout and diagnostics to stderr.
// Color is only emitted when the destination is a terminal.
type Writer struct {
	out    io.Writer
	errOut io.Writer
	format Format

	progressStyle lipgloss.Style
	errorStyle    lipgloss.Style
}

// NewWriter creates a new Writer that writes to stdout and stderr.
func NewWriter(format Format) *Writer {
	return NewWriterWithOutput(os.Stdout, os.Stderr, format)
}

// NewWriterWithOutput creates a new Writer with custom output destinations.
// This is useful for testing.
func NewWriterWithOutput(out, errOut io.Writer, format Format) *Writer {
	if format == "" {
		format = FormatText
	}
	return &Writer{
		out:           out,
		errOut:        errOut,
		format:        format,
		progressStyle: lipgloss.NewRenderer(out).NewStyle().Foreground(colorProgress),
		errorStyle:    lipgloss.NewRenderer(errOut).NewStyle().Foreground(colorError),
	}
}

// Format returns the configured output format.
func (w *Writer) Format() Format {
	return w.format
}

// WriteProgress writes one progress line to stdout. Suppressed in JSON mode.
func (w *Writer) WriteProgress(msg string) {
	if w.format == FormatJSON {
		return
	}
	_, _ = fmt.Fprintln(w.out, w.progressStyle.Render(msg))
}

// WriteError writes one diagnostic line to stderr.
func (w *Writer) WriteError(msg string) {
	_, _ = fmt.Fprintln(w.errOut, w.errorStyle.Render(msg))
}

// WriteResult writes the result of a run to stdout as indented JSON.
// It writes nothing in text mode.
func (w *Writer) WriteResult(result *domain.PrepareOutput) error {
	if w.format != FormatJSON || result == nil {
		return nil
	}
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
