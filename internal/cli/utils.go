// Package cli provides output helpers for the annotator command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/annotator/internal/app"
	"github.com/mattn/go-runewidth"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is a human-readable table (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text", "json" or "" (text).
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

const textColumnWidth = 40

// WritePreannotateResults writes one row per document in the given format.
func WritePreannotateResults(w io.Writer, results []app.PreannotateResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, results)
	}
	failed := 0
	fmt.Fprintf(w, "%s  %s  %s  %s\n", PadLeft("#", 5), PadRight("text", textColumnWidth), PadLeft("timexes", 7), "output")
	for _, r := range results {
		out := r.Path
		if r.Err != "" {
			out = "error: " + r.Err
			failed++
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			PadLeft(fmt.Sprint(r.Index), 5),
			PadRight(TruncateWidth(r.Text, textColumnWidth), textColumnWidth),
			PadLeft(fmt.Sprint(r.Timexes), 7),
			out)
	}
	fmt.Fprintf(w, "\n%d documents, %d failed\n", len(results), failed)
	return nil
}

// FileValidation is the schema check outcome of one record file.
type FileValidation struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// WriteValidationResults writes one line per checked file in the given format.
func WriteValidationResults(w io.Writer, results []FileValidation, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, results)
	}
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "ok       %s\n", r.Path)
			continue
		}
		fmt.Fprintf(w, "invalid  %s\n", r.Path)
		for _, line := range strings.Split(r.Error, "\n") {
			fmt.Fprintf(w, "         %s\n", line)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PadRight pads s with spaces so its terminal display width reaches width.
// Wide (CJK) characters count as two columns.
func PadRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// PadLeft right-aligns s in width display columns.
func PadLeft(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return strings.Repeat(" ", width-sw) + s
}

// TruncateWidth shortens s to at most width display columns, ending in "…"
// when cut. Line breaks are flattened to spaces.
func TruncateWidth(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
