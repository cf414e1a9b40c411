// Package highlight marks tag spans inside a document text.
//
// Markup wraps every span in markdown strong emphasis, padded with a space on
// each side. Spans are rune offsets.
package highlight

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/hyperjump/annotator/internal/models"
	"github.com/yuin/goldmark"
)

const (
	openMarker  = " **"
	closeMarker = "** "
)

var md = goldmark.New()

// Markup returns text with " **" inserted before and "** " after each tag span.
// Tags are applied from the last span start to the first so earlier offsets
// stay valid. Overlapping spans are not reconciled; offsets outside the text
// are clamped.
func Markup(text string, tags []models.Tag) string {
	spans := sortedSpans(tags)
	runes := []rune(text)
	for i := len(spans) - 1; i >= 0; i-- {
		start, end := bounds(spans[i], len(runes))

		out := make([]rune, 0, len(runes)+markerLen)
		out = append(out, runes[:start]...)
		out = append(out, []rune(openMarker)...)
		out = append(out, runes[start:end]...)
		out = append(out, []rune(closeMarker)...)
		out = append(out, runes[end:]...)
		runes = out
	}
	return string(runes)
}

// Strip undoes Markup(text, tags) by position, so marker-like sequences that
// were already in the text survive. tags must be the ones markup was built with.
func Strip(markup string, tags []models.Tag) string {
	spans := sortedSpans(tags)
	runes := []rune(markup)
	for _, sp := range spans {
		if len(runes) < markerLen {
			break
		}
		start, end := bounds(sp, len(runes)-markerLen)
		closeAt := end + len(openRunes)

		out := make([]rune, 0, len(runes)-markerLen)
		out = append(out, runes[:start]...)
		out = append(out, runes[start+len(openRunes):closeAt]...)
		out = append(out, runes[closeAt+len(closeRunes):]...)
		runes = out
	}
	return string(runes)
}

var (
	openRunes  = []rune(openMarker)
	closeRunes = []rune(closeMarker)
	markerLen  = len(openRunes) + len(closeRunes)
)

func sortedSpans(tags []models.Tag) []models.Span {
	spans := make([]models.Span, 0, len(tags))
	for _, t := range tags {
		spans = append(spans, t.Span)
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// bounds clamps sp into a text of n runes.
func bounds(sp models.Span, n int) (int, int) {
	start := clamp(sp.Start, 0, n)
	return start, clamp(sp.End, start, n)
}

// RenderHTML renders markup as HTML. Raw HTML in the text is omitted.
func RenderHTML(markup string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markup), &buf); err != nil {
		return "", fmt.Errorf("failed to render markup: %w", err)
	}
	return buf.String(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
