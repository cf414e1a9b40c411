// Package export turns a reviewed session into a TIMEX3 record and writes it
// to disk.
package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/annotator/internal/models"
	"github.com/hyperjump/annotator/internal/session"
)

// Variant selects which timex attributes a record carries.
type Variant string

const (
	// VariantBasic carries type, value, text, freq, quant, mod and span.
	VariantBasic Variant = "basic"
	// VariantExtended adds valueFromSurface, rangeStart and rangeEnd.
	VariantExtended Variant = "extended"
)

// ParseVariant returns the variant named s.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantBasic, VariantExtended:
		return v, nil
	default:
		return "", fmt.Errorf("unknown export schema %q (want basic or extended)", s)
	}
}

// SpanError reports a span field that is not an integer.
type SpanError struct {
	Tag   int
	Field string
	Value string
	Err   error
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("tag %d: %s %q is not an integer: %v", e.Tag, e.Field, e.Value, e.Err)
}

func (e *SpanError) Unwrap() error {
	return e.Err
}

// Build assembles the record for text from the session edits. Deleted edits are
// dropped, the rest are sorted by span start (stable) and numbered t0, t1, ...
// in that order. Any unparsable span fails the whole build.
func Build(text string, edits []session.TagEdit, variant Variant) (*models.Record, error) {
	timexes := make([]models.ExportTimex, 0, len(edits))
	for i, e := range edits {
		if e.Deleted {
			continue
		}
		start, err := parseOffset(i, "span start", e.SpanStart)
		if err != nil {
			return nil, err
		}
		end, err := parseOffset(i, "span end", e.SpanEnd)
		if err != nil {
			return nil, err
		}
		t := models.ExportTimex{
			Type:  models.TagType(e.Type),
			Value: e.Value,
			Text:  e.Text,
			Freq:  e.Freq,
			Quant: e.Quant,
			Mod:   e.Mod,
			Span:  models.Span{Start: start, End: end},
		}
		if variant == VariantExtended {
			vfs, rs, re := e.ValueFromSurface, e.RangeStart, e.RangeEnd
			t.ValueFromSurface = &vfs
			t.RangeStart = &rs
			t.RangeEnd = &re
		}
		timexes = append(timexes, t)
	}

	sort.SliceStable(timexes, func(i, j int) bool {
		return timexes[i].Span.Start < timexes[j].Span.Start
	})
	for i := range timexes {
		timexes[i].TID = "t" + strconv.Itoa(i)
	}
	return &models.Record{Text: text, Timexes: timexes}, nil
}

func parseOffset(tag int, field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &SpanError{Tag: tag, Field: field, Value: value, Err: err}
	}
	return n, nil
}
