package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TagType is the TIMEX3 type attribute.
type TagType string

const (
	TypeDate     TagType = "DATE"
	TypeTime     TagType = "TIME"
	TypeDuration TagType = "DURATION"
	TypeSet      TagType = "SET"
)

// TagTypes lists the TIMEX3 types in display order.
var TagTypes = []TagType{TypeDate, TypeTime, TypeDuration, TypeSet}

// Valid reports whether t is one of the four TIMEX3 types.
func (t TagType) Valid() bool {
	switch t {
	case TypeDate, TypeTime, TypeDuration, TypeSet:
		return true
	}
	return false
}

// Span is a half-open rune offset interval [Start, End) into a specific text snapshot.
// It is encoded in JSON as a two-element array.
type Span struct {
	Start int
	End   int
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// IsZero reports whether the span is the (0,0) "span unknown" marker.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// MarshalJSON encodes the span as [start, end].
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Start, s.End})
}

// UnmarshalJSON decodes [start, end].
func (s *Span) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("span: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("span: expected 2 offsets, got %d", len(pair))
	}
	s.Start, s.End = pair[0], pair[1]
	return nil
}

// Tag is one TIMEX3 annotation. ID is only assigned at export time.
type Tag struct {
	ID               string  `json:"tid,omitempty"`
	Type             TagType `json:"type"`
	Value            string  `json:"value"`
	ValueFromSurface string  `json:"value_from_surface,omitempty"`
	Text             string  `json:"text"`
	Span             Span    `json:"span"`
	Freq             string  `json:"freq,omitempty"`
	Quant            string  `json:"quant,omitempty"`
	Mod              string  `json:"mod,omitempty"`
	RangeStart       bool    `json:"range_start,omitempty"`
	RangeEnd         bool    `json:"range_end,omitempty"`
}

// Label renders the tag as a short TIMEX3 element for list headers.
func (t Tag) Label() string {
	var b strings.Builder
	b.WriteString("<TIMEX3")
	if t.Type != "" {
		fmt.Fprintf(&b, " type=%s", t.Type)
	}
	if t.Value != "" {
		fmt.Fprintf(&b, " value=%s", t.Value)
	}
	fmt.Fprintf(&b, " text=%s>", t.Text)
	return b.String()
}
