package parser

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/hyperjump/annotator/internal/models"
)

// MockParser is a deterministic parser for tests and offline demos. It matches
// a small fixed table of surface patterns; it is not a temporal expression
// extractor.
type MockParser struct {
	calls atomic.Int64
	err   error
}

type mockPattern struct {
	re    *regexp.Regexp
	typ   models.TagType
	value func(m []string) string
}

var monthNumbers = map[string]int{
	"January": 1, "February": 2, "March": 3, "April": 4, "May": 5, "June": 6,
	"July": 7, "August": 8, "September": 9, "October": 10, "November": 11, "December": 12,
}

var mockPatterns = []mockPattern{
	{
		re:  regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`),
		typ: models.TypeDate,
		value: func(m []string) string {
			return m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])
		},
	},
	{
		re:  regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`),
		typ: models.TypeDate,
		value: func(m []string) string {
			return "XXXX-" + pad2(m[1]) + "-" + pad2(m[2])
		},
	},
	{
		re:  regexp.MustCompile(`(\d{1,2})時(\d{1,2})分`),
		typ: models.TypeTime,
		value: func(m []string) string {
			return "T" + pad2(m[1]) + ":" + pad2(m[2])
		},
	},
	{
		re:  regexp.MustCompile(`(\d+)日間`),
		typ: models.TypeDuration,
		value: func(m []string) string {
			return "P" + m[1] + "D"
		},
	},
	{
		re:    regexp.MustCompile(`毎週`),
		typ:   models.TypeSet,
		value: func([]string) string { return "P1W" },
	},
	{
		re:  regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December) (\d{1,2})(?:st|nd|rd|th)?`),
		typ: models.TypeDate,
		value: func(m []string) string {
			return fmt.Sprintf("XXXX-%02d-", monthNumbers[m[1]]) + pad2(m[2])
		},
	},
	{
		re:  regexp.MustCompile(`(\d{1,2})(am|pm)`),
		typ: models.TypeTime,
		value: func(m []string) string {
			return "T" + m[1] + strings.ToUpper(m[2])
		},
	},
}

func pad2(digits string) string {
	if len(digits) == 1 {
		return "0" + digits
	}
	return digits
}

// NewMockParser returns a mock parser that always succeeds.
func NewMockParser() *MockParser {
	return &MockParser{}
}

// NewFailingMockParser returns a mock parser whose Parse always returns err.
func NewFailingMockParser(err error) *MockParser {
	return &MockParser{err: err}
}

// Name implements Parser.
func (p *MockParser) Name() string {
	return "mock"
}

// Calls returns how many times Parse has been invoked.
func (p *MockParser) Calls() int {
	return int(p.calls.Load())
}

// Parse returns non-overlapping matches of the pattern table ordered by start.
// Earlier patterns win when matches overlap.
func (p *MockParser) Parse(ctx context.Context, text string) ([]models.Tag, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type hit struct {
		start, end int // byte offsets
		tag        models.Tag
	}
	var hits []hit
	overlaps := func(s, e int) bool {
		for _, h := range hits {
			if s < h.end && h.start < e {
				return true
			}
		}
		return false
	}
	for _, pat := range mockPatterns {
		for _, loc := range pat.re.FindAllStringSubmatchIndex(text, -1) {
			s, e := loc[0], loc[1]
			if overlaps(s, e) {
				continue
			}
			groups := make([]string, len(loc)/2)
			for g := range groups {
				if loc[2*g] >= 0 {
					groups[g] = text[loc[2*g]:loc[2*g+1]]
				}
			}
			surface := text[s:e]
			start := utf8.RuneCountInString(text[:s])
			hits = append(hits, hit{start: s, end: e, tag: models.Tag{
				Type:  pat.typ,
				Value: pat.value(groups),
				Text:  surface,
				Span:  models.Span{Start: start, End: start + utf8.RuneCountInString(surface)},
			}})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	tags := make([]models.Tag, len(hits))
	for i, h := range hits {
		tags[i] = h.tag
	}
	return tags, nil
}
