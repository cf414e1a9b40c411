// Package session holds the reviewer's editable view of one document's tags.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hyperjump/annotator/internal/models"
	"github.com/hyperjump/annotator/pkg/utils"
)

// ErrTagIndex is returned for a tag index outside the session.
var ErrTagIndex = errors.New("tag index out of range")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("timex_type", validateTimexType); err != nil {
		panic(fmt.Sprintf("failed to register timex_type validator: %v", err))
	}
	return v
}

// validateTimexType accepts an empty type (not yet chosen) or one of the TIMEX3 types.
func validateTimexType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.TagType(value).Valid()
}

// TagEdit is the editable view of one tag. Every attribute is kept as the
// reviewer typed it; span offsets stay text until export parses them.
type TagEdit struct {
	Type             string `json:"type" validate:"timex_type"`
	Value            string `json:"value"`
	ValueFromSurface string `json:"value_from_surface"`
	Text             string `json:"text"`
	SpanStart        string `json:"span_start"`
	SpanEnd          string `json:"span_end"`
	Freq             string `json:"freq"`
	Quant            string `json:"quant"`
	Mod              string `json:"mod"`
	RangeStart       bool   `json:"range_start"`
	RangeEnd         bool   `json:"range_end"`
	Deleted          bool   `json:"deleted"`
}

// SeedEdit returns the edit view seeded from tag's current values.
func SeedEdit(tag models.Tag) TagEdit {
	return TagEdit{
		Type:             string(tag.Type),
		Value:            tag.Value,
		ValueFromSurface: tag.ValueFromSurface,
		Text:             tag.Text,
		SpanStart:        strconv.Itoa(tag.Span.Start),
		SpanEnd:          strconv.Itoa(tag.Span.End),
		Freq:             tag.Freq,
		Quant:            tag.Quant,
		Mod:              tag.Mod,
		RangeStart:       tag.RangeStart,
		RangeEnd:         tag.RangeEnd,
	}
}

// Session is the ordered tags of one document text plus one edit per tag.
// It is not safe for concurrent use; the owner serializes access.
type Session struct {
	text  string
	tags  []models.Tag
	edits []TagEdit
}

// New creates a session for text with the parser's tags, seeding one edit per tag.
func New(text string, tags []models.Tag) *Session {
	s := &Session{
		text:  text,
		tags:  make([]models.Tag, 0, len(tags)),
		edits: make([]TagEdit, 0, len(tags)),
	}
	for _, t := range tags {
		s.append(t)
	}
	return s
}

func (s *Session) append(t models.Tag) int {
	s.tags = append(s.tags, t)
	s.edits = append(s.edits, SeedEdit(t))
	return len(s.tags) - 1
}

// Text returns the document text the tags were generated from.
func (s *Session) Text() string {
	return s.text
}

// Len returns the number of tags, deleted ones included.
func (s *Session) Len() int {
	return len(s.tags)
}

// Tags returns a copy of the tags in append order.
func (s *Session) Tags() []models.Tag {
	return append([]models.Tag(nil), s.tags...)
}

// Edits returns a copy of the edits, positionally aligned with Tags.
func (s *Session) Edits() []TagEdit {
	return append([]TagEdit(nil), s.edits...)
}

// ActiveTags returns the tags whose edit is not flagged deleted.
func (s *Session) ActiveTags() []models.Tag {
	out := make([]models.Tag, 0, len(s.tags))
	for i, t := range s.tags {
		if !s.edits[i].Deleted {
			out = append(out, t)
		}
	}
	return out
}

// AddTag appends a reviewer-supplied tag. The candidate is trimmed; when it
// occurs in the text the span is its first occurrence, otherwise (0,0) marks
// the span as unknown. Returns the new tag's index.
func (s *Session) AddTag(candidate string) int {
	candidate = strings.TrimSpace(candidate)
	tag := models.Tag{Text: candidate}
	if candidate != "" {
		if start := utils.RuneIndex(s.text, candidate); start >= 0 {
			tag.Span = models.Span{Start: start, End: start + utils.RuneLen(candidate)}
		}
	}
	return s.append(tag)
}

// Edit replaces the editable fields of tag i and updates the tag itself, so
// labels and highlights follow the reviewer's corrections. The deletion flag
// is kept; use SetDeleted to change it.
func (s *Session) Edit(i int, e TagEdit) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid edit for tag %d: %w", i, err)
	}
	e.Deleted = s.edits[i].Deleted
	s.edits[i] = e
	s.tags[i] = applyEdit(s.tags[i], e)
	return nil
}

// applyEdit copies the edited attributes onto tag. The span moves only when
// both offsets are integers; otherwise the last valid span is kept and the
// error surfaces at export.
func applyEdit(tag models.Tag, e TagEdit) models.Tag {
	tag.Type = models.TagType(e.Type)
	tag.Value = e.Value
	tag.ValueFromSurface = e.ValueFromSurface
	tag.Text = e.Text
	tag.Freq = e.Freq
	tag.Quant = e.Quant
	tag.Mod = e.Mod
	tag.RangeStart = e.RangeStart
	tag.RangeEnd = e.RangeEnd
	start, errStart := strconv.Atoi(strings.TrimSpace(e.SpanStart))
	end, errEnd := strconv.Atoi(strings.TrimSpace(e.SpanEnd))
	if errStart == nil && errEnd == nil {
		tag.Span = models.Span{Start: start, End: end}
	}
	return tag
}

// SetDeleted flags or un-flags tag i for exclusion at export.
func (s *Session) SetDeleted(i int, deleted bool) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.edits[i].Deleted = deleted
	return nil
}

func (s *Session) checkIndex(i int) error {
	if i < 0 || i >= len(s.tags) {
		return fmt.Errorf("%w: %d (have %d)", ErrTagIndex, i, len(s.tags))
	}
	return nil
}
