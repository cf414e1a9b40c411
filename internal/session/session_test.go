package session

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/hyperjump/annotator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() *Session {
	return New("Meet me on March 3rd at 10am", []models.Tag{
		{Type: models.TypeDate, Value: "XXXX-03-03", Text: "March 3rd", Span: models.Span{Start: 11, End: 20}},
		{Type: models.TypeTime, Value: "T10AM", Text: "10am", Span: models.Span{Start: 24, End: 28}, Mod: "START"},
	})
}

func TestNew_SeedsEdits(t *testing.T) {
	s := sampleSession()
	require.Equal(t, 2, s.Len())
	edits := s.Edits()
	require.Len(t, edits, 2)
	assert.Equal(t, "DATE", edits[0].Type)
	assert.Equal(t, "11", edits[0].SpanStart)
	assert.Equal(t, "20", edits[0].SpanEnd)
	assert.Equal(t, "START", edits[1].Mod)
	assert.False(t, edits[1].Deleted)
}

func TestAddTag_FirstOccurrence(t *testing.T) {
	s := New("明日と明日の予定", nil)
	i := s.AddTag("  明日 ")
	require.Equal(t, 0, i)
	tag := s.Tags()[0]
	assert.Equal(t, "明日", tag.Text)
	assert.Equal(t, models.Span{Start: 0, End: 2}, tag.Span)
	assert.Equal(t, models.TagType(""), tag.Type)
	assert.Equal(t, "0", s.Edits()[0].SpanStart)
	assert.Equal(t, "2", s.Edits()[0].SpanEnd)
}

func TestAddTag_RuneOffsets(t *testing.T) {
	s := New("会議は2021年7月18日です", nil)
	s.AddTag("7月18日")
	assert.Equal(t, models.Span{Start: 8, End: 13}, s.Tags()[0].Span)
}

func TestAddTag_MissYieldsZeroSpan(t *testing.T) {
	s := sampleSession()
	i := s.AddTag("next Friday")
	require.Equal(t, 2, i)
	tag := s.Tags()[2]
	assert.Equal(t, "next Friday", tag.Text)
	assert.True(t, tag.Span.IsZero())
}

func TestAddTag_EmptyCandidate(t *testing.T) {
	s := sampleSession()
	s.AddTag("")
	s.AddTag("   \t")
	require.Equal(t, 4, s.Len())
	for _, tag := range s.Tags()[2:] {
		assert.Equal(t, "", tag.Text)
		assert.True(t, tag.Span.IsZero())
	}
}

func TestAddTag_AppendsWithoutReordering(t *testing.T) {
	s := sampleSession()
	s.AddTag("Meet")
	tags := s.Tags()
	assert.Equal(t, "March 3rd", tags[0].Text)
	assert.Equal(t, "Meet", tags[2].Text)
}

func TestEdit(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.SetDeleted(0, true))

	e := s.Edits()[0]
	e.Value = "2024-03-03"
	e.Type = "TIME"
	e.Deleted = false
	require.NoError(t, s.Edit(0, e))

	got := s.Edits()[0]
	assert.Equal(t, "2024-03-03", got.Value)
	assert.Equal(t, "TIME", got.Type)
	assert.True(t, got.Deleted, "Edit must not clear the deletion flag")
	assert.Equal(t, "2024-03-03", s.Tags()[0].Value)
	assert.Equal(t, models.TypeTime, s.Tags()[0].Type)
}

func TestEdit_FixesMissedSpan(t *testing.T) {
	s := sampleSession()
	i := s.AddTag("tomorrow")
	require.Equal(t, models.Span{}, s.Tags()[i].Span)

	e := s.Edits()[i]
	e.Text = "Meet"
	e.SpanStart = "0"
	e.SpanEnd = " 4"
	require.NoError(t, s.Edit(i, e))

	tag := s.Tags()[i]
	assert.Equal(t, models.Span{Start: 0, End: 4}, tag.Span)
	assert.Equal(t, "<TIMEX3 text=Meet>", tag.Label())
}

func TestEdit_KeepsSpanWhenOffsetsDoNotParse(t *testing.T) {
	s := sampleSession()
	e := s.Edits()[0]
	e.SpanStart = "abc"
	e.SpanEnd = "16"
	e.Text = "March"
	require.NoError(t, s.Edit(0, e))

	tag := s.Tags()[0]
	assert.Equal(t, models.Span{Start: 11, End: 20}, tag.Span)
	assert.Equal(t, "March", tag.Text)
	assert.Equal(t, "abc", s.Edits()[0].SpanStart)
}

func TestEdit_InvalidType(t *testing.T) {
	s := sampleSession()
	e := s.Edits()[0]
	e.Type = "PERIOD"
	err := s.Edit(0, e)
	require.Error(t, err)
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))

	e.Type = ""
	assert.NoError(t, s.Edit(0, e), "empty type is allowed")
}

func TestIndexErrors(t *testing.T) {
	s := sampleSession()
	assert.ErrorIs(t, s.Edit(5, TagEdit{}), ErrTagIndex)
	assert.ErrorIs(t, s.SetDeleted(-1, true), ErrTagIndex)
}

func TestActiveTagsAndUndelete(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.SetDeleted(1, true))
	active := s.ActiveTags()
	require.Len(t, active, 1)
	assert.Equal(t, "March 3rd", active[0].Text)
	assert.Equal(t, 2, s.Len(), "deleted tags are kept until export")

	require.NoError(t, s.SetDeleted(1, false))
	assert.Len(t, s.ActiveTags(), 2)
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := sampleSession()
	tags := s.Tags()
	tags[0].Text = "changed"
	edits := s.Edits()
	edits[0].Deleted = true
	assert.Equal(t, "March 3rd", s.Tags()[0].Text)
	assert.False(t, s.Edits()[0].Deleted)
}
