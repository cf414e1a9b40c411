package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/annotator/internal/models"
)

func TestMockParser_English(t *testing.T) {
	p := NewMockParser()
	tags, err := p.Parse(context.Background(), "Meet me on March 3rd at 10am")
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d: %+v", len(tags), tags)
	}
	if tags[0].Text != "March 3rd" || tags[0].Span != (models.Span{Start: 11, End: 20}) {
		t.Errorf("tag 0: %+v", tags[0])
	}
	if tags[0].Type != models.TypeDate || tags[0].Value != "XXXX-03-03" {
		t.Errorf("tag 0 attributes: %+v", tags[0])
	}
	if tags[1].Text != "10am" || tags[1].Span != (models.Span{Start: 24, End: 28}) {
		t.Errorf("tag 1: %+v", tags[1])
	}
}

func TestMockParser_JapaneseRuneOffsets(t *testing.T) {
	p := NewMockParser()
	text := "2021年7月18日の10時30分から3日間、毎週開催"
	tags, err := p.Parse(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		text  string
		typ   models.TagType
		value string
		span  models.Span
	}{
		{"2021年7月18日", models.TypeDate, "2021-07-18", models.Span{Start: 0, End: 10}},
		{"10時30分", models.TypeTime, "T10:30", models.Span{Start: 11, End: 17}},
		{"3日間", models.TypeDuration, "P3D", models.Span{Start: 19, End: 22}},
		{"毎週", models.TypeSet, "P1W", models.Span{Start: 23, End: 25}},
	}
	if len(tags) != len(want) {
		t.Fatalf("got %d tags: %+v", len(tags), tags)
	}
	for i, w := range want {
		got := tags[i]
		if got.Text != w.text || got.Type != w.typ || got.Value != w.value || got.Span != w.span {
			t.Errorf("tag %d: got %+v, want %+v", i, got, w)
		}
	}
	if p.Calls() != 1 {
		t.Errorf("calls = %d", p.Calls())
	}
}

func TestMockParser_Failure(t *testing.T) {
	boom := errors.New("boom")
	p := NewFailingMockParser(boom)
	if _, err := p.Parse(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}

func TestMockParser_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockParser().Parse(ctx, "3日間"); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
