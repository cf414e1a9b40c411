package parser

import (
	"context"
	"testing"

	"github.com/hyperjump/annotator/internal/models"
)

func TestTagCache_GetSet(t *testing.T) {
	c := NewTagCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []models.Tag{{Text: "今日"}})
	v, ok := c.Get("a")
	if !ok || len(v) != 1 || v[0].Text != "今日" {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", nil)
	c.Set("c", []models.Tag{{Text: "明日"}}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestTagCache_ReturnsCopies(t *testing.T) {
	c := NewTagCache(4)
	c.Set("k", []models.Tag{{Text: "x"}})
	got, _ := c.Get("k")
	got[0].Text = "mutated"
	_ = append(got, models.Tag{Text: "appended"})
	again, _ := c.Get("k")
	if len(again) != 1 || again[0].Text != "x" {
		t.Errorf("cache entry was mutated through a returned slice: %+v", again)
	}
}

func TestCachingParser(t *testing.T) {
	mock := NewMockParser()
	p := NewCachingParser(mock, 10, nil)
	ctx := context.Background()
	first, err := p.Parse(ctx, "3日間")
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Parse(ctx, "3日間")
	if err != nil {
		t.Fatal(err)
	}
	if mock.Calls() != 1 {
		t.Errorf("underlying parser called %d times, want 1", mock.Calls())
	}
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
	if p.Name() != "mock+cache" {
		t.Errorf("Name = %s", p.Name())
	}
}
