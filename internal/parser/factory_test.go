package parser

import (
	"testing"

	"github.com/hyperjump/annotator/internal/config"
)

func TestNew_Mock(t *testing.T) {
	p, err := New(&config.ParserConfig{Type: "mock"}, nil)
	if err != nil {
		t.Fatalf("New(mock): %v", err)
	}
	if _, ok := p.(*MockParser); !ok {
		t.Errorf("expected *MockParser, got %T", p)
	}
}

func TestNew_CacheWrapping(t *testing.T) {
	p, err := New(&config.ParserConfig{Type: "mock", CacheSize: 5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*CachingParser); !ok {
		t.Errorf("expected *CachingParser, got %T", p)
	}
}

func TestNew_HTTP(t *testing.T) {
	p, err := New(&config.ParserConfig{Type: "http", URL: "http://localhost:8000"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "http" {
		t.Errorf("Name = %s", p.Name())
	}
	if _, err := New(&config.ParserConfig{Type: "http"}, nil); err == nil {
		t.Error("expected error for http parser without url")
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New(&config.ParserConfig{Type: "regex"}, nil); err == nil {
		t.Error("expected error for unknown parser type")
	}
}
