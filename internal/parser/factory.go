package parser

import (
	"fmt"
	"time"

	"github.com/hyperjump/annotator/internal/config"
	"go.uber.org/zap"
)

// Type names a parser implementation.
type Type string

const (
	// TypeHTTP calls an external parsing service.
	TypeHTTP Type = "http"
	// TypeMock uses the built-in pattern table. For tests and offline demos.
	TypeMock Type = "mock"
)

// New creates the parser described by cfg, wrapped in a cache when
// cfg.CacheSize > 0. Supported types: "http" (default), "mock".
func New(cfg *config.ParserConfig, logger *zap.Logger) (Parser, error) {
	var p Parser
	switch Type(cfg.Type) {
	case TypeHTTP, "":
		if cfg.URL == "" {
			return nil, fmt.Errorf("parser url is required for type %q", TypeHTTP)
		}
		p = NewHTTPParser(cfg.URL, time.Duration(cfg.TimeoutSeconds)*time.Second)
	case TypeMock:
		p = NewMockParser()
	default:
		return nil, fmt.Errorf("unknown parser type: %s (supported: http, mock)", cfg.Type)
	}
	if cfg.CacheSize > 0 {
		p = NewCachingParser(p, cfg.CacheSize, logger)
	}
	return p, nil
}
