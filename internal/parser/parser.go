// Package parser provides the temporal expression parser collaborator: an HTTP
// client for an external parsing service, a deterministic mock, and an LRU cache.
package parser

import (
	"context"

	"github.com/hyperjump/annotator/internal/models"
)

// Parser proposes candidate TIMEX3 tags for a text, ordered by position.
// Spans are rune offsets into text.
type Parser interface {
	Parse(ctx context.Context, text string) ([]models.Tag, error)
	Name() string
}
