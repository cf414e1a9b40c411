// Package docstore keeps one tag session per document index and regenerates
// it whenever the document text changes.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/annotator/internal/parser"
	"github.com/hyperjump/annotator/internal/session"
	"go.uber.org/zap"
)

// ErrParse marks a failure of the temporal expression parser.
var ErrParse = errors.New("temporal expression parser failed")

// Store maps document indices to sessions. It is not safe for concurrent use.
type Store struct {
	parser   parser.Parser
	sessions map[int]*session.Session
	logger   *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty store backed by p.
func New(p parser.Parser, opts ...Option) *Store {
	s := &Store{
		parser:   p,
		sessions: make(map[int]*session.Session),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session for index, parsing rawText when there is no session
// yet or when the stored session was generated from a different text. A parser
// failure leaves the store unchanged.
func (s *Store) Get(ctx context.Context, index int, rawText string) (*session.Session, error) {
	if sess, ok := s.sessions[index]; ok {
		if sess.Text() == rawText {
			return sess, nil
		}
		s.logger.Debug("document text changed, regenerating tags", zap.Int("index", index))
	}

	tags, err := s.parser.Parse(ctx, rawText)
	if err != nil {
		return nil, fmt.Errorf("%w: document %d: %w", ErrParse, index, err)
	}
	sess := session.New(rawText, tags)
	s.sessions[index] = sess
	s.logger.Debug("parsed document",
		zap.Int("index", index),
		zap.String("parser", s.parser.Name()),
		zap.Int("tags", len(tags)),
	)
	return sess, nil
}

// Peek returns the stored session for index without parsing.
func (s *Store) Peek(index int) (*session.Session, bool) {
	sess, ok := s.sessions[index]
	return sess, ok
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	return len(s.sessions)
}

// Reset drops every session.
func (s *Store) Reset() {
	s.sessions = make(map[int]*session.Session)
}
