package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/annotator/internal/models"
	"go.uber.org/zap"
)

// Loader reads corpus files. Every non-JSON format is split into segments
// (lines, paragraphs, cells) and each non-empty segment becomes a document
// whose id is the SHA-1 of its text.
type Loader struct {
	logger *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader returns a new Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SupportedExtensions lists the file extensions LoadBytes understands.
func SupportedExtensions() []string {
	return []string{".json", ".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ".pptx", ".odp", ".ods"}
}

// LoadFile reads the file at path and returns its documents.
func (l *Loader) LoadFile(path string) ([]models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return l.LoadBytes(content, filepath.Ext(path))
}

// LoadBytes returns the documents in content, interpreted by ext (with the
// leading dot). Unknown extensions are read as plain text.
func (l *Loader) LoadBytes(content []byte, ext string) ([]models.Document, error) {
	ext = strings.ToLower(ext)
	if ext == ".json" {
		return FromRecords(content)
	}

	var (
		segments []string
		err      error
	)
	switch ext {
	case ".pdf":
		segments, err = pdfLines(content)
	case ".docx":
		segments, err = docxParagraphs(content)
	case ".xlsx":
		segments, err = excelCells(content)
	case ".pptx":
		segments, err = pptxParagraphs(content)
	case ".odp", ".ods":
		segments, err = openDocumentParagraphs(content)
	default:
		segments = strings.Split(validUTF8(string(content)), "\n")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	for i, s := range segments {
		segments[i] = validUTF8(s)
	}
	docs := fromSegments(segments, models.SourceFile, true)
	l.logger.Debug("loaded corpus file",
		zap.String("format", ext),
		zap.Int("segments", len(segments)),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}
