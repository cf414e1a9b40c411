package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/annotator/internal/models"
	"go.uber.org/zap"
)

// ErrPathInvalid is returned when a corpus name or document id cannot be used
// as a single path element.
var ErrPathInvalid = errors.New("invalid output path element")

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// Writer persists records under <root>/<corpus>/<sha1>.json.
type Writer struct {
	root    string
	variant Variant
	logger  *zap.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the writer's logger.
func WithLogger(logger *zap.Logger) WriterOption {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWriter creates a writer rooted at root that validates records against variant.
func NewWriter(root string, variant Variant, opts ...WriterOption) *Writer {
	w := &Writer{root: root, variant: variant, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the output directory.
func (w *Writer) Root() string {
	return w.root
}

// Variant returns the schema variant records are validated against.
func (w *Writer) Variant() Variant {
	return w.variant
}

// Path returns the file a record for corpus and sha1 is written to.
func (w *Writer) Path(corpus, sha1 string) (string, error) {
	for _, elem := range []string{corpus, sha1} {
		if err := CheckPathElement(elem); err != nil {
			return "", err
		}
	}
	return filepath.Join(w.root, corpus, sha1+".json"), nil
}

// CheckPathElement returns ErrPathInvalid unless elem can be used as one
// directory or file name under the output directory.
func CheckPathElement(elem string) error {
	if strings.TrimSpace(elem) == "" || elem == "." || elem == ".." ||
		strings.ContainsAny(elem, `/\`) || filepath.Base(elem) != elem {
		return fmt.Errorf("%w: %q", ErrPathInvalid, elem)
	}
	return nil
}

// Write validates rec and writes it atomically, replacing any earlier export of
// the same document. Returns the written path.
func (w *Writer) Write(ctx context.Context, corpus, sha1 string, rec *models.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dest, err := w.Path(corpus, sha1)
	if err != nil {
		return "", err
	}
	if err := ValidateRecord(rec, w.variant); err != nil {
		return "", err
	}
	data, err := Encode(rec)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writeAtomic(dest, data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	w.logger.Info("exported record",
		zap.String("path", dest),
		zap.Int("timexes", len(rec.Timexes)),
	)
	return dest, nil
}

// Encode returns rec as indented JSON with text left unescaped.
func Encode(rec *models.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data to a temp file in dest's directory and renames it
// over dest.
func writeAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, filePerm)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
