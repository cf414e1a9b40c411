package app

import (
	"context"
	"fmt"

	"github.com/hyperjump/annotator/internal/docid"
	"github.com/hyperjump/annotator/internal/export"
	"github.com/hyperjump/annotator/internal/models"
	"github.com/hyperjump/annotator/internal/parser"
	"github.com/hyperjump/annotator/internal/session"
	"github.com/hyperjump/annotator/pkg/utils"
	"go.uber.org/zap"
)

// PreannotateResult is the unreviewed export of one document.
type PreannotateResult struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Timexes int    `json:"timexes"`
	Path    string `json:"path,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Preannotate parses every document in order and writes the parser's tags as
// records without review. A failing document is reported in its result and
// does not stop the run; a cancelled context does.
func Preannotate(ctx context.Context, p parser.Parser, w *export.Writer, corpusName string, docs []models.Document, logger *zap.Logger) ([]PreannotateResult, error) {
	logger = utils.LoggerOrNop(logger)
	if err := export.CheckPathElement(corpusName); err != nil {
		return nil, fmt.Errorf("invalid corpus name: %w", err)
	}
	results := make([]PreannotateResult, 0, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := PreannotateResult{Index: d.Index, Text: d.RawText}
		path, n, err := preannotateOne(ctx, p, w, corpusName, d)
		if err != nil {
			logger.Warn("preannotation failed", zap.Int("index", d.Index), zap.Error(err))
			res.Err = err.Error()
		}
		res.Path, res.Timexes = path, n
		results = append(results, res)
	}
	return results, nil
}

func preannotateOne(ctx context.Context, p parser.Parser, w *export.Writer, corpusName string, d models.Document) (string, int, error) {
	tags, err := p.Parse(ctx, d.RawText)
	if err != nil {
		return "", 0, err
	}
	sess := session.New(d.RawText, tags)
	rec, err := export.Build(d.RawText, sess.Edits(), w.Variant())
	if err != nil {
		return "", 0, err
	}
	id := d.SHA1
	if id == "" {
		id = docid.SHA1(d.RawText)
	}
	path, err := w.Write(ctx, corpusName, id, rec)
	if err != nil {
		return "", 0, err
	}
	return path, len(rec.Timexes), nil
}
