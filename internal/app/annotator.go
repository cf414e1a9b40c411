// Package app holds the annotation workspace: the loaded corpus, the reviewer's
// position in it, and the tag sessions of the documents visited so far.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hyperjump/annotator/internal/corpus"
	"github.com/hyperjump/annotator/internal/docid"
	"github.com/hyperjump/annotator/internal/docstore"
	"github.com/hyperjump/annotator/internal/export"
	"github.com/hyperjump/annotator/internal/highlight"
	"github.com/hyperjump/annotator/internal/keyword"
	"github.com/hyperjump/annotator/internal/models"
	"github.com/hyperjump/annotator/internal/navigation"
	"github.com/hyperjump/annotator/internal/parser"
	"github.com/hyperjump/annotator/internal/session"
	"github.com/hyperjump/annotator/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrNoCorpus is returned by document actions before a corpus is loaded.
	ErrNoCorpus = errors.New("no corpus loaded")
	// ErrEmptyCorpus is returned when the input holds no documents.
	ErrEmptyCorpus = errors.New("corpus has no documents")
)

const snippetLen = 80

// Annotator is the single workspace of one reviewer. Every method takes the
// workspace lock, so actions run to completion one at a time.
type Annotator struct {
	mu sync.Mutex

	parser        parser.Parser
	loader        *corpus.Loader
	writer        *export.Writer
	defaultCorpus string
	phraseBoost   float64
	fuzziness     int
	suggestOpts   []keyword.SuggesterOption
	logger        *zap.Logger

	corpusName string
	docs       []models.Document
	texts      []string
	counter    *navigation.Counter
	store      *docstore.Store
	index      *keyword.Index
	suggester  *keyword.Suggester
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Annotator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithDefaultCorpus names the corpus used for typed text.
func WithDefaultCorpus(name string) Option {
	return func(a *Annotator) {
		if name != "" {
			a.defaultCorpus = name
		}
	}
}

// WithPhraseBoost sets the keyword search phrase boost (values <= 1 disable it).
func WithPhraseBoost(boost float64) Option {
	return func(a *Annotator) {
		a.phraseBoost = boost
	}
}

// WithFuzziness sets the edit distance of fuzzy searches.
func WithFuzziness(n int) Option {
	return func(a *Annotator) {
		a.fuzziness = n
	}
}

// WithSuggesterOptions tunes the spelling suggestions built on each corpus load.
func WithSuggesterOptions(opts ...keyword.SuggesterOption) Option {
	return func(a *Annotator) {
		a.suggestOpts = append(a.suggestOpts, opts...)
	}
}

// New creates an empty workspace that parses with p and exports through w.
func New(p parser.Parser, w *export.Writer, opts ...Option) *Annotator {
	a := &Annotator{
		parser:        p,
		writer:        w,
		defaultCorpus: "default",
		phraseBoost:   2,
		fuzziness:     2,
		logger:        zap.NewNop(),
		counter:       navigation.NewCounter(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.loader = corpus.NewLoader(corpus.WithLogger(a.logger))
	a.store = docstore.New(p, docstore.WithLogger(a.logger))
	return a
}

// CorpusInfo describes a freshly loaded corpus.
type CorpusInfo struct {
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

// LoadLines replaces the workspace with one document per non-empty line of text.
func (a *Annotator) LoadLines(text string) (*CorpusInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load(corpus.FromLines(text), a.defaultCorpus)
}

// LoadRecords replaces the workspace with uploaded JSON records. An empty name
// gets a generated one.
func (a *Annotator) LoadRecords(data []byte, name string) (*CorpusInfo, error) {
	docs, err := corpus.FromRecords(data)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load(docs, uploadName(name))
}

// LoadBytes replaces the workspace with the documents of an uploaded file.
// The corpus is named after the file unless name is given.
func (a *Annotator) LoadBytes(filename string, content []byte, name string) (*CorpusInfo, error) {
	docs, err := a.loader.LoadBytes(content, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filename, err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load(docs, uploadName(name))
}

// LoadFile replaces the workspace with the documents of the file at path.
func (a *Annotator) LoadFile(path, name string) (*CorpusInfo, error) {
	docs, err := a.loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load(docs, uploadName(name))
}

func uploadName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "upload-" + uuid.NewString()[:8]
}

// load resets the workspace to docs. Callers hold the lock.
func (a *Annotator) load(docs []models.Document, name string) (*CorpusInfo, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}
	if err := export.CheckPathElement(name); err != nil {
		return nil, fmt.Errorf("invalid corpus name: %w", err)
	}
	index, err := keyword.NewIndex(docs)
	if err != nil {
		return nil, err
	}
	suggester, err := a.newSuggester(index)
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	counter := navigation.NewCounter()
	if err := counter.SetTotal(len(docs)); err != nil {
		_ = index.Close()
		return nil, err
	}
	if a.index != nil {
		_ = a.index.Close()
	}

	a.corpusName = name
	a.docs = docs
	a.texts = make([]string, len(docs))
	for i, d := range docs {
		a.texts[i] = d.RawText
	}
	a.counter = counter
	a.store.Reset()
	a.index = index
	a.suggester = suggester

	a.logger.Info("corpus loaded",
		zap.String("corpus", name),
		zap.Int("documents", len(docs)),
	)
	return &CorpusInfo{Name: name, Documents: len(docs)}, nil
}

func (a *Annotator) newSuggester(index *keyword.Index) (*keyword.Suggester, error) {
	terms, err := index.Terms()
	if err != nil {
		return nil, err
	}
	return keyword.NewSuggester(terms, a.suggestOpts...), nil
}

// View is everything the reviewer sees for the current document.
// Surfaces holds the text each tag's span covers in the current text.
type View struct {
	Index    int               `json:"index"`
	Total    int               `json:"total"`
	Corpus   string            `json:"corpus"`
	Document models.Document   `json:"document"`
	Text     string            `json:"text"`
	Edited   bool              `json:"edited"`
	Tags     []models.Tag      `json:"tags"`
	Labels   []string          `json:"labels"`
	Surfaces []string          `json:"surfaces"`
	Edits    []session.TagEdit `json:"edits"`
	Markup   string            `json:"markup"`
	HTML     string            `json:"html"`
}

// Current returns the view of the current document, parsing it on first visit
// or after its text changed.
func (a *Annotator) Current(ctx context.Context) (*View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view(ctx)
}

// EditText replaces the working text of the current document. The document's
// tags are regenerated from the new text and the search index follows it.
func (a *Annotator) EditText(ctx context.Context, text string) (*View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireCorpus(); err != nil {
		return nil, err
	}
	i := a.counter.Index()
	if err := a.index.Update(i, text, a.docs[i].URL); err != nil {
		return nil, err
	}
	suggester, err := a.newSuggester(a.index)
	if err != nil {
		return nil, err
	}
	a.texts[i] = text
	a.suggester = suggester
	return a.view(ctx)
}

// Next moves to the next document and returns its view.
func (a *Annotator) Next(ctx context.Context) (*View, error) {
	return a.move(ctx, func(c *navigation.Counter) { c.Next() })
}

// Previous moves to the previous document and returns its view.
func (a *Annotator) Previous(ctx context.Context) (*View, error) {
	return a.move(ctx, func(c *navigation.Counter) { c.Previous() })
}

// Seek jumps to document i, clamped into the corpus, and returns its view.
func (a *Annotator) Seek(ctx context.Context, i int) (*View, error) {
	return a.move(ctx, func(c *navigation.Counter) { c.Seek(i) })
}

func (a *Annotator) move(ctx context.Context, step func(*navigation.Counter)) (*View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireCorpus(); err != nil {
		return nil, err
	}
	step(a.counter)
	return a.view(ctx)
}

// EditTag replaces the field edits of tag i of the current document.
func (a *Annotator) EditTag(ctx context.Context, i int, e session.TagEdit) (*View, error) {
	return a.withSession(ctx, func(s *session.Session) error { return s.Edit(i, e) })
}

// SetDeleted flags or un-flags tag i of the current document for exclusion at export.
func (a *Annotator) SetDeleted(ctx context.Context, i int, deleted bool) (*View, error) {
	return a.withSession(ctx, func(s *session.Session) error { return s.SetDeleted(i, deleted) })
}

// AddTag appends a reviewer tag for candidate to the current document.
func (a *Annotator) AddTag(ctx context.Context, candidate string) (*View, error) {
	return a.withSession(ctx, func(s *session.Session) error {
		s.AddTag(candidate)
		return nil
	})
}

func (a *Annotator) withSession(ctx context.Context, fn func(*session.Session) error) (*View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return a.view(ctx)
}

// ExportResult is the outcome of exporting the current document.
type ExportResult struct {
	Record *models.Record `json:"record"`
	Path   string         `json:"path"`
}

// Export builds the record of the current document from its edits and writes
// it to <output>/<corpus>/<sha1>.json. Documents without a record id are
// identified by the SHA-1 of their working text. Nothing is written when a
// span field does not parse.
func (a *Annotator) Export(ctx context.Context) (*ExportResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := export.Build(sess.Text(), sess.Edits(), a.writer.Variant())
	if err != nil {
		return nil, err
	}
	doc := a.docs[a.counter.Index()]
	id := doc.SHA1
	if id == "" {
		id = docid.SHA1(sess.Text())
	}
	path, err := a.writer.Write(ctx, a.corpusName, id, rec)
	if err != nil {
		return nil, err
	}
	return &ExportResult{Record: rec, Path: path}, nil
}

// SearchHit is a keyword search hit with a preview of the document.
type SearchHit struct {
	Index   int     `json:"index"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// SearchResult is the answer to a corpus search.
type SearchResult struct {
	Query      string      `json:"query"`
	Hits       []SearchHit `json:"hits"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Search finds corpus documents matching query. fuzzy tolerates misspelled
// words. When nothing matches, a spelling correction of the query is
// suggested if one exists.
func (a *Annotator) Search(ctx context.Context, query string, limit int, fuzzy bool) (*SearchResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireCorpus(); err != nil {
		return nil, err
	}
	hits, err := a.index.Search(ctx, query, limit, &keyword.SearchOptions{
		PhraseBoost: a.phraseBoost,
		Fuzzy:       fuzzy,
		Fuzziness:   a.fuzziness,
	})
	if err != nil {
		return nil, err
	}
	res := &SearchResult{Query: query, Hits: make([]SearchHit, 0, len(hits))}
	for _, h := range hits {
		res.Hits = append(res.Hits, SearchHit{
			Index:   h.Index,
			Score:   h.Score,
			Snippet: utils.Truncate(a.texts[h.Index], snippetLen),
		})
	}
	if len(hits) == 0 {
		res.Suggestion = a.suggester.SuggestQuery(query)
	}
	return res, nil
}

// Status summarizes the workspace.
type Status struct {
	Loaded    bool         `json:"loaded"`
	Corpus    string       `json:"corpus,omitempty"`
	Documents int          `json:"documents"`
	Indexed   uint64       `json:"indexed"`
	Index     int          `json:"index"`
	Sessions  int          `json:"sessions"`
	Parser    string       `json:"parser"`
	Schema    string       `json:"schema"`
	OutputDir string       `json:"output_dir"`
	Exports   export.Stats `json:"exports"`
}

// Status reports the workspace state and the records exported so far.
func (a *Annotator) Status() (*Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	stats, err := export.CollectStats(a.writer.Root())
	if err != nil {
		return nil, fmt.Errorf("failed to collect export stats: %w", err)
	}
	var indexed uint64
	if a.index != nil {
		if indexed, err = a.index.DocCount(); err != nil {
			return nil, fmt.Errorf("failed to count indexed documents: %w", err)
		}
	}
	return &Status{
		Loaded:    a.docs != nil,
		Corpus:    a.corpusName,
		Documents: len(a.docs),
		Indexed:   indexed,
		Index:     a.counter.Index(),
		Sessions:  a.store.Len(),
		Parser:    a.parser.Name(),
		Schema:    string(a.writer.Variant()),
		OutputDir: a.writer.Root(),
		Exports:   stats,
	}, nil
}

func (a *Annotator) requireCorpus() error {
	if a.docs == nil {
		return ErrNoCorpus
	}
	return nil
}

// session returns the current document's session. Callers hold the lock.
func (a *Annotator) session(ctx context.Context) (*session.Session, error) {
	if err := a.requireCorpus(); err != nil {
		return nil, err
	}
	i := a.counter.Index()
	return a.store.Get(ctx, i, a.texts[i])
}

// view builds the current document's view. Callers hold the lock.
func (a *Annotator) view(ctx context.Context) (*View, error) {
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	i := a.counter.Index()
	total, _ := a.counter.Total()

	tags := sess.Tags()
	labels := make([]string, len(tags))
	surfaces := make([]string, len(tags))
	for n, t := range tags {
		labels[n] = t.Label()
		surfaces[n] = utils.RuneSlice(sess.Text(), t.Span.Start, t.Span.End)
	}

	var marked []models.Tag
	for _, t := range sess.ActiveTags() {
		if t.Span.Len() > 0 {
			marked = append(marked, t)
		}
	}
	markup := highlight.Markup(sess.Text(), marked)
	html, err := highlight.RenderHTML(markup)
	if err != nil {
		return nil, err
	}

	return &View{
		Index:    i,
		Total:    total,
		Corpus:   a.corpusName,
		Document: a.docs[i],
		Text:     sess.Text(),
		Edited:   sess.Text() != a.docs[i].RawText,
		Tags:     tags,
		Labels:   labels,
		Surfaces: surfaces,
		Edits:    sess.Edits(),
		Markup:   markup,
		HTML:     html,
	}, nil
}
