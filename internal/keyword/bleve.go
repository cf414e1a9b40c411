package keyword

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/annotator/internal/models"
)

const textField = "text"

type indexedDoc struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Index is an in-memory bleve index of one corpus. Japanese text is indexed
// as CJK bigrams; other scripts as lowercased words.
type Index struct {
	index bleve.Index
}

// NewIndex builds an index over docs, keyed by document index.
func NewIndex(docs []models.Document) (*Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = cjk.AnalyzerName
	textFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(textField, textFieldMapping)

	urlFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("url", urlFieldMapping)

	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}

	batch := index.NewBatch()
	for _, d := range docs {
		if err := batch.Index(strconv.Itoa(d.Index), indexedDoc{Text: d.RawText, URL: d.URL}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index document %d: %w", d.Index, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index corpus: %w", err)
	}
	return &Index{index: index}, nil
}

// Update replaces the indexed text of document index.
func (x *Index) Update(index int, text, url string) error {
	if err := x.index.Index(strconv.Itoa(index), indexedDoc{Text: text, URL: url}); err != nil {
		return fmt.Errorf("failed to reindex document %d: %w", index, err)
	}
	return nil
}

// Search returns up to limit hits for query ordered by descending score.
func (x *Index) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}
	if opts == nil {
		opts = &SearchOptions{}
	}

	var q blevequery.Query
	if opts.Fuzzy {
		q = buildFuzzyQuery(query, opts.Fuzziness)
	} else {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(textField)
		q = mq
	}

	size := limit
	if opts.PhraseBoost > 1 && size < 50 {
		size = 50
	}
	req := bleve.NewSearchRequest(q)
	req.Size = size
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		i, err := strconv.Atoi(h.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected document id %q: %w", h.ID, err)
		}
		hits = append(hits, Hit{Index: i, Score: h.Score})
	}

	if opts.PhraseBoost > 1 {
		phrase, err := x.phraseMatches(ctx, query, size)
		if err != nil {
			return nil, err
		}
		for i := range hits {
			if phrase[hits[i].Index] {
				hits[i].Score *= opts.PhraseBoost
			}
		}
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// phraseMatches returns the documents containing query as a contiguous phrase.
func (x *Index) phraseMatches(ctx context.Context, query string, size int) (map[int]bool, error) {
	pq := bleve.NewMatchPhraseQuery(query)
	pq.SetField(textField)
	req := bleve.NewSearchRequest(pq)
	req.Size = size
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve phrase search failed: %w", err)
	}
	matches := make(map[int]bool, len(res.Hits))
	for _, h := range res.Hits {
		if i, err := strconv.Atoi(h.ID); err == nil {
			matches[i] = true
		}
	}
	return matches, nil
}

// buildFuzzyQuery ORs a fuzzy query per whitespace-separated term.
func buildFuzzyQuery(query string, fuzziness int) blevequery.Query {
	if fuzziness <= 0 {
		fuzziness = 2
	}
	terms := tokenizeQuery(query)
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(textField)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// DocCount returns the number of indexed documents.
func (x *Index) DocCount() (uint64, error) {
	return x.index.DocCount()
}

// Terms returns every indexed term of the text field with its document frequency.
func (x *Index) Terms() (map[string]int, error) {
	dict, err := x.index.FieldDict(textField)
	if err != nil {
		return nil, fmt.Errorf("failed to read term dictionary: %w", err)
	}
	defer dict.Close()

	terms := make(map[string]int)
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read term dictionary: %w", err)
		}
		if entry == nil {
			break
		}
		terms[entry.Term] = int(entry.Count)
	}
	return terms, nil
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}
