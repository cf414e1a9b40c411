package keyword

import (
	"sort"
	"strings"
	"unicode"
)

// Suggester proposes corrections for misspelled Latin-script query words
// from the corpus term dictionary. CJK bigrams are never suggested.
type Suggester struct {
	terms       map[string]int
	maxDistance int
	minFreq     int
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SuggesterOption {
	return func(s *Suggester) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms found in fewer documents.
func WithMinFrequency(f int) SuggesterOption {
	return func(s *Suggester) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// NewSuggester creates a suggester over terms (term -> document frequency).
func NewSuggester(terms map[string]int, opts ...SuggesterOption) *Suggester {
	s := &Suggester{maxDistance: 2, minFreq: 1, terms: make(map[string]int)}
	for _, opt := range opts {
		opt(s)
	}
	for t, freq := range terms {
		if isLatinWord(t) {
			s.terms[t] = freq
		}
	}
	return s
}

type candidate struct {
	term     string
	distance int
	score    float64
}

// Suggest returns the best correction for term, or "" when term is known or
// nothing is close enough.
func (s *Suggester) Suggest(term string) string {
	term = strings.ToLower(term)
	if !isLatinWord(term) {
		return ""
	}
	if _, ok := s.terms[term]; ok {
		return ""
	}
	var cands []candidate
	for t, freq := range s.terms {
		if freq < s.minFreq {
			continue
		}
		diff := len([]rune(t)) - len([]rune(term))
		if diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		d := EditDistance(term, t)
		if d > s.maxDistance {
			continue
		}
		cands = append(cands, candidate{term: t, distance: d, score: float64(freq) / float64(d+1)})
	}
	if len(cands) == 0 {
		return ""
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].term < cands[j].term
	})
	return cands[0].term
}

// SuggestQuery corrects every misspelled word of query. It returns "" when no
// word changed.
func (s *Suggester) SuggestQuery(query string) string {
	words := tokenizeQuery(query)
	changed := false
	for i, w := range words {
		if fix := s.Suggest(w); fix != "" {
			words[i] = fix
			changed = true
		}
	}
	if !changed {
		return ""
	}
	return strings.Join(words, " ")
}

func isLatinWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.In(r, unicode.Latin) {
			return false
		}
	}
	return true
}
