// Package keyword provides keyword search over the loaded corpus.
package keyword

// Hit is one matching document.
type Hit struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// SearchOptions tunes a search. Nil means plain match scoring.
type SearchOptions struct {
	// PhraseBoost multiplies the score of documents containing the query as a
	// contiguous phrase. Values <= 1 disable the phrase pass.
	PhraseBoost float64
	// Fuzzy matches whitespace-separated query terms within Fuzziness edits.
	Fuzzy bool
	// Fuzziness is the maximum edit distance for fuzzy terms (1 or 2, default 2).
	Fuzziness int
}
