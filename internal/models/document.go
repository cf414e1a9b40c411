// Package models defines core data structures for documents, TIMEX3 tags, and exported records.
package models

// Source identifies how a document entered the workspace.
type Source string

const (
	// SourceText is free-form text, one document per line.
	SourceText Source = "text"
	// SourceRecords is an uploaded JSON array of records.
	SourceRecords Source = "records"
	// SourceFile is an office or PDF file split into documents.
	SourceFile Source = "file"
)

// Document is one unit of review: a raw text plus optional record metadata.
type Document struct {
	Index   int    `json:"index"`
	RawText string `json:"text"`
	URL     string `json:"url,omitempty"`
	SHA1    string `json:"sha1,omitempty"`
	Source  Source `json:"source"`
}

// SourceRecord is one element of an uploaded JSON corpus.
type SourceRecord struct {
	Body string `json:"body"`
	URL  string `json:"url"`
	SHA1 string `json:"sha1"`
}
