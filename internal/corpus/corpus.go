// Package corpus turns reviewer input into the ordered documents of a corpus.
package corpus

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/annotator/internal/docid"
	"github.com/hyperjump/annotator/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	// ErrInvalidRecords is returned when uploaded records do not match the schema.
	ErrInvalidRecords = errors.New("invalid corpus records")
	// ErrMalformed is returned when a corpus file cannot be decoded in its format.
	ErrMalformed = errors.New("malformed corpus file")
)

//go:embed schemas/records.schema.json
var schemaFS embed.FS

var recordsSchema = mustCompileSchema("schemas/records.schema.json")

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to read embedded %s: %v", name, err))
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}
	sch, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// FromLines returns one document per non-empty line of text.
func FromLines(text string) []models.Document {
	return fromSegments(strings.Split(validUTF8(text), "\n"), models.SourceText, false)
}

// FromRecords decodes a JSON array of {body, url, sha1} objects. Records with
// an empty sha1 get the SHA-1 of their body.
func FromRecords(data []byte) ([]models.Document, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecords, err)
	}
	if err := recordsSchema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecords, err)
	}

	var records []models.SourceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecords, err)
	}
	docs := make([]models.Document, 0, len(records))
	for i, r := range records {
		sha := strings.TrimSpace(r.SHA1)
		if sha == "" {
			sha = docid.SHA1(r.Body)
		}
		docs = append(docs, models.Document{
			Index:   i,
			RawText: r.Body,
			URL:     r.URL,
			SHA1:    sha,
			Source:  models.SourceRecords,
		})
	}
	return docs, nil
}

// fromSegments builds documents from segments, dropping empty ones.
// Trailing carriage returns are removed so CRLF input splits cleanly.
func fromSegments(segments []string, source models.Source, withID bool) []models.Document {
	docs := make([]models.Document, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSuffix(s, "\r")
		if s == "" {
			continue
		}
		d := models.Document{Index: len(docs), RawText: s, Source: source}
		if withID {
			d.SHA1 = docid.SHA1(s)
		}
		docs = append(docs, d)
	}
	return docs
}

func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\ufffd")
}
