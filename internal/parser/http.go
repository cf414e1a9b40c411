package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/annotator/internal/models"
)

// HTTPParser calls an external parsing service over HTTP.
type HTTPParser struct {
	baseURL    string
	httpClient *http.Client
}

type parseRequest struct {
	Text string `json:"text"`
}

// parseResponse mirrors the attribute names of the ja-timex TIMEX object.
type parseResponse struct {
	Timexes []models.Tag `json:"timexes"`
}

// NewHTTPParser returns a parser that POSTs to baseURL + "/parse".
// A non-positive timeout defaults to 30 seconds.
func NewHTTPParser(baseURL string, timeout time.Duration) *HTTPParser {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPParser{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Parser.
func (p *HTTPParser) Name() string {
	return "http"
}

// Parse sends text to the service and returns its tags.
func (p *HTTPParser) Parse(ctx context.Context, text string) ([]models.Tag, error) {
	body, err := json.Marshal(parseRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal parse request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/parse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parse request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("parser returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode parse response: %w", err)
	}
	for i := range out.Timexes {
		// ids are assigned at export
		out.Timexes[i].ID = ""
	}
	return out.Timexes, nil
}
