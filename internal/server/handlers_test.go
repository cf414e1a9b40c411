package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hyperjump/annotator/internal/app"
	"github.com/hyperjump/annotator/internal/config"
	"github.com/hyperjump/annotator/internal/docstore"
	"github.com/hyperjump/annotator/internal/export"
	"github.com/hyperjump/annotator/internal/parser"
	"github.com/hyperjump/annotator/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const scenario = "Meet me on March 3rd at 10am"

func newTestServer(t *testing.T, p parser.Parser) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.Export.OutputDir = t.TempDir()
	cfg.Search.MaxLimit = 5
	a := app.New(p, export.NewWriter(cfg.Export.OutputDir, export.VariantExtended))
	return NewServer(a, cfg, zap.NewNop()).Router()
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case string:
		r = httptest.NewRequest(method, path, strings.NewReader(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(data))
	}
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) app.View {
	t.Helper()
	var v app.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out["error"]
}

func loadScenario(t *testing.T, h http.Handler) {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/v1/corpus/text", map[string]string{"text": scenario + "\n毎週月曜日"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestDocumentBeforeLoad(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	w := do(t, h, http.MethodGet, "/api/v1/document", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, errorMessage(t, w), "no corpus loaded")
}

func TestLoadText_Validation(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	w := do(t, h, http.MethodPost, "/api/v1/corpus/text", map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/corpus/text", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", errorMessage(t, w))

	w = do(t, h, http.MethodPost, "/api/v1/corpus/text", map[string]string{"text": "\n\n"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewFlow(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	loadScenario(t, h)

	w := do(t, h, http.MethodGet, "/api/v1/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	assert.Equal(t, "Meet me on  **March 3rd**  at  **10am** ", v.Markup)
	require.Len(t, v.Edits, 2)

	w = do(t, h, http.MethodPost, "/api/v1/tags", map[string]string{"text": "Meet"})
	require.Equal(t, http.StatusCreated, w.Code)
	v = decodeView(t, w)
	require.Len(t, v.Tags, 3)

	edit := v.Edits[2]
	edit.Type = "DATE"
	edit.Value = "PRESENT_REF"
	w = do(t, h, http.MethodPut, "/api/v1/tags/2", edit)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v = decodeView(t, w)
	assert.Equal(t, "PRESENT_REF", v.Edits[2].Value)

	w = do(t, h, http.MethodPut, "/api/v1/tags/1/deleted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeView(t, w).Edits[1].Deleted)

	w = do(t, h, http.MethodPost, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res app.ExportResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.Len(t, res.Record.Timexes, 2)
	assert.Equal(t, "Meet", res.Record.Timexes[0].Text)
	assert.Equal(t, "t0", res.Record.Timexes[0].TID)
	assert.Equal(t, "March 3rd", res.Record.Timexes[1].Text)
	assert.NoError(t, export.ValidateFile(res.Path, export.VariantExtended))

	w = do(t, h, http.MethodDelete, "/api/v1/tags/1/deleted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeView(t, w).Edits[1].Deleted)
}

func TestTagErrors(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	loadScenario(t, h)

	w := do(t, h, http.MethodPut, "/api/v1/tags/9/deleted", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPut, "/api/v1/tags/x", session.TagEdit{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/api/v1/tags/0", session.TagEdit{Type: "WEEKDAY", SpanStart: "11", SpanEnd: "20"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport_SpanParseError(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	loadScenario(t, h)

	v := decodeView(t, do(t, h, http.MethodGet, "/api/v1/document", nil))
	edit := v.Edits[0]
	edit.SpanStart = "abc"
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/api/v1/tags/0", edit).Code)

	w := do(t, h, http.MethodPost, "/api/v1/export", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, errorMessage(t, w), "abc")
}

func TestNavigationAndEditText(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	loadScenario(t, h)

	v := decodeView(t, do(t, h, http.MethodPost, "/api/v1/navigation/next", nil))
	assert.Equal(t, 1, v.Index)
	v = decodeView(t, do(t, h, http.MethodPost, "/api/v1/navigation/next", nil))
	assert.Equal(t, 1, v.Index)
	v = decodeView(t, do(t, h, http.MethodPost, "/api/v1/navigation/previous", nil))
	assert.Equal(t, 0, v.Index)
	v = decodeView(t, do(t, h, http.MethodPost, "/api/v1/navigation/seek", map[string]int{"index": 1}))
	assert.Equal(t, 1, v.Index)

	w := do(t, h, http.MethodPost, "/api/v1/navigation/seek", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/api/v1/document/text", map[string]string{"text": "毎週火曜日と3日間"})
	require.Equal(t, http.StatusOK, w.Code)
	v = decodeView(t, w)
	assert.True(t, v.Edited)
	assert.Len(t, v.Tags, 2)
}

func TestParserFailure(t *testing.T) {
	h := newTestServer(t, parser.NewFailingMockParser(errors.New("connection refused")))
	loadScenario(t, h)
	w := do(t, h, http.MethodGet, "/api/v1/document", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, errorMessage(t, w), "connection refused")
}

func TestLoadRecords(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	body := `[{"body": "3日間の出張", "url": "https://example.com", "sha1": ""}]`
	w := do(t, h, http.MethodPost, "/api/v1/corpus/records?corpus=news", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var info app.CorpusInfo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, "news", info.Name)
	assert.Equal(t, 1, info.Documents)

	w = do(t, h, http.MethodPost, "/api/v1/corpus/records", `[{"body": "x"}]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func uploadFile(t *testing.T, h http.Handler, filename string, content []byte, corpusName string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	if corpusName != "" {
		require.NoError(t, mw.WriteField("corpus", corpusName))
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/corpus/file", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestLoadFile(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	w := uploadFile(t, h, "notes.txt", []byte("明日\n7月18日"), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var info app.CorpusInfo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, "notes", info.Name)
	assert.Equal(t, 2, info.Documents)

	w = uploadFile(t, h, "broken.docx", []byte("not a zip"), "x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/corpus/file", strings.NewReader(""))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	loadScenario(t, h)

	w := do(t, h, http.MethodGet, "/api/v1/corpus/search?q=march&limit=100", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res app.SearchResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.Len(t, res.Hits, 1)
	assert.Equal(t, 0, res.Hits[0].Index)

	w = do(t, h, http.MethodGet, "/api/v1/corpus/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodGet, "/api/v1/corpus/search?q=a&limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodGet, "/api/v1/corpus/search?q=a&fuzzy=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "fuzzy must be a boolean", errorMessage(t, w))
}

func TestSearch_Fuzzy(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	loadScenario(t, h)

	w := do(t, h, http.MethodGet, "/api/v1/corpus/search?q=marhc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res app.SearchResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Empty(t, res.Hits)
	assert.Equal(t, "march", res.Suggestion)

	w = do(t, h, http.MethodGet, "/api/v1/corpus/search?q=marhc&fuzzy=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = app.SearchResult{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.Len(t, res.Hits, 1)
	assert.Equal(t, 0, res.Hits[0].Index)
}

func TestSearch_AfterEditText(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	loadScenario(t, h)

	w := do(t, h, http.MethodPut, "/api/v1/document/text", map[string]string{"text": "会議は明日です"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/corpus/search?q="+url.QueryEscape("明日"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res app.SearchResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.Len(t, res.Hits, 1)
	assert.Equal(t, 0, res.Hits[0].Index)
}

func TestTypes(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	w := do(t, h, http.MethodGet, "/api/v1/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Types []string `json:"types"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, []string{"DATE", "TIME", "DURATION", "SET"}, out.Types)
}

func TestStatus(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	loadScenario(t, h)
	w := do(t, h, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Workspace app.Status             `json:"workspace"`
		Config    map[string]interface{} `json:"config"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, 2, out.Workspace.Documents)
	assert.Equal(t, uint64(2), out.Workspace.Indexed)
	assert.Equal(t, "mock", out.Workspace.Parser)
	assert.Equal(t, "extended", out.Config["export_schema"])
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, parser.NewMockParser())
	r := httptest.NewRequest(http.MethodOptions, "/api/v1/export", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{app.ErrNoCorpus, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", session.ErrTagIndex), http.StatusNotFound},
		{&export.SpanError{Tag: 0, Field: "span start", Value: "abc", Err: errors.New("bad")}, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: boom", docstore.ErrParse), http.StatusBadGateway},
		{export.ErrPathInvalid, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
