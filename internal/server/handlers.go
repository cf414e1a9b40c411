package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hyperjump/annotator/internal/app"
	"github.com/hyperjump/annotator/internal/corpus"
	"github.com/hyperjump/annotator/internal/docstore"
	"github.com/hyperjump/annotator/internal/export"
	"github.com/hyperjump/annotator/internal/models"
	"github.com/hyperjump/annotator/internal/navigation"
	"github.com/hyperjump/annotator/internal/session"
	"go.uber.org/zap"
)

var validate = validator.New()

type loadTextRequest struct {
	Text string `json:"text" validate:"required"`
}

type editTextRequest struct {
	Text *string `json:"text" validate:"required"`
}

type seekRequest struct {
	Index *int `json:"index" validate:"required"`
}

type addTagRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.annotator.Status()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"workspace": st,
		"config": map[string]interface{}{
			"parser_type":   s.config.Parser.Type,
			"parser_url":    s.config.Parser.URL,
			"cache_size":    s.config.Parser.CacheSize,
			"export_schema": s.config.Export.Schema,
			"output_dir":    s.config.Export.OutputDir,
		},
	})
}

func (s *Server) handleLoadText(w http.ResponseWriter, r *http.Request) {
	var req loadTextRequest
	if !s.decode(w, r, &req) {
		return
	}
	info, err := s.annotator.LoadLines(req.Text)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleLoadRecords(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.failBody(w, err)
		return
	}
	info, err := s.annotator.LoadRecords(data, r.URL.Query().Get("corpus"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleLoadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.failBody(w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.failBody(w, err)
		return
	}
	name := r.FormValue("corpus")
	if name == "" {
		name = r.URL.Query().Get("corpus")
	}
	s.logger.Debug("corpus upload", zap.String("filename", header.Filename), zap.Int("bytes", len(content)))
	info, err := s.annotator.LoadBytes(header.Filename, content, name)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit := s.config.Search.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if maxLimit := s.config.Search.MaxLimit; maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	fuzzy := false
	if raw := r.URL.Query().Get("fuzzy"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "fuzzy must be a boolean")
			return
		}
		fuzzy = b
	}
	res, err := s.annotator.Search(r.Context(), q, limit, fuzzy)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string][]models.TagType{"types": models.TagTypes})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	s.respondView(w)(s.annotator.Current(r.Context()))
}

func (s *Server) handleEditText(w http.ResponseWriter, r *http.Request) {
	var req editTextRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respondView(w)(s.annotator.EditText(r.Context(), *req.Text))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.respondView(w)(s.annotator.Next(r.Context()))
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.respondView(w)(s.annotator.Previous(r.Context()))
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respondView(w)(s.annotator.Seek(r.Context(), *req.Index))
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	var req addTagRequest
	if !s.decode(w, r, &req) {
		return
	}
	v, err := s.annotator.AddTag(r.Context(), req.Text)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, v)
}

func (s *Server) handleEditTag(w http.ResponseWriter, r *http.Request) {
	i, ok := s.tagIndex(w, r)
	if !ok {
		return
	}
	var req session.TagEdit
	if !s.decodeJSON(w, r, &req) {
		return
	}
	s.respondView(w)(s.annotator.EditTag(r.Context(), i, req))
}

func (s *Server) handleSetDeleted(deleted bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, ok := s.tagIndex(w, r)
		if !ok {
			return
		}
		s.respondView(w)(s.annotator.SetDeleted(r.Context(), i, deleted))
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res, err := s.annotator.Export(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) tagIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "i"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "tag index must be an integer")
		return 0, false
	}
	return i, true
}

// decodeJSON reads a JSON body into v. It writes the error response and
// returns false on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.failBody(w, err)
		return false
	}
	return true
}

// decode is decodeJSON followed by struct validation of the request.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if !s.decodeJSON(w, r, v) {
		return false
	}
	if err := validate.Struct(v); err != nil {
		s.fail(w, err)
		return false
	}
	return true
}

func (s *Server) respondView(w http.ResponseWriter) func(*app.View, error) {
	return func(v *app.View, err error) {
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, v)
	}
}

func (s *Server) failBody(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		s.respondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
		return
	}
	s.respondError(w, http.StatusBadRequest, "invalid request body")
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		validationErrs validator.ValidationErrors
		spanErr        *export.SpanError
	)
	switch {
	case errors.As(err, &validationErrs),
		errors.Is(err, corpus.ErrInvalidRecords),
		errors.Is(err, corpus.ErrMalformed),
		errors.Is(err, app.ErrEmptyCorpus),
		errors.Is(err, export.ErrPathInvalid):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrTagIndex):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNoCorpus), errors.Is(err, navigation.ErrInvalidState):
		return http.StatusConflict
	case errors.As(err, &spanErr), errors.Is(err, export.ErrInvalidRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, docstore.ErrParse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
