// Package server provides the HTTP API the review front end talks to.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/annotator/internal/app"
	"github.com/hyperjump/annotator/internal/config"
	"github.com/hyperjump/annotator/pkg/utils"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server is the HTTP server for the annotation API.
type Server struct {
	annotator *app.Annotator
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server for annotator.
func NewServer(annotator *app.Annotator, cfg *config.Config, logger *zap.Logger) *Server {
	logger = utils.LoggerOrNop(logger)
	return &Server{
		annotator: annotator,
		config:    cfg,
		logger:    logger,
	}
}

// Router returns the API handler with its middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if t := s.config.Server.RequestTimeoutSeconds; t > 0 {
		r.Use(middleware.Timeout(time.Duration(t) * time.Second))
	}
	r.Use(middleware.Compress(5))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.config.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/types", s.handleTypes)

		r.Route("/corpus", func(r chi.Router) {
			r.Use(maxRequestSize(s.config.Server.MaxUploadBytes))
			r.Post("/text", s.handleLoadText)
			r.Post("/records", s.handleLoadRecords)
			r.Post("/file", s.handleLoadFile)
			r.Get("/search", s.handleSearch)
		})

		r.Get("/document", s.handleDocument)
		r.Put("/document/text", s.handleEditText)

		r.Post("/navigation/next", s.handleNext)
		r.Post("/navigation/previous", s.handlePrevious)
		r.Post("/navigation/seek", s.handleSeek)

		r.Post("/tags", s.handleAddTag)
		r.Put("/tags/{i}", s.handleEditTag)
		r.Put("/tags/{i}/deleted", s.handleSetDeleted(true))
		r.Delete("/tags/{i}/deleted", s.handleSetDeleted(false))

		r.Post("/export", s.handleExport)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
