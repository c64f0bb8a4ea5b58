// Package server provides the HTTP API for Prana.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/internal/models"
	"github.com/hyperjump/prana/pkg/utils"
	"go.uber.org/zap"
)

// AskService is the pipeline behind the ask and feedback endpoints.
type AskService interface {
	Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error)
	Feedback(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, error)
	Wait(ctx context.Context) error
}

// IndexInfo describes the vector index being served.
type IndexInfo interface {
	Size() int
	Type() string
}

// InteractionCounter reports the size of the audit log.
type InteractionCounter interface {
	CountInteractions(ctx context.Context) (int64, error)
}

// Server is the HTTP server for the Prana API.
type Server struct {
	service AskService
	index   IndexInfo
	store   InteractionCounter
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil.
func NewServer(
	service AskService,
	index IndexInfo,
	store InteractionCounter,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		service: service,
		index:   index,
		store:   store,
		config:  cfg,
		logger:  utils.OrNop(logger),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/ask", s.handleAsk)
	r.Post("/feedback", s.handleFeedback)
	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server, then gives pending audit writes until ctx
// expires to finish. Writes still pending after that are abandoned.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if werr := s.service.Wait(ctx); werr != nil {
		s.logger.Warn("audit writes still pending at shutdown", zap.Error(werr))
	}
	return err
}
