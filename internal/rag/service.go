// Package rag runs the ask pipeline: safety check, retrieval, generation and audit logging.
package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/prana/internal/llm"
	"github.com/hyperjump/prana/internal/models"
	"github.com/hyperjump/prana/internal/safety"
	"github.com/hyperjump/prana/internal/storage"
	"github.com/hyperjump/prana/internal/vector"
	"github.com/hyperjump/prana/pkg/utils"
	"go.uber.org/zap"
)

// FeedbackReceived is the acknowledgement message for stored feedback.
const FeedbackReceived = "Feedback received successfully"

// DefaultTopK is the number of chunks passed to generation.
const DefaultTopK = 3

// ContextRetriever returns the chunks most relevant to a query.
type ContextRetriever interface {
	GetRelevantContext(ctx context.Context, query string, topK int) ([]vector.Result, error)
}

// InteractionRecorder is the part of the audit store the service writes to.
type InteractionRecorder interface {
	CreateInteraction(ctx context.Context, in *models.Interaction) error
	UpdateFeedback(ctx context.Context, queryID string, fb models.Feedback) (*models.Interaction, error)
}

// Service answers wellness questions. It is safe for concurrent use.
type Service struct {
	gate      *safety.Gate
	retriever ContextRetriever
	generator llm.Generator
	store     InteractionRecorder
	topK      int
	modelUsed string
	logger    *zap.Logger
	newID     func() string
	now       func() time.Time
	inflight  sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTopK sets how many chunks are retrieved per query.
func WithTopK(k int) Option {
	return func(s *Service) { s.topK = k }
}

// WithModelUsed overrides the model name recorded in the audit log.
func WithModelUsed(name string) Option {
	return func(s *Service) { s.modelUsed = name }
}

// WithIDGenerator replaces uuid query ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithClock replaces time.Now for feedback timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// NewService wires the pipeline. store may be nil, in which case nothing is logged
// and Feedback always reports ErrNotFound.
func NewService(gate *safety.Gate, retriever ContextRetriever, generator llm.Generator, store InteractionRecorder, opts ...Option) *Service {
	s := &Service{
		gate:      gate,
		retriever: retriever,
		generator: generator,
		store:     store,
		topK:      DefaultTopK,
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if generator != nil {
		s.modelUsed = generator.Model()
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gate == nil {
		s.gate = safety.Default()
	}
	if s.topK <= 0 {
		s.topK = DefaultTopK
	}
	s.logger = utils.OrNop(s.logger)
	return s
}

// Ask answers one query. Unsafe queries get the safety response without retrieval or
// generation. The interaction is logged in the background after the response is built;
// a logging failure never changes the response.
func (s *Service) Ask(ctx context.Context, req models.AskRequest) (resp *models.AskResponse, err error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	queryID := s.newID()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ask panicked", zap.String("query_id", queryID), zap.Any("panic", r))
			resp, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	verdict := s.gate.Detect(req.Query)
	if verdict.IsUnsafe {
		s.logger.Info("query flagged by safety gate",
			zap.String("query_id", queryID),
			zap.String("category", string(verdict.Category)))
		resp = &models.AskResponse{
			Answer:   safety.Response(verdict.Reason),
			Sources:  []models.Source{},
			IsUnsafe: true,
			QueryID:  queryID,
		}
		s.record(ctx, &models.Interaction{
			QueryID:         queryID,
			UserQuery:       req.Query,
			Safety:          verdict.Model(),
			RetrievedChunks: []models.RetrievedChunk{},
			AIResponse:      resp.Answer,
			ModelUsed:       s.modelUsed,
		})
		return resp, nil
	}

	results, err := s.retriever.GetRelevantContext(ctx, req.Query, s.topK)
	if err != nil {
		s.logger.Error("retrieval failed", zap.String("query_id", queryID), zap.Error(err))
		if errors.Is(err, ErrRetrieval) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	chunks := make([]llm.ContextChunk, len(results))
	sources := make([]models.Source, len(results))
	audit := make([]models.RetrievedChunk, len(results))
	for i, r := range results {
		chunks[i] = llm.ContextChunk{Title: r.Chunk.Title, Content: r.Chunk.Content}
		sources[i] = models.Source{Title: r.Chunk.Title, Link: r.Chunk.SourceLink, ArticleID: r.Chunk.ArticleID}
		audit[i] = models.RetrievedChunk{ChunkID: r.Chunk.ChunkID, Title: r.Chunk.Title, Score: r.Score, Content: r.Chunk.Content}
	}

	answer, err := s.generator.Generate(ctx, req.Query, chunks)
	if err != nil {
		s.logger.Error("generation failed", zap.String("query_id", queryID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	resp = &models.AskResponse{
		Answer:   answer,
		Sources:  sources,
		IsUnsafe: false,
		QueryID:  queryID,
	}
	s.record(ctx, &models.Interaction{
		QueryID:         queryID,
		UserQuery:       req.Query,
		Safety:          verdict.Model(),
		RetrievedChunks: audit,
		AIResponse:      answer,
		ModelUsed:       s.modelUsed,
	})
	return resp, nil
}

// record writes in on its own goroutine. The write outlives the request context but is
// not retried, so an entry can be lost if the process exits first.
func (s *Service) record(ctx context.Context, in *models.Interaction) {
	if s.store == nil {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("interaction logging panicked", zap.String("query_id", in.QueryID), zap.Any("panic", r))
			}
		}()
		if err := s.store.CreateInteraction(context.WithoutCancel(ctx), in); err != nil {
			s.logger.Warn("failed to log interaction", zap.String("query_id", in.QueryID), zap.Error(err))
			return
		}
		s.logger.Debug("interaction logged", zap.String("query_id", in.QueryID))
	}()
}

// Wait blocks until background log writes finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Feedback attaches a rating to a previously served answer.
func (s *Service) Feedback(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.QueryID)
	}
	fb := models.Feedback{
		IsHelpful:  *req.Helpful,
		Rating:     req.Rating,
		Comment:    req.Comment,
		ReceivedAt: s.now(),
	}
	in, err := s.store.UpdateFeedback(ctx, req.QueryID, fb)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.QueryID)
	}
	if err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}
	s.logger.Info("feedback received", zap.String("query_id", in.QueryID), zap.Bool("helpful", fb.IsHelpful))
	return &models.FeedbackResponse{Message: FeedbackReceived, QueryID: in.QueryID}, nil
}
