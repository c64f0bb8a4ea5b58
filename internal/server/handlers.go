package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/internal/models"
	"github.com/hyperjump/prana/internal/rag"
	"github.com/hyperjump/prana/internal/storage"
	"go.uber.org/zap"
)

// GenericErrorMessage is the only error text callers see for server-side failures.
const GenericErrorMessage = "An internal error occurred while processing your request."

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.service.Ask(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.logger.Debug("ask answered", zap.String("query_id", resp.QueryID), zap.Bool("unsafe", resp.IsUnsafe), zap.Int("sources", len(resp.Sources)))
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.service.Feedback(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"vector_index_type":    s.index.Type(),
		"vector_index_entries": s.index.Size(),
	}
	if s.store != nil {
		n, err := s.store.CountInteractions(r.Context())
		if err != nil {
			s.logger.Error("status: count interactions failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, GenericErrorMessage)
			return
		}
		resp["interactions"] = n
	}

	cfg := s.config
	resp["config"] = map[string]interface{}{
		"top_k":            cfg.Retrieval.TopK,
		"index_source":     cfg.Index.Source,
		"embedding_model":  cfg.Embedding.Model,
		"generation_model": cfg.Generation.Model,
		"storage_driver":   cfg.Storage.Driver,
		"chunk_target":     cfg.Chunking.TargetSize,
		"chunk_overlap":    cfg.Chunking.Overlap,
	}
	paths := append([]string{cfg.Corpus.ChunksPath}, storage.Paths(cfg.Storage)...)
	if cfg.Index.Source != config.SourceEmbedded {
		paths = append(paths, cfg.Index.Path)
	}
	if usage, total, err := storage.DiskUsage(paths...); err == nil {
		resp["disk_usage_bytes"] = total
		resp["disk_usage"] = usage
	} else {
		s.logger.Debug("status: disk usage failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondServiceError maps pipeline errors to status codes. Only validation and
// not-found errors expose their text.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rag.ErrValidation):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rag.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Interaction not found")
	default:
		s.logger.Error("request failed", zap.Error(err))
		body := map[string]string{"error": GenericErrorMessage}
		switch {
		case errors.Is(err, rag.ErrRetrieval):
			body["message"] = "Failed to retrieve relevant knowledge for your query."
		case errors.Is(err, rag.ErrGeneration):
			body["message"] = "Failed to generate a response."
		}
		s.respondJSON(w, http.StatusInternalServerError, body)
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
