// Package retrieval finds the chunks most relevant to a query.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/prana/internal/embedding"
	"github.com/hyperjump/prana/internal/vector"
	"github.com/hyperjump/prana/pkg/utils"
	"go.uber.org/zap"
)

// ErrRetrieval wraps any failure to embed the query or search the index.
var ErrRetrieval = errors.New("retrieval failed")

// Searcher is the read side of a vector index.
type Searcher interface {
	Search(ctx context.Context, query []float32, topK int) ([]vector.Result, error)
}

// Retriever embeds a query and searches the index with it.
type Retriever struct {
	embedder embedding.Embedder
	index    Searcher
	logger   *zap.Logger
}

// NewRetriever creates a retriever.
func NewRetriever(embedder embedding.Embedder, index Searcher, logger *zap.Logger) *Retriever {
	return &Retriever{embedder: embedder, index: index, logger: utils.OrNop(logger)}
}

// GetRelevantContext returns the topK chunks for query, best first, exactly as the index ranked them.
func (r *Retriever) GetRelevantContext(ctx context.Context, query string, topK int) ([]vector.Result, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrRetrieval, err)
	}
	results, err := r.index.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search index: %w", ErrRetrieval, err)
	}
	r.logger.Debug("context retrieved", zap.Int("top_k", topK), zap.Int("results", len(results)))
	return results, nil
}
