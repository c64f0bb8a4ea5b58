// Package embedding turns text into vectors for indexing and retrieval.
package embedding

import (
	"context"
	"errors"
)

// ErrRateLimited marks an upstream refusal that is worth retrying after a pause.
var ErrRateLimited = errors.New("embedding provider rate limited")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
