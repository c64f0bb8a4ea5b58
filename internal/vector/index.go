// Package vector provides the cosine-similarity index over chunk embeddings.
package vector

import (
	"context"

	"github.com/hyperjump/prana/internal/models"
)

// VectorIndex stores (vector, chunk) pairs and answers nearest-neighbour queries.
// Implementations never fail a search on dimension mismatch or zero vectors; those entries score 0.
type VectorIndex interface {
	Add(ctx context.Context, vector []float32, chunk models.Chunk) error
	Search(ctx context.Context, query []float32, topK int) ([]Result, error)
	Size() int
	Type() string
	Close() error
}

// Entry is one indexed chunk and its embedding, as stored in the snapshot artifact.
type Entry struct {
	Vector   []float32    `json:"vector"`
	Metadata models.Chunk `json:"metadata"`
}

// Result is a search hit. Results are ordered by descending Score, ties by insertion order.
type Result struct {
	Score float64      `json:"score"`
	Chunk models.Chunk `json:"metadata"`
}
