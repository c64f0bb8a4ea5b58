package indexer

import (
	"context"
	"fmt"

	"github.com/hyperjump/prana/internal/embedding"
	"github.com/hyperjump/prana/internal/models"
	"github.com/hyperjump/prana/internal/vector"
	"github.com/hyperjump/prana/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Ingestor embeds chunks one at a time and writes the vector index snapshot.
type Ingestor struct {
	embedder  embedding.Embedder
	limiter   *rate.Limiter
	indexType string
	logger    *zap.Logger
	progress  func(done, total int)
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithIngestLogger sets a logger for per-chunk debug output.
func WithIngestLogger(l *zap.Logger) IngestorOption {
	return func(i *Ingestor) { i.logger = l }
}

// WithRateLimit paces embedding calls to rps requests per second. rps <= 0 disables pacing.
func WithRateLimit(rps float64) IngestorOption {
	return func(i *Ingestor) {
		if rps <= 0 {
			i.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		i.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithProgress is called after each chunk is embedded.
func WithProgress(fn func(done, total int)) IngestorOption {
	return func(i *Ingestor) { i.progress = fn }
}

// WithIndexType selects the backend used to verify the built entries.
func WithIndexType(t string) IngestorOption {
	return func(i *Ingestor) { i.indexType = t }
}

// NewIngestor creates an ingestor. Without WithRateLimit calls are paced at 5 per second.
func NewIngestor(emb embedding.Embedder, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		embedder:  emb,
		limiter:   rate.NewLimiter(rate.Limit(5), 1),
		indexType: string(vector.IndexTypeMemory),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = utils.OrNop(i.logger)
	return i
}

// Embed returns one entry per chunk, in chunk order. Any embedding failure aborts the run.
func (i *Ingestor) Embed(ctx context.Context, chunks []models.Chunk) ([]vector.Entry, error) {
	entries := make([]vector.Entry, 0, len(chunks))
	for n, c := range chunks {
		if err := i.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		vec, err := i.embedder.Embed(ctx, c.Content)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %s: %w", c.ChunkID, err)
		}
		entries = append(entries, vector.Entry{Vector: vec, Metadata: c})
		i.logger.Debug("chunk embedded", zap.String("chunk_id", c.ChunkID), zap.Int("dimensions", len(vec)))
		if i.progress != nil {
			i.progress(n+1, len(chunks))
		}
	}
	return entries, nil
}

// Run embeds chunks, checks that they form a consistent index and atomically writes the
// snapshot to path. Nothing is written if any step fails. Returns the number of entries.
func (i *Ingestor) Run(ctx context.Context, chunks []models.Chunk, path string) (int, error) {
	entries, err := i.Embed(ctx, chunks)
	if err != nil {
		return 0, err
	}
	idx, err := vector.BuildIndex(ctx, i.indexType, entries)
	if err != nil {
		return 0, fmt.Errorf("build index: %w", err)
	}
	idx.Close()
	if err := vector.WriteSnapshot(path, entries); err != nil {
		return 0, err
	}
	i.logger.Info("vector index written", zap.String("path", path), zap.Int("entries", len(entries)))
	return len(entries), nil
}
