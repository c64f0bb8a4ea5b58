package cli

import (
	"fmt"
	"path"

	"github.com/hyperjump/prana/internal/assets"
	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/internal/embedding"
	"github.com/hyperjump/prana/internal/indexer"
	"github.com/hyperjump/prana/internal/llm"
	"github.com/hyperjump/prana/internal/rag"
	"github.com/hyperjump/prana/internal/retrieval"
	"github.com/hyperjump/prana/internal/safety"
	"github.com/hyperjump/prana/internal/storage"
	"github.com/hyperjump/prana/internal/vector"
	"go.uber.org/zap"
)

// Components holds the wired ask pipeline.
type Components struct {
	Embedder  embedding.Embedder
	Index     *vector.Store
	Generator llm.Generator
	Storage   storage.InteractionStore
	Service   *rag.Service
}

// Close releases the index, the embedder and the audit store.
func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	emb, err := newEmbedder(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	gen, err := llm.New(cfg.Generation)
	if err != nil {
		_ = emb.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	store, err := storage.Open(cfg.Storage, cfg.Debug)
	if err != nil {
		_ = emb.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	index := vector.NewStore(indexSource(cfg.Index), cfg.Index.Type, logger)
	retriever := retrieval.NewRetriever(emb, index, logger)
	svc := rag.NewService(safety.Default(), retriever, gen, store,
		rag.WithLogger(logger),
		rag.WithTopK(cfg.Retrieval.TopK),
		rag.WithModelUsed(gen.Model()),
	)

	logger.Info("components initialized",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("generation_model", gen.Model()),
		zap.String("index_type", cfg.Index.Type),
		zap.String("index_source", cfg.Index.Source),
		zap.String("storage_driver", cfg.Storage.Driver))

	return &Components{
		Embedder:  emb,
		Index:     index,
		Generator: gen,
		Storage:   store,
		Service:   svc,
	}, nil
}

func newEmbedder(cfg *config.Config, logger *zap.Logger) (embedding.Embedder, error) {
	return embedding.New(cfg.Embedding, embedding.WithRetryLogger(logger))
}

func newChunker(cfg *config.Config) (*indexer.Chunker, error) {
	tok, err := indexer.NewTokenizer(cfg.Chunking.Tokenizer)
	if err != nil {
		return nil, err
	}
	return indexer.NewChunker(tok, cfg.Chunking)
}

// indexSource returns where the served snapshot is read from. The embedded source
// uses the configured path inside the compiled-in assets, or the default asset.
func indexSource(cfg config.IndexConfig) vector.Source {
	if cfg.Source == config.SourceEmbedded {
		p := assets.IndexPath
		if cfg.Path != "" {
			p = path.Clean(cfg.Path)
		}
		return vector.FSSource{FS: assets.Index, Path: p}
	}
	return vector.FileSource{Path: cfg.Path}
}
