package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/hyperjump/prana/internal/config"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainEmbedder calls an OpenAI-compatible embeddings endpoint (Gemini by default) through langchaingo.
type LangChainEmbedder struct {
	client     *openai.LLM
	dimensions int
}

// NewLangChainEmbedder builds an embedder from cfg. The API key is read from the
// environment variable named by cfg.APIKeyEnv.
func NewLangChainEmbedder(cfg config.EmbeddingConfig) (*LangChainEmbedder, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: environment variable %s is not set", config.ErrConfiguration, cfg.APIKeyEnv)
	}
	opts := []openai.Option{
		openai.WithToken(key),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	return &LangChainEmbedder{client: client, dimensions: cfg.Dimensions}, nil
}

// Embed embeds a single text.
func (e *LangChainEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one request.
func (e *LangChainEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := e.client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("create embedding: got %d vectors for %d texts", len(vecs), len(texts))
	}
	for i, v := range vecs {
		if e.dimensions > 0 && len(v) != e.dimensions {
			return nil, fmt.Errorf("create embedding: vector %d has %d dimensions, want %d", i, len(v), e.dimensions)
		}
	}
	return vecs, nil
}

// Dimensions returns the configured embedding dimension.
func (e *LangChainEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the HTTP client has no resources to release.
func (e *LangChainEmbedder) Close() error {
	return nil
}

// New returns the embedder for cfg.Provider wrapped with rate-limit retries.
func New(cfg config.EmbeddingConfig, opts ...RetryOption) (Embedder, error) {
	var inner Embedder
	switch cfg.Provider {
	case "mock":
		inner = NewMockEmbedder(cfg.Dimensions)
	case "gemini", "openai":
		e, err := NewLangChainEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		inner = e
	default:
		return nil, fmt.Errorf("%w: unknown embedding.provider %q", config.ErrConfiguration, cfg.Provider)
	}
	return NewRetryingEmbedder(inner, opts...), nil
}
