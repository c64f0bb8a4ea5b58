package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/hyperjump/prana/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainGenerator sends the grounded prompt to an OpenAI-compatible chat model.
type LangChainGenerator struct {
	model llms.Model
	name  string
	temp  float64
}

// NewLangChainGenerator builds a generator from cfg. The API key is read from cfg.APIKeyEnv.
func NewLangChainGenerator(cfg config.GenerationConfig) (*LangChainGenerator, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: environment variable %s is not set", config.ErrConfiguration, cfg.APIKeyEnv)
	}
	opts := []openai.Option{openai.WithToken(key), openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create generation client: %w", err)
	}
	return NewGeneratorFromModel(client, cfg.Model), nil
}

// NewGeneratorFromModel wraps any langchaingo model.
func NewGeneratorFromModel(model llms.Model, name string) *LangChainGenerator {
	return &LangChainGenerator{model: model, name: name, temp: 0.2}
}

// Generate returns the model's answer to the grounded prompt.
func (g *LangChainGenerator) Generate(ctx context.Context, query string, chunks []ContextChunk) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, BuildPrompt(query, chunks), llms.WithTemperature(g.temp))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return out, nil
}

// Model returns the configured model name.
func (g *LangChainGenerator) Model() string {
	return g.name
}
