package config

import "time"

// Index sources.
const (
	SourceFile     = "file"
	SourceEmbedded = "embedded"
)

// Chunk tokenizers.
const (
	TokenizerProxy    = "proxy"
	TokenizerTiktoken = "tiktoken"
)

// DefaultGeminiBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// ApplyDefaults sets default values for any zero values in cfg.
// Chunking defaults are applied per field, so an explicit overlap of 0 in YAML becomes 50;
// write a small positive overlap if near-zero overlap is wanted.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5001
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Corpus.Paths == nil {
		cfg.Corpus.Paths = []string{"./rag/yoga_articles.json"}
	}
	if cfg.Corpus.ChunksPath == "" {
		cfg.Corpus.ChunksPath = "./rag/yoga_chunks.json"
	}
	if cfg.Chunking.TargetSize == 0 {
		cfg.Chunking.TargetSize = 400
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 50
	}
	if cfg.Chunking.MinTailSize == 0 {
		cfg.Chunking.MinTailSize = 100
	}
	if cfg.Chunking.SingleChunkSlack == 0 {
		cfg.Chunking.SingleChunkSlack = 100
	}
	if cfg.Chunking.Tokenizer == "" {
		cfg.Chunking.Tokenizer = TokenizerProxy
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	if cfg.Index.Source == "" {
		cfg.Index.Source = SourceFile
	}
	if cfg.Index.Path == "" && cfg.Index.Source == SourceFile {
		cfg.Index.Path = "./rag/vector_index.json"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "gemini"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-004"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.RequestsPerSecond == 0 {
		cfg.Embedding.RequestsPerSecond = 5
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "gemini"
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.Generation.APIKeyEnv == "" {
		cfg.Generation.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gemini-2.5-flash"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/interactions.db"
	}
	if cfg.Storage.BoltPath == "" {
		cfg.Storage.BoltPath = "./data/interactions.bolt"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
}

// Default returns a fully defaulted config, as written by "prana init".
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
