// Package config provides configuration loading and structs for the Prana server and batch jobs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks invalid settings. Batch jobs and the server fail fast on it at startup.
var ErrConfiguration = errors.New("configuration error")

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Storage    StorageConfig    `yaml:"storage"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// ShutdownTimeout bounds graceful shutdown, including the best-effort drain of audit writes.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CorpusConfig locates the article corpus and the chunk artifact.
type CorpusConfig struct {
	// Paths are file paths or doublestar globs ("corpus/**/*.json") of article JSON arrays.
	Paths      []string `yaml:"paths"`
	ChunksPath string   `yaml:"chunks_path"`
}

// ChunkingConfig holds the token window parameters for the chunker.
type ChunkingConfig struct {
	TargetSize       int    `yaml:"target_size"`
	Overlap          int    `yaml:"overlap"`
	MinTailSize      int    `yaml:"min_tail_size"`
	SingleChunkSlack int    `yaml:"single_chunk_slack"`
	Tokenizer        string `yaml:"tokenizer"`
}

// IndexConfig selects the vector index backend and where its snapshot lives.
type IndexConfig struct {
	Type   string `yaml:"type"`
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
	// Watch reloads the index when the snapshot file is replaced (file source only).
	Watch bool `yaml:"watch"`
}

// EmbeddingConfig configures the OpenAI-compatible embedding endpoint.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"`
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// GenerationConfig configures the grounded answer generator.
type GenerationConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// StorageConfig selects the audit store.
type StorageConfig struct {
	Driver       string `yaml:"driver"`
	DatabasePath string `yaml:"database_path"`
	BoltPath     string `yaml:"bolt_path"`
	PostgresDSN  string `yaml:"postgres_dsn"`
}

// RetrievalConfig holds request-time retrieval settings.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// Load reads and parses the config file at path, applies defaults, expands paths and validates.
// Returns an error if the file cannot be read or parsed, or if the settings are invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.ChunksPath = expandPath(cfg.Corpus.ChunksPath, configDir)
	for i := range cfg.Corpus.Paths {
		cfg.Corpus.Paths[i] = expandPath(cfg.Corpus.Paths[i], configDir)
	}
	if cfg.Index.Source == SourceFile {
		cfg.Index.Path = expandPath(cfg.Index.Path, configDir)
	}
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BoltPath = expandPath(cfg.Storage.BoltPath, configDir)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks cross-field constraints. All failures wrap ErrConfiguration.
func Validate(cfg *Config) error {
	if err := ValidateChunking(cfg.Chunking); err != nil {
		return err
	}
	if cfg.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive, got %d", ErrConfiguration, cfg.Retrieval.TopK)
	}
	switch cfg.Index.Type {
	case "memory", "chromem":
	default:
		return fmt.Errorf("%w: unknown index.type %q (supported: memory, chromem)", ErrConfiguration, cfg.Index.Type)
	}
	switch cfg.Index.Source {
	case SourceFile, SourceEmbedded:
	default:
		return fmt.Errorf("%w: unknown index.source %q (supported: file, embedded)", ErrConfiguration, cfg.Index.Source)
	}
	switch cfg.Embedding.Provider {
	case "gemini", "openai", "mock":
	default:
		return fmt.Errorf("%w: unknown embedding.provider %q (supported: gemini, openai, mock)", ErrConfiguration, cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding.dimensions must be positive, got %d", ErrConfiguration, cfg.Embedding.Dimensions)
	}
	switch cfg.Generation.Provider {
	case "gemini", "openai", "extractive", "mock":
	default:
		return fmt.Errorf("%w: unknown generation.provider %q (supported: gemini, openai, extractive, mock)", ErrConfiguration, cfg.Generation.Provider)
	}
	switch cfg.Storage.Driver {
	case "sqlite", "bolt":
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return fmt.Errorf("%w: storage.postgres_dsn is required for the postgres driver", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q (supported: sqlite, bolt, postgres)", ErrConfiguration, cfg.Storage.Driver)
	}
	return nil
}

// ValidateChunking checks the chunk window parameters and the tokenizer name.
func ValidateChunking(c ChunkingConfig) error {
	if err := ValidateWindow(c); err != nil {
		return err
	}
	switch c.Tokenizer {
	case TokenizerProxy, TokenizerTiktoken:
	default:
		return fmt.Errorf("%w: unknown chunking.tokenizer %q (supported: proxy, tiktoken)", ErrConfiguration, c.Tokenizer)
	}
	return nil
}

// ValidateWindow checks only the numeric window parameters; overlap must be strictly less than target size.
func ValidateWindow(c ChunkingConfig) error {
	if c.TargetSize <= 0 {
		return fmt.Errorf("%w: chunking.target_size must be positive, got %d", ErrConfiguration, c.TargetSize)
	}
	if c.Overlap < 0 || c.MinTailSize < 0 || c.SingleChunkSlack < 0 {
		return fmt.Errorf("%w: chunking overlap, min_tail_size and single_chunk_slack must not be negative", ErrConfiguration)
	}
	if c.Overlap >= c.TargetSize {
		return fmt.Errorf("%w: chunking.overlap (%d) must be less than target_size (%d)", ErrConfiguration, c.Overlap, c.TargetSize)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "~/" are relative to the home
// directory; other relative paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
		return path
	}
	return filepath.Join(configDir, path)
}
