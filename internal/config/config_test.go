package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "./test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	want := filepath.Join(filepath.Dir(path), "test.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	c := cfg.Chunking
	if c.TargetSize != 400 || c.Overlap != 50 || c.MinTailSize != 100 || c.SingleChunkSlack != 100 {
		t.Errorf("chunking defaults: %+v", c)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("top_k = %d, want 3", cfg.Retrieval.TopK)
	}
	if cfg.Index.Type != "memory" || cfg.Index.Source != SourceFile {
		t.Errorf("index defaults: %+v", cfg.Index)
	}
	if !filepath.IsAbs(cfg.Index.Path) {
		t.Errorf("index path should be expanded, got %s", cfg.Index.Path)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("storage driver = %s", cfg.Storage.Driver)
	}
}

func TestLoad_embeddedSourceKeepsPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
index:
  source: embedded
  path: rag/vector_index.json
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Index.Path != "rag/vector_index.json" {
		t.Errorf("embedded path should not be expanded, got %s", cfg.Index.Path)
	}
}

func TestLoad_embeddedSourceDefaultPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
index:
  source: embedded
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Index.Path != "" {
		t.Errorf("embedded source should default to the built-in asset, got path %q", cfg.Index.Path)
	}
}

func TestLoad_invalidChunking(t *testing.T) {
	_, err := Load(writeConfig(t, `
chunking:
  target_size: 100
  overlap: 100
`))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateChunking(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ChunkingConfig
		wantErr bool
	}{
		{"valid", ChunkingConfig{TargetSize: 400, Overlap: 50, MinTailSize: 100, Tokenizer: TokenizerProxy}, false},
		{"zero overlap", ChunkingConfig{TargetSize: 10, Overlap: 0, Tokenizer: TokenizerProxy}, false},
		{"overlap equals target", ChunkingConfig{TargetSize: 10, Overlap: 10, Tokenizer: TokenizerProxy}, true},
		{"overlap above target", ChunkingConfig{TargetSize: 10, Overlap: 11, Tokenizer: TokenizerProxy}, true},
		{"zero target", ChunkingConfig{TargetSize: 0, Tokenizer: TokenizerProxy}, true},
		{"negative tail", ChunkingConfig{TargetSize: 10, MinTailSize: -1, Tokenizer: TokenizerProxy}, true},
		{"unknown tokenizer", ChunkingConfig{TargetSize: 10, Tokenizer: "wordpiece"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunking(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChunking() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("error should wrap ErrConfiguration: %v", err)
			}
		})
	}
}

func TestValidate_backends(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "postgres"
	if err := Validate(cfg); !errors.Is(err, ErrConfiguration) {
		t.Errorf("postgres without dsn should fail, got %v", err)
	}
	cfg.Storage.PostgresDSN = "postgres://localhost/prana"
	if err := Validate(cfg); err != nil {
		t.Errorf("postgres with dsn: %v", err)
	}
	cfg.Index.Type = "faiss"
	if err := Validate(cfg); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unknown index type should fail, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generation.Model != "gemini-2.5-flash" {
		t.Errorf("generation model = %s", cfg.Generation.Model)
	}
	if cfg.Corpus.ChunksPath != filepath.Join(filepath.Dir(path), "rag", "yoga_chunks.json") {
		t.Errorf("chunks path = %s", cfg.Corpus.ChunksPath)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/file.db", "/abs/file.db"},
		{"./data/x.db", filepath.Join("/etc/prana", "data/x.db")},
		{"data/x.db", filepath.Join("/etc/prana", "data/x.db")},
		{"~/prana/x.db", filepath.Join(home, "prana/x.db")},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in, "/etc/prana"); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate_providers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"offline", func(c *Config) { c.Embedding.Provider = "mock"; c.Generation.Provider = "extractive" }, true},
		{"unknown embedding", func(c *Config) { c.Embedding.Provider = "onnx" }, false},
		{"unknown generation", func(c *Config) { c.Generation.Provider = "llama" }, false},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}
