package indexer

import (
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/internal/models"
)

// runeTokenizer treats every rune as one token, so token counts are exact in tests.
type runeTokenizer struct{}

func (runeTokenizer) Name() string { return "rune" }

func (runeTokenizer) Tokenize(text string) []string {
	var out []string
	for _, r := range text {
		out = append(out, string(r))
	}
	return out
}

func defaultChunking() config.ChunkingConfig {
	return config.ChunkingConfig{TargetSize: 400, Overlap: 50, MinTailSize: 100, SingleChunkSlack: 100}
}

func newTestChunker(t *testing.T) *Chunker {
	t.Helper()
	c, err := NewChunker(runeTokenizer{}, defaultChunking())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func text(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(rune('a' + i%26))
	}
	return b.String()
}

func TestChunker_SingleChunkUpToBound(t *testing.T) {
	c := newTestChunker(t)
	for _, n := range []int{1, 399, 400, 500} {
		a := models.Article{ID: "7", Title: "Tree Pose", Content: text(n), SourceLink: "https://example.org/tree"}
		chunks := c.Chunk(a)
		if len(chunks) != 1 {
			t.Fatalf("n=%d: got %d chunks, want 1", n, len(chunks))
		}
		ch := chunks[0]
		if ch.Content != a.Content {
			t.Errorf("n=%d: single chunk content differs from article content", n)
		}
		if ch.ChunkID != "7_0" || ch.TokenCount != n || ch.Title != a.Title || ch.SourceLink != a.SourceLink {
			t.Errorf("n=%d: chunk = %+v", n, ch)
		}
	}
	if got := len(c.Chunk(models.Article{ID: "8", Title: "t", Content: text(501)})); got < 2 {
		t.Errorf("n=501: got %d chunks, want at least 2", got)
	}
}

func TestChunker_WindowsCoverAndOverlap(t *testing.T) {
	c := newTestChunker(t)
	for n := 501; n <= 2500; n++ {
		ws := c.Windows(n)
		if ws[0].Start != 0 {
			t.Fatalf("n=%d: first window %v does not start at 0", n, ws[0])
		}
		last := ws[len(ws)-1]
		if last.End != n {
			t.Fatalf("n=%d: last window %v does not reach the end", n, last)
		}
		if len(ws) > 1 && last.End-last.Start < 100 {
			t.Errorf("n=%d: short tail window %v", n, last)
		}
		for i := 0; i+1 < len(ws); i++ {
			if ws[i].End-ws[i].Start != 400 {
				t.Errorf("n=%d: window %d %v is not full", n, i, ws[i])
			}
			if overlap := ws[i].End - ws[i+1].Start; overlap != 50 {
				t.Errorf("n=%d: overlap between %v and %v is %d, want 50", n, ws[i], ws[i+1], overlap)
			}
		}
		if size := last.End - last.Start; size >= 450 {
			t.Errorf("n=%d: last window %v too long", n, last)
		}
	}
}

func TestChunker_ChunkContentMatchesWindows(t *testing.T) {
	c := newTestChunker(t)
	content := text(1000)
	chunks := c.Chunk(models.Article{ID: "3", Title: "Pranayama", Content: content})
	ws := c.Windows(1000)
	if len(chunks) != len(ws) {
		t.Fatalf("got %d chunks for %d windows", len(chunks), len(ws))
	}
	for i, ch := range chunks {
		if want := models.ChunkID("3", i); ch.ChunkID != want {
			t.Errorf("chunk %d id = %s, want %s", i, ch.ChunkID, want)
		}
		if ch.Content != content[ws[i].Start:ws[i].End] {
			t.Errorf("chunk %d content does not match window %v", i, ws[i])
		}
		if ch.TokenCount != ws[i].End-ws[i].Start {
			t.Errorf("chunk %d token_count = %d", i, ch.TokenCount)
		}
	}
}

func TestChunker_EmptyContent(t *testing.T) {
	c := newTestChunker(t)
	chunks := c.Chunk(models.Article{ID: "e", Title: "Empty"})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "" || chunks[0].TokenCount != 0 {
		t.Errorf("empty chunk = %+v", chunks[0])
	}
}

func TestChunker_ProxyTokenizerRoundTrip(t *testing.T) {
	c, err := NewChunker(ProxyTokenizer{}, defaultChunking())
	if err != nil {
		t.Fatal(err)
	}
	content := strings.Repeat("Inhale slowly through the nose, exhale through the mouth. ", 120)
	chunks := c.Chunk(models.Article{ID: "9", Title: "Breath", Content: content})
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	if !strings.HasPrefix(content, chunks[0].Content) || !strings.HasSuffix(content, chunks[len(chunks)-1].Content) {
		t.Error("first and last chunks must cover the start and end of the content")
	}
}

func TestNewChunker_InvalidConfig(t *testing.T) {
	tests := []config.ChunkingConfig{
		{TargetSize: 400, Overlap: 400, MinTailSize: 100},
		{TargetSize: 400, Overlap: 500},
		{TargetSize: 0, Overlap: 0},
		{TargetSize: 400, Overlap: -1},
		{TargetSize: 400, Overlap: 50, MinTailSize: -5},
	}
	for _, cfg := range tests {
		if _, err := NewChunker(runeTokenizer{}, cfg); !errors.Is(err, config.ErrConfiguration) {
			t.Errorf("NewChunker(%+v) err = %v, want ErrConfiguration", cfg, err)
		}
	}
}

func TestChunker_ChunkAllRejectsMalformedCorpus(t *testing.T) {
	c := newTestChunker(t)
	articles := []models.Article{
		{ID: "1", Title: "One", Content: "a"},
		{ID: "1", Title: "Dup", Content: "b"},
	}
	chunks, err := c.ChunkAll(articles)
	if !errors.Is(err, ErrMalformedCorpus) {
		t.Fatalf("err = %v, want ErrMalformedCorpus", err)
	}
	if chunks != nil {
		t.Errorf("expected no output, got %d chunks", len(chunks))
	}

	chunks, err = c.ChunkAll([]models.Article{{ID: "1", Title: "One", Content: text(900)}, {ID: "2", Title: "Two"}})
	if err != nil {
		t.Fatal(err)
	}
	if chunks[len(chunks)-1].ChunkID != "2_0" {
		t.Errorf("last chunk id = %s", chunks[len(chunks)-1].ChunkID)
	}
}
