// Package indexer turns the article corpus into chunks and embeds them into an index snapshot.
package indexer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/internal/models"
)

// Window is a half-open token range [Start, End).
type Window struct {
	Start int
	End   int
}

// Chunker splits article content into overlapping token windows.
type Chunker struct {
	tokenizer   Tokenizer
	targetSize  int
	overlap     int
	minTailSize int
	slack       int
}

// NewChunker validates the window parameters and returns a chunker using tok.
// Invalid parameters return an error wrapping config.ErrConfiguration.
func NewChunker(tok Tokenizer, cfg config.ChunkingConfig) (*Chunker, error) {
	if err := config.ValidateWindow(cfg); err != nil {
		return nil, err
	}
	if tok == nil {
		tok = ProxyTokenizer{}
	}
	return &Chunker{
		tokenizer:   tok,
		targetSize:  cfg.TargetSize,
		overlap:     cfg.Overlap,
		minTailSize: cfg.MinTailSize,
		slack:       cfg.SingleChunkSlack,
	}, nil
}

// Windows returns the token windows for a text of n tokens.
// Texts up to targetSize+slack tokens get a single window. Longer texts slide by
// targetSize-overlap; when fewer than minTailSize tokens remain past the next start,
// the last window is stretched to the final token instead of emitting a short tail.
func (c *Chunker) Windows(n int) []Window {
	if n <= c.targetSize+c.slack {
		return []Window{{Start: 0, End: n}}
	}
	step := c.targetSize - c.overlap
	var windows []Window
	for start := 0; ; start += step {
		end := start + c.targetSize
		if end >= n {
			windows = append(windows, Window{Start: start, End: n})
			return windows
		}
		if n-(start+step) < c.minTailSize {
			windows = append(windows, Window{Start: start, End: n})
			return windows
		}
		windows = append(windows, Window{Start: start, End: end})
	}
}

// Chunk splits one article. Empty content gives one chunk with zero tokens.
func (c *Chunker) Chunk(a models.Article) []models.Chunk {
	tokens := c.tokenizer.Tokenize(a.Content)
	windows := c.Windows(len(tokens))
	chunks := make([]models.Chunk, 0, len(windows))
	for i, w := range windows {
		content := a.Content
		if len(windows) > 1 {
			content = strings.Join(tokens[w.Start:w.End], "")
		}
		chunks = append(chunks, models.Chunk{
			ChunkID:         models.ChunkID(a.ID, i),
			ArticleID:       a.ID,
			Title:           a.Title,
			Category:        a.Category,
			Content:         content,
			SourceReference: a.SourceReference,
			SourceLink:      a.SourceLink,
			TokenCount:      w.End - w.Start,
		})
	}
	return chunks
}

// ChunkAll validates the corpus and chunks every article in order.
// A malformed article fails the whole run and no chunks are returned.
func (c *Chunker) ChunkAll(articles []models.Article) ([]models.Chunk, error) {
	if err := ValidateCorpus(articles); err != nil {
		return nil, err
	}
	var chunks []models.Chunk
	for _, a := range articles {
		chunks = append(chunks, c.Chunk(a)...)
	}
	return chunks, nil
}

// TokenizerName reports which tokenizer produced the token counts.
func (c *Chunker) TokenizerName() string {
	return c.tokenizer.Name()
}

func (w Window) String() string {
	return fmt.Sprintf("[%d,%d)", w.Start, w.End)
}
