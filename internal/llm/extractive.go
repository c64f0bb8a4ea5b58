package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/prana/pkg/utils"
)

// ExtractiveGenerator answers without a model by quoting the top passages.
// It is meant for offline runs and demos.
type ExtractiveGenerator struct {
	maxChars int
}

// NewExtractiveGenerator returns a generator that quotes up to 400 characters per passage.
func NewExtractiveGenerator() *ExtractiveGenerator {
	return &ExtractiveGenerator{maxChars: 400}
}

// Generate lists the passages as Markdown bullets, or the fallback message when there are none.
func (g *ExtractiveGenerator) Generate(ctx context.Context, query string, chunks []ContextChunk) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return InsufficientInformationMessage, nil
	}
	var b strings.Builder
	b.WriteString("Here is what the knowledge base says:\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "\n- **%s**: %s", c.Title, utils.Truncate(strings.Join(strings.Fields(c.Content), " "), g.maxChars))
	}
	return b.String(), nil
}

// Model returns "extractive".
func (g *ExtractiveGenerator) Model() string {
	return "extractive"
}
