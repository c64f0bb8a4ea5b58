// Package llm produces grounded answers from a query and retrieved context.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/prana/internal/config"
)

// InsufficientInformationMessage is the answer the model is told to give when the context does not cover the question.
const InsufficientInformationMessage = "I apologize, but I don't have enough verified information on that specific topic to provide a safe answer. Please consult a certified yoga professional."

// ContextChunk is one retrieved passage handed to the generator.
type ContextChunk struct {
	Title   string
	Content string
}

// Generator answers query using only chunks.
type Generator interface {
	Generate(ctx context.Context, query string, chunks []ContextChunk) (string, error)
	Model() string
}

// New returns the generator for cfg.Provider.
func New(cfg config.GenerationConfig) (Generator, error) {
	switch cfg.Provider {
	case "gemini", "openai":
		return NewLangChainGenerator(cfg)
	case "extractive", "mock":
		return NewExtractiveGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: unknown generation.provider %q", config.ErrConfiguration, cfg.Provider)
	}
}

// BuildPrompt renders the grounded assistant prompt with numbered context chunks.
func BuildPrompt(query string, chunks []ContextChunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Chunk %d] (Source: %s)\nContent: %s", i+1, c.Title, c.Content)
	}
	return fmt.Sprintf(promptTemplate, b.String(), query, InsufficientInformationMessage)
}

const promptTemplate = `YOU ARE A PROFESSIONAL YOGA & WELLNESS ASSISTANT.
Your goal is to provide accurate, safe, and helpful guidance based ONLY on the provided context.

### CONTEXT FROM KNOWLEDGE BASE:
%s

### USER QUERY:
"%s"

### STRICT GUIDELINES:
1. Answer ONLY with information found in the context above. Do not use outside knowledge.
2. If the context does not contain the answer, respond exactly with: "%s"
3. Use a supportive, calm tone and clear Markdown formatting (short paragraphs, bullet points for steps).
4. Mention which source the guidance comes from when it helps the user.
5. Never give medical diagnoses or replace professional advice.

### RESPONSE:`
