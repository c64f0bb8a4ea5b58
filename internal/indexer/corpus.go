package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hyperjump/prana/internal/models"
	"github.com/hyperjump/prana/pkg/utils"
)

// ErrMalformedCorpus is returned when an article is missing its id or title, or repeats an id.
var ErrMalformedCorpus = errors.New("malformed corpus")

// LoadCorpus reads article JSON arrays from every file matched by patterns, in pattern
// order and then lexical path order, and validates the combined corpus.
// A literal path that does not exist is an error; a glob that matches nothing is not.
func LoadCorpus(patterns []string) ([]models.Article, error) {
	var articles []models.Article
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("corpus pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 && !hasMeta(pattern) {
			return nil, fmt.Errorf("corpus file %s: %w", pattern, os.ErrNotExist)
		}
		sort.Strings(matches)
		for _, path := range matches {
			batch, err := readArticles(path)
			if err != nil {
				return nil, err
			}
			articles = append(articles, batch...)
		}
	}
	if err := ValidateCorpus(articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func readArticles(path string) ([]models.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	var articles []models.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedCorpus, path, err)
	}
	return articles, nil
}

// ValidateCorpus checks that every article has a non-empty id and title and that ids are unique.
func ValidateCorpus(articles []models.Article) error {
	seen := make(map[models.ArticleID]int, len(articles))
	for i, a := range articles {
		if strings.TrimSpace(string(a.ID)) == "" {
			return fmt.Errorf("%w: article %d has no id", ErrMalformedCorpus, i)
		}
		if strings.TrimSpace(a.Title) == "" {
			return fmt.Errorf("%w: article %q has no title", ErrMalformedCorpus, a.ID)
		}
		if prev, ok := seen[a.ID]; ok {
			return fmt.Errorf("%w: article id %q repeated at positions %d and %d", ErrMalformedCorpus, a.ID, prev, i)
		}
		seen[a.ID] = i
	}
	return nil
}

// WriteChunks writes chunks as an indented JSON array, replacing path atomically.
func WriteChunks(path string, chunks []models.Chunk) error {
	if chunks == nil {
		chunks = []models.Chunk{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	return utils.WriteFileAtomic(path, data, 0644)
}

// LoadChunks reads a chunk artifact written by WriteChunks.
func LoadChunks(path string) ([]models.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	var chunks []models.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("parse chunks %s: %w", path, err)
	}
	return chunks, nil
}
