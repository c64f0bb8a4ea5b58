// Package models defines core data structures for articles, chunks, interactions and the ask API.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ArticleID identifies an article. Corpus files may carry it as a JSON string or number.
type ArticleID string

// UnmarshalJSON accepts both "12" and 12.
func (id *ArticleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ArticleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("article id must be a string or number: %w", err)
	}
	*id = ArticleID(n.String())
	return nil
}

// Article is an immutable corpus entry.
type Article struct {
	ID              ArticleID `json:"id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Content         string    `json:"content"`
	SourceReference string    `json:"source_reference"`
	SourceLink      string    `json:"source_link"`
}

// Chunk is a bounded, traceable slice of an article used as a retrieval unit.
type Chunk struct {
	ChunkID         string    `json:"chunk_id"`
	ArticleID       ArticleID `json:"article_id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Content         string    `json:"content"`
	SourceReference string    `json:"source_reference"`
	SourceLink      string    `json:"source_link"`
	TokenCount      int       `json:"token_count"`
}

// ChunkID derives the chunk identifier from the article ID and the 0-based sequence index.
func ChunkID(articleID ArticleID, seq int) string {
	return string(articleID) + "_" + strconv.Itoa(seq)
}
