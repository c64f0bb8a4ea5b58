package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/prana/internal/models"
)

// MemoryIndex is a brute-force cosine index. Every search scores every entry.
type MemoryIndex struct {
	dimensions int
	entries    []Entry
	mu         sync.RWMutex
}

// NewMemoryIndex creates an empty in-memory index. The first Add fixes the dimension.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make([]Entry, 0)}
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Add appends a copy of vector with its chunk metadata.
func (m *MemoryIndex) Add(ctx context.Context, vector []float32, chunk models.Chunk) error {
	if len(vector) == 0 {
		return fmt.Errorf("vector for chunk %s is empty", chunk.ChunkID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimensions == 0 {
		m.dimensions = len(vector)
	} else if len(vector) != m.dimensions {
		return fmt.Errorf("vector dimension mismatch for chunk %s: got %d, expected %d", chunk.ChunkID, len(vector), m.dimensions)
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	m.entries = append(m.entries, Entry{Vector: vec, Metadata: chunk})
	return nil
}

// Search returns the min(topK, Size()) best matches by cosine similarity.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, topK int) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if topK <= 0 || len(m.entries) == 0 {
		return []Result{}, nil
	}
	results := make([]Result, len(m.entries))
	for i, e := range m.entries {
		results[i] = Result{Score: CosineSimilarity(query, e.Vector), Chunk: e.Metadata}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK:topK], nil
}

// Entries returns a copy of the indexed entries in insertion order.
func (m *MemoryIndex) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
