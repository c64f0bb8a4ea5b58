package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/hyperjump/prana/internal/models"
	"github.com/hyperjump/prana/pkg/utils"
	"github.com/philippgille/chromem-go"
)

const chromemCollection = "chunks"

// ChromemIndex keeps entries in an in-memory chromem-go collection. Document IDs are
// insertion sequence numbers so results can be re-ranked with a stable tie order.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	chunks     []models.Chunk
	dimensions int
	mu         sync.RWMutex
}

// NewChromemIndex creates an empty chromem-backed index.
func NewChromemIndex() (*ChromemIndex, error) {
	db := chromem.NewDB()
	// Embeddings are always supplied, so the collection's embedding func is never called.
	col, err := db.CreateCollection(chromemCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create chromem collection: %w", err)
	}
	return &ChromemIndex{db: db, collection: col}, nil
}

// Type returns the index type identifier.
func (c *ChromemIndex) Type() string {
	return string(IndexTypeChromem)
}

// Add stores a copy of vector under the next sequence number.
func (c *ChromemIndex) Add(ctx context.Context, vector []float32, chunk models.Chunk) error {
	if len(vector) == 0 {
		return fmt.Errorf("vector for chunk %s is empty", chunk.ChunkID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dimensions == 0 {
		c.dimensions = len(vector)
	} else if len(vector) != c.dimensions {
		return fmt.Errorf("vector dimension mismatch for chunk %s: got %d, expected %d", chunk.ChunkID, len(vector), c.dimensions)
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	seq := len(c.chunks)
	doc := chromem.Document{
		ID:        strconv.Itoa(seq),
		Metadata:  map[string]string{"chunk_id": chunk.ChunkID},
		Embedding: vec,
		Content:   chunk.Content,
	}
	if err := c.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add chunk %s: %w", chunk.ChunkID, err)
	}
	c.chunks = append(c.chunks, chunk)
	return nil
}

// Search queries the whole collection and orders by (score desc, insertion order asc).
func (c *ChromemIndex) Search(ctx context.Context, query []float32, topK int) ([]Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.chunks)
	if topK <= 0 || n == 0 {
		return []Result{}, nil
	}
	if topK > n {
		topK = n
	}
	if len(query) != c.dimensions || utils.L2Norm(query) == 0 {
		results := make([]Result, topK)
		for i := range results {
			results[i] = Result{Chunk: c.chunks[i]}
		}
		return results, nil
	}

	hits, err := c.collection.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	type ranked struct {
		seq   int
		score float64
	}
	ranks := make([]ranked, 0, len(hits))
	for _, h := range hits {
		seq, err := strconv.Atoi(h.ID)
		if err != nil || seq < 0 || seq >= n {
			return nil, fmt.Errorf("chromem returned unknown document %q", h.ID)
		}
		score := float64(h.Similarity)
		if math.IsNaN(score) {
			score = 0
		}
		ranks = append(ranks, ranked{seq: seq, score: math.Max(-1, math.Min(1, score))})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].score != ranks[j].score {
			return ranks[i].score > ranks[j].score
		}
		return ranks[i].seq < ranks[j].seq
	})
	if topK > len(ranks) {
		topK = len(ranks)
	}
	results := make([]Result, topK)
	for i := 0; i < topK; i++ {
		results[i] = Result{Score: ranks[i].score, Chunk: c.chunks[ranks[i].seq]}
	}
	return results, nil
}

// Size returns the number of documents in the collection.
func (c *ChromemIndex) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chunks)
}

// Close drops the collection.
func (c *ChromemIndex) Close() error {
	return c.db.DeleteCollection(chromemCollection)
}
