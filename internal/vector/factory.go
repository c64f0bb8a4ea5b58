package vector

import (
	"context"
	"fmt"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search. Good for corpora of a few thousand chunks.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeChromem stores entries in an in-process chromem-go collection.
	IndexTypeChromem IndexType = "chromem"
)

// NewVectorIndex creates an empty vector index of the specified type.
// Supported types: "memory" (default), "chromem".
func NewVectorIndex(indexType string) (VectorIndex, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(), nil
	case IndexTypeChromem:
		return NewChromemIndex()
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, chromem)", indexType)
	}
}

// BuildIndex creates an index of indexType and adds entries in order.
func BuildIndex(ctx context.Context, indexType string, entries []Entry) (VectorIndex, error) {
	idx, err := NewVectorIndex(indexType)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := idx.Add(ctx, e.Vector, e.Metadata); err != nil {
			idx.Close()
			return nil, err
		}
	}
	return idx, nil
}
