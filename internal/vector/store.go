package vector

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hyperjump/prana/pkg/utils"
	"go.uber.org/zap"
)

type holder struct {
	index VectorIndex
}

// Store serves searches from the current index and lets a fully built replacement
// be swapped in without blocking readers. The index is loaded from its Source at most
// once; a failed load leaves an empty index in place.
type Store struct {
	source    Source
	indexType string
	logger    *zap.Logger
	current   atomic.Pointer[holder]
	loadOnce  sync.Once
	reloadMu  sync.Mutex
}

// NewStore creates a store that will load indexType from source.
func NewStore(source Source, indexType string, logger *zap.Logger) *Store {
	return &Store{
		source:    source,
		indexType: indexType,
		logger:    utils.OrNop(logger),
	}
}

// Load reads the snapshot on the first call and is a no-op afterwards.
func (s *Store) Load(ctx context.Context) {
	s.loadOnce.Do(func() {
		idx, err := s.build(ctx)
		if err != nil {
			s.logger.Warn("vector index unavailable, serving empty index",
				zap.String("source", s.sourceName()),
				zap.Error(err))
			idx, _ = NewVectorIndex(s.indexType)
			if idx == nil {
				idx = NewMemoryIndex()
			}
		} else {
			s.logger.Info("vector index loaded",
				zap.String("source", s.sourceName()),
				zap.String("type", idx.Type()),
				zap.Int("entries", idx.Size()))
		}
		s.current.CompareAndSwap(nil, &holder{index: idx})
	})
}

// Reload builds a fresh index from the source and swaps it in.
// On failure the current index keeps serving and the error is returned.
// The replaced index is left open for searches that started on it and is reclaimed by GC.
func (s *Store) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.Load(ctx)
	idx, err := s.build(ctx)
	if err != nil {
		return err
	}
	s.Swap(idx)
	s.logger.Info("vector index reloaded", zap.Int("entries", idx.Size()))
	return nil
}

// Swap installs idx as the current index and returns the previous one.
// Searches already running keep using the index they started with.
func (s *Store) Swap(idx VectorIndex) VectorIndex {
	s.loadOnce.Do(func() {})
	prev := s.current.Swap(&holder{index: idx})
	if prev == nil {
		return nil
	}
	return prev.index
}

// Current returns the index serving searches, loading it first if needed.
func (s *Store) Current(ctx context.Context) VectorIndex {
	if h := s.current.Load(); h != nil {
		return h.index
	}
	s.Load(ctx)
	return s.current.Load().index
}

// Search delegates to the current index.
func (s *Store) Search(ctx context.Context, query []float32, topK int) ([]Result, error) {
	return s.Current(ctx).Search(ctx, query, topK)
}

// Size returns the number of entries in the current index.
func (s *Store) Size() int {
	return s.Current(context.Background()).Size()
}

// Type returns the configured index type.
func (s *Store) Type() string {
	return s.indexType
}

// Close closes the current index.
func (s *Store) Close() error {
	if h := s.current.Load(); h != nil {
		return h.index.Close()
	}
	return nil
}

func (s *Store) build(ctx context.Context) (VectorIndex, error) {
	if s.source == nil {
		return NewVectorIndex(s.indexType)
	}
	entries, err := ReadSnapshot(s.source)
	if err != nil {
		return nil, err
	}
	return BuildIndex(ctx, s.indexType, entries)
}

func (s *Store) sourceName() string {
	if s.source == nil {
		return "none"
	}
	return s.source.String()
}
