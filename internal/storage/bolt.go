package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/prana/internal/models"
	bolt "go.etcd.io/bbolt"
)

var interactionsBucket = []byte("interactions")

// BoltStorage implements InteractionStore in a single bbolt file, one JSON value per query id.
type BoltStorage struct {
	db *bolt.DB
}

// NewBoltStorage opens or creates the bbolt file at path.
func NewBoltStorage(path string) (*BoltStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(interactionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltStorage{db: db}, nil
}

// CreateInteraction stores an interaction. An existing id is an error.
func (s *BoltStorage) CreateInteraction(ctx context.Context, in *models.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stampCreated(in)
	rec := *in
	rec.UserQuery = strings.TrimSpace(rec.UserQuery)
	rec.RetrievedChunks = nonNilChunks(rec.RetrievedChunks)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(interactionsBucket)
		if b.Get([]byte(in.QueryID)) != nil {
			return fmt.Errorf("interaction %s already exists", in.QueryID)
		}
		return b.Put([]byte(in.QueryID), data)
	})
}

// GetInteraction returns an interaction by query id.
func (s *BoltStorage) GetInteraction(ctx context.Context, queryID string) (*models.Interaction, error) {
	var in models.Interaction
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(interactionsBucket).Get([]byte(queryID))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, queryID)
		}
		return json.Unmarshal(data, &in)
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// UpdateFeedback reads, modifies and rewrites the record in one transaction.
func (s *BoltStorage) UpdateFeedback(ctx context.Context, queryID string, fb models.Feedback) (*models.Interaction, error) {
	var in models.Interaction
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(interactionsBucket)
		data := b.Get([]byte(queryID))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, queryID)
		}
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("failed to unmarshal interaction: %w", err)
		}
		in.Feedback = &fb
		in.UpdatedAt = time.Now().UTC()
		updated, err := json.Marshal(in)
		if err != nil {
			return err
		}
		return b.Put([]byte(queryID), updated)
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// CountInteractions returns the number of keys in the bucket.
func (s *BoltStorage) CountInteractions(ctx context.Context) (int64, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(interactionsBucket).Stats().KeyN
		return nil
	})
	return int64(n), err
}

// Close closes the bolt file.
func (s *BoltStorage) Close() error {
	return s.db.Close()
}
