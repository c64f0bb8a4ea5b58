package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/prana/internal/models"
)

// SQLiteStorage implements InteractionStore using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		user_query TEXT NOT NULL,
		is_unsafe INTEGER NOT NULL DEFAULT 0,
		safety_reason TEXT NOT NULL DEFAULT '',
		retrieved_chunks TEXT NOT NULL DEFAULT '[]',
		ai_response TEXT NOT NULL DEFAULT '',
		feedback TEXT,
		model_used TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateInteraction inserts an interaction.
func (s *SQLiteStorage) CreateInteraction(ctx context.Context, in *models.Interaction) error {
	stampCreated(in)
	chunksJSON, err := json.Marshal(nonNilChunks(in.RetrievedChunks))
	if err != nil {
		return fmt.Errorf("failed to marshal retrieved chunks: %w", err)
	}
	feedbackJSON, err := marshalFeedback(in.Feedback)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, user_query, is_unsafe, safety_reason, retrieved_chunks, ai_response, feedback, model_used, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.QueryID, strings.TrimSpace(in.UserQuery), in.Safety.IsUnsafe, in.Safety.Reason,
		string(chunksJSON), in.AIResponse, feedbackJSON, in.ModelUsed, in.CreatedAt, in.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interaction %s: %w", in.QueryID, err)
	}
	return nil
}

// GetInteraction returns an interaction by query id.
func (s *SQLiteStorage) GetInteraction(ctx context.Context, queryID string) (*models.Interaction, error) {
	var in models.Interaction
	var chunksJSON string
	var feedbackJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_query, is_unsafe, safety_reason, retrieved_chunks, ai_response, feedback, model_used, created_at, updated_at
		 FROM interactions WHERE id = ?`, queryID,
	).Scan(&in.QueryID, &in.UserQuery, &in.Safety.IsUnsafe, &in.Safety.Reason, &chunksJSON,
		&in.AIResponse, &feedbackJSON, &in.ModelUsed, &in.CreatedAt, &in.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, queryID)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(chunksJSON), &in.RetrievedChunks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal retrieved chunks: %w", err)
	}
	if feedbackJSON.Valid && feedbackJSON.String != "" {
		var fb models.Feedback
		if err := json.Unmarshal([]byte(feedbackJSON.String), &fb); err != nil {
			return nil, fmt.Errorf("failed to unmarshal feedback: %w", err)
		}
		in.Feedback = &fb
	}
	return &in, nil
}

// UpdateFeedback attaches feedback to an existing interaction.
func (s *SQLiteStorage) UpdateFeedback(ctx context.Context, queryID string, fb models.Feedback) (*models.Interaction, error) {
	feedbackJSON, err := marshalFeedback(&fb)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE interactions SET feedback = ?, updated_at = ? WHERE id = ?`,
		feedbackJSON, time.Now().UTC(), queryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, queryID)
	}
	return s.GetInteraction(ctx, queryID)
}

// CountInteractions returns the number of stored interactions.
func (s *SQLiteStorage) CountInteractions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func stampCreated(in *models.Interaction) {
	now := time.Now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = in.CreatedAt
	}
}

func nonNilChunks(c []models.RetrievedChunk) []models.RetrievedChunk {
	if c == nil {
		return []models.RetrievedChunk{}
	}
	return c
}

func marshalFeedback(fb *models.Feedback) (sql.NullString, error) {
	if fb == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(fb)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal feedback: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
