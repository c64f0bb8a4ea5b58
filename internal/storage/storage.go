// Package storage persists the interaction audit log.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/internal/models"
)

// ErrNotFound is returned when no interaction has the requested query id.
var ErrNotFound = errors.New("interaction not found")

// InteractionStore is the audit log of ask requests and their feedback.
type InteractionStore interface {
	// CreateInteraction inserts one interaction. CreatedAt and UpdatedAt are set when zero.
	CreateInteraction(ctx context.Context, in *models.Interaction) error
	GetInteraction(ctx context.Context, queryID string) (*models.Interaction, error)
	// UpdateFeedback attaches fb to the interaction and returns the updated record, or ErrNotFound.
	UpdateFeedback(ctx context.Context, queryID string, fb models.Feedback) (*models.Interaction, error)
	CountInteractions(ctx context.Context) (int64, error)
	Close() error
}

// Open returns the store selected by cfg.Driver. debug enables SQL query logging where supported.
func Open(cfg config.StorageConfig, debug bool) (InteractionStore, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLiteStorage(cfg.DatabasePath)
	case "bolt":
		return NewBoltStorage(cfg.BoltPath)
	case "postgres":
		return NewPostgresStorage(cfg.PostgresDSN, debug)
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrConfiguration, cfg.Driver)
	}
}

// Paths returns the local files backing cfg, for disk usage reporting.
func Paths(cfg config.StorageConfig) []string {
	switch cfg.Driver {
	case "bolt":
		return []string{cfg.BoltPath}
	case "postgres":
		return nil
	default:
		return []string{cfg.DatabasePath, cfg.DatabasePath + "-wal", cfg.DatabasePath + "-shm"}
	}
}
