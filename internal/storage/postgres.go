package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/prana/internal/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

type interactionRow struct {
	bun.BaseModel `bun:"table:interactions"`

	ID              string                  `bun:"id,pk"`
	UserQuery       string                  `bun:"user_query,notnull"`
	IsUnsafe        bool                    `bun:"is_unsafe,notnull"`
	SafetyReason    string                  `bun:"safety_reason"`
	RetrievedChunks []models.RetrievedChunk `bun:"retrieved_chunks,type:jsonb"`
	AIResponse      string                  `bun:"ai_response"`
	Feedback        *models.Feedback        `bun:"feedback,type:jsonb"`
	ModelUsed       string                  `bun:"model_used"`
	CreatedAt       time.Time               `bun:"created_at,notnull"`
	UpdatedAt       time.Time               `bun:"updated_at,notnull"`
}

func rowFromInteraction(in *models.Interaction) *interactionRow {
	return &interactionRow{
		ID:              in.QueryID,
		UserQuery:       strings.TrimSpace(in.UserQuery),
		IsUnsafe:        in.Safety.IsUnsafe,
		SafetyReason:    in.Safety.Reason,
		RetrievedChunks: nonNilChunks(in.RetrievedChunks),
		AIResponse:      in.AIResponse,
		Feedback:        in.Feedback,
		ModelUsed:       in.ModelUsed,
		CreatedAt:       in.CreatedAt,
		UpdatedAt:       in.UpdatedAt,
	}
}

func (r *interactionRow) interaction() *models.Interaction {
	return &models.Interaction{
		QueryID:         r.ID,
		UserQuery:       r.UserQuery,
		Safety:          models.SafetyVerdict{IsUnsafe: r.IsUnsafe, Reason: r.SafetyReason},
		RetrievedChunks: r.RetrievedChunks,
		AIResponse:      r.AIResponse,
		Feedback:        r.Feedback,
		ModelUsed:       r.ModelUsed,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// PostgresStorage implements InteractionStore on PostgreSQL through bun.
type PostgresStorage struct {
	db *bun.DB
}

// NewPostgresStorage connects to dsn and creates the interactions table if needed.
// With debug set every query is logged by bundebug.
func NewPostgresStorage(dsn string, debug bool) (*PostgresStorage, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*interactionRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStorage{db: db}, nil
}

// CreateInteraction inserts an interaction.
func (s *PostgresStorage) CreateInteraction(ctx context.Context, in *models.Interaction) error {
	stampCreated(in)
	if _, err := s.db.NewInsert().Model(rowFromInteraction(in)).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert interaction %s: %w", in.QueryID, err)
	}
	return nil
}

// GetInteraction returns an interaction by query id.
func (s *PostgresStorage) GetInteraction(ctx context.Context, queryID string) (*models.Interaction, error) {
	row := new(interactionRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", queryID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, queryID)
	}
	if err != nil {
		return nil, err
	}
	return row.interaction(), nil
}

// UpdateFeedback sets the feedback column and returns the updated record.
func (s *PostgresStorage) UpdateFeedback(ctx context.Context, queryID string, fb models.Feedback) (*models.Interaction, error) {
	row := &interactionRow{ID: queryID, Feedback: &fb, UpdatedAt: time.Now().UTC()}
	res, err := s.db.NewUpdate().Model(row).Column("feedback", "updated_at").WherePK().Exec(ctx)
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
func (s *PostgresStorage) CountInteractions(ctx context.Context) (int64, error) {
	n, err := s.db.NewSelect().Model((*interactionRow)(nil)).Count(ctx)
	return int64(n), err
}

// Close closes the connection pool.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
