package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/prana/internal/models"
)

func sampleInteraction(id string) *models.Interaction {
	return &models.Interaction{
		QueryID:   id,
		UserQuery: "  How do I start with Sun Salutation?  ",
		Safety:    models.SafetyVerdict{IsUnsafe: false},
		RetrievedChunks: []models.RetrievedChunk{
			{ChunkID: "4_0", Title: "Surya Namaskar", Score: 0.82, Content: "Begin in mountain pose."},
		},
		AIResponse: "Start slowly.",
		ModelUsed:  "gemini-2.5-flash",
	}
}

// testInteractionStore runs the behaviour every InteractionStore must share.
func testInteractionStore(t *testing.T, store InteractionStore) {
	t.Helper()
	ctx := context.Background()

	in := sampleInteraction("q-1")
	if err := store.CreateInteraction(ctx, in); err != nil {
		t.Fatalf("CreateInteraction: %v", err)
	}
	if in.CreatedAt.IsZero() || in.UpdatedAt.IsZero() {
		t.Error("CreatedAt and UpdatedAt should be set")
	}
	unsafe := &models.Interaction{
		QueryID:    "q-2",
		UserQuery:  "I'm pregnant",
		Safety:     models.SafetyVerdict{IsUnsafe: true, Reason: "prenatal guidance"},
		AIResponse: "Please consult...",
	}
	if err := store.CreateInteraction(ctx, unsafe); err != nil {
		t.Fatalf("CreateInteraction(unsafe): %v", err)
	}
	if err := store.CreateInteraction(ctx, sampleInteraction("q-1")); err == nil {
		t.Error("expected error inserting a duplicate query id")
	}

	got, err := store.GetInteraction(ctx, "q-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.UserQuery != "How do I start with Sun Salutation?" {
		t.Errorf("user query not trimmed: %q", got.UserQuery)
	}
	if len(got.RetrievedChunks) != 1 || got.RetrievedChunks[0].ChunkID != "4_0" || got.RetrievedChunks[0].Score != 0.82 {
		t.Errorf("retrieved chunks = %+v", got.RetrievedChunks)
	}
	if got.Feedback != nil {
		t.Errorf("feedback should be empty, got %+v", got.Feedback)
	}

	got, err = store.GetInteraction(ctx, "q-2")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Safety.IsUnsafe || got.Safety.Reason != "prenatal guidance" || got.RetrievedChunks == nil {
		t.Errorf("unsafe interaction = %+v", got)
	}

	rating := 4
	updated, err := store.UpdateFeedback(ctx, "q-1", models.Feedback{IsHelpful: true, Rating: &rating, Comment: "clear", ReceivedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("UpdateFeedback: %v", err)
	}
	if updated.Feedback == nil || !updated.Feedback.IsHelpful || *updated.Feedback.Rating != 4 || updated.Feedback.Comment != "clear" {
		t.Errorf("feedback = %+v", updated.Feedback)
	}
	if updated.AIResponse != "Start slowly." {
		t.Errorf("feedback update changed other fields: %+v", updated)
	}

	if _, err := store.UpdateFeedback(ctx, "missing", models.Feedback{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateFeedback(missing) err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetInteraction(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInteraction(missing) err = %v, want ErrNotFound", err)
	}

	n, err := store.CountInteractions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountInteractions = %d, want 2", n)
	}
}

func TestSQLiteStorage(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "interactions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	testInteractionStore(t, store)
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateInteraction(context.Background(), sampleInteraction("keep")); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, err := store.GetInteraction(context.Background(), "keep"); err != nil {
		t.Errorf("interaction lost after reopen: %v", err)
	}
}
