package rag

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/prana/internal/llm"
	"github.com/hyperjump/prana/internal/models"
	"github.com/hyperjump/prana/internal/safety"
	"github.com/hyperjump/prana/internal/storage"
	"github.com/hyperjump/prana/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	calls   atomic.Int32
	results []vector.Result
	err     error
	topK    int
}

func (f *fakeRetriever) GetRelevantContext(ctx context.Context, query string, topK int) ([]vector.Result, error) {
	f.calls.Add(1)
	f.topK = topK
	return f.results, f.err
}

type fakeGenerator struct {
	calls  atomic.Int32
	chunks []llm.ContextChunk
	answer string
	err    error
	panics bool
}

func (f *fakeGenerator) Generate(ctx context.Context, query string, chunks []llm.ContextChunk) (string, error) {
	f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	f.chunks = chunks
	return f.answer, f.err
}

func (f *fakeGenerator) Model() string { return "fake-model" }

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*models.Interaction
	err     error
	block   chan struct{}
	ctxErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]*models.Interaction{}}
}

func (m *memoryStore) CreateInteraction(ctx context.Context, in *models.Interaction) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxErr = ctx.Err()
	if m.err != nil {
		return m.err
	}
	m.records[in.QueryID] = in
	return nil
}

func (m *memoryStore) UpdateFeedback(ctx context.Context, queryID string, fb models.Feedback) (*models.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.records[queryID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	in.Feedback = &fb
	return in, nil
}

func (m *memoryStore) get(id string) *models.Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

func threeResults() []vector.Result {
	return []vector.Result{
		{Score: 0.9, Chunk: models.Chunk{ChunkID: "1_0", ArticleID: "1", Title: "Mountain Pose", Content: "Stand tall.", SourceLink: "https://ex/1"}},
		{Score: 0.7, Chunk: models.Chunk{ChunkID: "2_1", ArticleID: "2", Title: "Sun Salutation", Content: "Flow with breath.", SourceLink: "https://ex/2"}},
		{Score: 0.5, Chunk: models.Chunk{ChunkID: "3_0", ArticleID: "3", Title: "Child's Pose", Content: "Rest.", SourceLink: "https://ex/3"}},
	}
}

func waitLogged(t *testing.T, s *Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestAsk_Safe(t *testing.T) {
	ret := &fakeRetriever{results: threeResults()}
	gen := &fakeGenerator{answer: "Begin with Mountain Pose."}
	store := newMemoryStore()
	s := NewService(safety.Default(), ret, gen, store, WithTopK(3), WithIDGenerator(func() string { return "q-1" }))

	resp, err := s.Ask(context.Background(), models.AskRequest{Query: "  What are good yoga poses for beginners?  "})
	require.NoError(t, err)
	assert.Equal(t, "q-1", resp.QueryID)
	assert.False(t, resp.IsUnsafe)
	assert.Equal(t, "Begin with Mountain Pose.", resp.Answer)
	require.Len(t, resp.Sources, 3)
	assert.Equal(t, models.Source{Title: "Mountain Pose", Link: "https://ex/1", ArticleID: "1"}, resp.Sources[0])
	assert.Equal(t, "Child's Pose", resp.Sources[2].Title)
	assert.Equal(t, 3, ret.topK)
	assert.Equal(t, int32(1), ret.calls.Load())
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, []llm.ContextChunk{
		{Title: "Mountain Pose", Content: "Stand tall."},
		{Title: "Sun Salutation", Content: "Flow with breath."},
		{Title: "Child's Pose", Content: "Rest."},
	}, gen.chunks)

	waitLogged(t, s)
	in := store.get("q-1")
	require.NotNil(t, in)
	assert.Equal(t, "What are good yoga poses for beginners?", in.UserQuery)
	assert.Equal(t, "fake-model", in.ModelUsed)
	require.Len(t, in.RetrievedChunks, 3)
	assert.Equal(t, "2_1", in.RetrievedChunks[1].ChunkID)
	assert.Equal(t, 0.7, in.RetrievedChunks[1].Score)
}

func TestAsk_UnsafeSkipsRetrievalAndGeneration(t *testing.T) {
	ret := &fakeRetriever{results: threeResults()}
	gen := &fakeGenerator{answer: "should not be used"}
	store := newMemoryStore()
	s := NewService(nil, ret, gen, store)

	resp, err := s.Ask(context.Background(), models.AskRequest{Query: "I'm 6 months pregnant, can I do yoga?"})
	require.NoError(t, err)
	assert.True(t, resp.IsUnsafe)
	require.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
	assert.Contains(t, resp.Answer, "prenatal")
	assert.NotEmpty(t, resp.QueryID)
	assert.Equal(t, int32(0), ret.calls.Load())
	assert.Equal(t, int32(0), gen.calls.Load())

	waitLogged(t, s)
	in := store.get(resp.QueryID)
	require.NotNil(t, in)
	assert.True(t, in.Safety.IsUnsafe)
	assert.Contains(t, in.Safety.Reason, "prenatal")
	assert.Empty(t, in.RetrievedChunks)
}

func TestAsk_Validation(t *testing.T) {
	ret := &fakeRetriever{}
	s := NewService(nil, ret, &fakeGenerator{}, nil)
	_, err := s.Ask(context.Background(), models.AskRequest{Query: " \n\t "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, int32(0), ret.calls.Load())
}

func TestAsk_PersistenceFailureDoesNotChangeResponse(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("disk full")
	s := NewService(nil, &fakeRetriever{results: threeResults()}, &fakeGenerator{answer: "ok"}, store)

	resp, err := s.Ask(context.Background(), models.AskRequest{Query: "sun salutation steps"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.QueryID)
	assert.Equal(t, "ok", resp.Answer)
	waitLogged(t, s)
}

func TestAsk_ResponseDoesNotWaitForLogging(t *testing.T) {
	store := newMemoryStore()
	store.block = make(chan struct{})
	s := NewService(nil, &fakeRetriever{results: threeResults()}, &fakeGenerator{answer: "ok"}, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *models.AskResponse, 1)
	go func() {
		resp, _ := s.Ask(ctx, models.AskRequest{Query: "warrior pose"})
		done <- resp
	}()
	var resp *models.AskResponse
	select {
	case resp = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Ask blocked on the audit store")
	}
	cancel()

	short, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()
	assert.ErrorIs(t, s.Wait(short), context.DeadlineExceeded)

	close(store.block)
	waitLogged(t, s)
	assert.NotNil(t, store.get(resp.QueryID))
	assert.NoError(t, store.ctxErr, "logging must not inherit request cancellation")
}

func TestAsk_CollaboratorFailures(t *testing.T) {
	upstream := errors.New("upstream down")
	s := NewService(nil, &fakeRetriever{err: upstream}, &fakeGenerator{}, newMemoryStore())
	_, err := s.Ask(context.Background(), models.AskRequest{Query: "pigeon pose"})
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, upstream)

	gen := &fakeGenerator{err: upstream}
	store := newMemoryStore()
	s = NewService(nil, &fakeRetriever{results: threeResults()}, gen, store)
	_, err = s.Ask(context.Background(), models.AskRequest{Query: "pigeon pose"})
	assert.ErrorIs(t, err, ErrGeneration)
	waitLogged(t, s)
	assert.Empty(t, store.records, "failed requests are not logged")

	s = NewService(nil, &fakeRetriever{results: threeResults()}, &fakeGenerator{panics: true}, nil)
	_, err = s.Ask(context.Background(), models.AskRequest{Query: "pigeon pose"})
	assert.ErrorIs(t, err, ErrInternal)
}

func TestAsk_EmptyRetrievalStillGenerates(t *testing.T) {
	gen := &fakeGenerator{answer: llm.InsufficientInformationMessage}
	s := NewService(nil, &fakeRetriever{results: []vector.Result{}}, gen, nil)
	resp, err := s.Ask(context.Background(), models.AskRequest{Query: "kundalini history"})
	require.NoError(t, err)
	assert.Equal(t, llm.InsufficientInformationMessage, resp.Answer)
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestFeedback(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewService(nil, &fakeRetriever{results: threeResults()}, &fakeGenerator{answer: "ok"}, store, WithClock(func() time.Time { return now }))
	resp, err := s.Ask(context.Background(), models.AskRequest{Query: "tree pose"})
	require.NoError(t, err)
	waitLogged(t, s)

	helpful := false
	rating := 2
	fr, err := s.Feedback(context.Background(), models.FeedbackRequest{QueryID: resp.QueryID, Helpful: &helpful, Rating: &rating, Comment: " too short "})
	require.NoError(t, err)
	assert.Equal(t, FeedbackReceived, fr.Message)
	assert.Equal(t, resp.QueryID, fr.QueryID)

	in := store.get(resp.QueryID)
	require.NotNil(t, in.Feedback)
	assert.False(t, in.Feedback.IsHelpful)
	assert.Equal(t, 2, *in.Feedback.Rating)
	assert.Equal(t, "too short", in.Feedback.Comment)
	assert.Equal(t, now, in.Feedback.ReceivedAt)
}

func TestFeedback_Errors(t *testing.T) {
	s := NewService(nil, &fakeRetriever{}, &fakeGenerator{}, newMemoryStore())
	yes := true
	bad := 6

	tests := []struct {
		name string
		req  models.FeedbackRequest
		want error
	}{
		{"missing query id", models.FeedbackRequest{Helpful: &yes}, ErrValidation},
		{"missing helpful", models.FeedbackRequest{QueryID: "q"}, ErrValidation},
		{"rating out of range", models.FeedbackRequest{QueryID: "q", Helpful: &yes, Rating: &bad}, ErrValidation},
		{"unknown id", models.FeedbackRequest{QueryID: "nope", Helpful: &yes}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Feedback(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	noStore := NewService(nil, &fakeRetriever{}, &fakeGenerator{}, nil)
	_, err := noStore.Feedback(context.Background(), models.FeedbackRequest{QueryID: "q", Helpful: &yes})
	assert.ErrorIs(t, err, ErrNotFound)
}
