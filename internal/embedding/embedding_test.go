package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/pkg/utils"
)

func TestMockEmbedder_deterministic(t *testing.T) {
	e := NewMockEmbedder(64)
	ctx := context.Background()
	a, err := e.Embed(ctx, "Sun salutation for beginners")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "Sun salutation for beginners")
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d: %v != %v", i, a[i], b[i])
		}
	}
	if n := utils.L2Norm(a); n < 0.999 || n > 1.001 {
		t.Errorf("norm = %v, want 1", n)
	}
}

func TestMockEmbedder_emptyTextIsZero(t *testing.T) {
	v, err := NewMockEmbedder(8).Embed(context.Background(), "  ...  ")
	if err != nil {
		t.Fatal(err)
	}
	if utils.L2Norm(v) != 0 {
		t.Errorf("expected zero vector, got %v", v)
	}
}

func TestMockEmbedder_EmbedBatch(t *testing.T) {
	e := NewMockEmbedder(16)
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Errorf("got %d embeddings, want 3", len(out))
	}
	if e.Dimensions() != 16 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}
}

type flakyEmbedder struct {
	failures int
	err      error
	calls    int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	v, err := f.Embed(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = v
	}
	return out, nil
}

func (f *flakyEmbedder) Dimensions() int { return 2 }
func (f *flakyEmbedder) Close() error    { return nil }

func recordSleeps(delays *[]time.Duration) RetryOption {
	return WithSleep(func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	})
}

func TestRetryingEmbedder_backoff(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, err: errors.New("API returned unexpected status code: 429")}
	var delays []time.Duration
	r := NewRetryingEmbedder(inner, recordSleeps(&delays))
	v, err := r.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v) != 2 {
		t.Errorf("vector = %v", v)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if fmt.Sprint(delays) != fmt.Sprint(want) {
		t.Errorf("delays = %v, want %v", delays, want)
	}
}

func TestRetryingEmbedder_givesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, err: ErrRateLimited}
	var delays []time.Duration
	r := NewRetryingEmbedder(inner, recordSleeps(&delays))
	_, err := r.EmbedBatch(context.Background(), []string{"a"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if inner.calls != DefaultMaxRetries+1 {
		t.Errorf("calls = %d, want %d", inner.calls, DefaultMaxRetries+1)
	}
	if len(delays) != 3 || delays[2] != 4*time.Second {
		t.Errorf("delays = %v, want 1s 2s 4s", delays)
	}
}

func TestRetryingEmbedder_noRetryOnOtherErrors(t *testing.T) {
	inner := &flakyEmbedder{failures: 1, err: errors.New("invalid api key")}
	r := NewRetryingEmbedder(inner, WithSleep(func(context.Context, time.Duration) error {
		t.Fatal("unexpected sleep")
		return nil
	}))
	if _, err := r.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestRetryingEmbedder_contextCanceled(t *testing.T) {
	inner := &flakyEmbedder{failures: 5, err: ErrRateLimited}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRetryingEmbedder(inner, WithBaseDelay(time.Hour))
	_, err := r.Embed(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrRateLimited, true},
		{fmt.Errorf("wrap: %w", ErrRateLimited), true},
		{errors.New("status 429 Too Many Requests"), true},
		{errors.New("RESOURCE_EXHAUSTED: quota"), true},
		{errors.New("Rate limit reached"), true},
		{errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		if got := IsRateLimited(tt.err); got != tt.want {
			t.Errorf("IsRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "mock", Dimensions: 32})
	if err != nil {
		t.Fatalf("New(mock): %v", err)
	}
	if e.Dimensions() != 32 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}
	if _, err := New(config.EmbeddingConfig{Provider: "onnx"}); !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("unknown provider: err = %v", err)
	}
	t.Setenv("PRANA_TEST_MISSING_KEY", "")
	_, err = New(config.EmbeddingConfig{Provider: "gemini", APIKeyEnv: "PRANA_TEST_MISSING_KEY"})
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("missing key: err = %v", err)
	}
}
