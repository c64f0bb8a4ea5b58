package embedding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hyperjump/prana/pkg/utils"
	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries is how many times a rate-limited call is retried.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the first backoff; attempt n waits DefaultBaseDelay * 2^n.
	DefaultBaseDelay = time.Second
)

// RetryingEmbedder retries rate-limited calls on the wrapped Embedder with exponential backoff.
// Any other error is returned immediately.
type RetryingEmbedder struct {
	inner      Embedder
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zap.Logger
}

// RetryOption configures a RetryingEmbedder.
type RetryOption func(*RetryingEmbedder)

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(n int) RetryOption {
	return func(r *RetryingEmbedder) { r.maxRetries = n }
}

// WithBaseDelay overrides DefaultBaseDelay.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(r *RetryingEmbedder) { r.baseDelay = d }
}

// WithSleep replaces the wait between attempts (tests use it to avoid real delays).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *RetryingEmbedder) { r.sleep = fn }
}

// WithRetryLogger logs each backoff at warn level.
func WithRetryLogger(l *zap.Logger) RetryOption {
	return func(r *RetryingEmbedder) { r.logger = l }
}

// NewRetryingEmbedder wraps inner.
func NewRetryingEmbedder(inner Embedder, opts ...RetryOption) *RetryingEmbedder {
	r := &RetryingEmbedder{
		inner:      inner,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.OrNop(r.logger)
	return r
}

// Embed embeds one text, retrying on rate limits.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.do(ctx, func() error {
		var err error
		out, err = r.inner.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch embeds texts, retrying the whole batch on rate limits.
func (r *RetryingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := r.do(ctx, func() error {
		var err error
		out, err = r.inner.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// Dimensions returns the wrapped embedder's dimension.
func (r *RetryingEmbedder) Dimensions() int {
	return r.inner.Dimensions()
}

// Close closes the wrapped embedder.
func (r *RetryingEmbedder) Close() error {
	return r.inner.Close()
}

func (r *RetryingEmbedder) do(ctx context.Context, call func() error) error {
	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		if !IsRateLimited(err) || attempt >= r.maxRetries {
			return err
		}
		delay := r.baseDelay << attempt
		r.logger.Warn("embedding rate limited, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// IsRateLimited reports whether err looks like a provider rate limit.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "resource_exhausted")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
