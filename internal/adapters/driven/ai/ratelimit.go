package ai

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure the decorators implement the interfaces.
var (
	_ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)
	_ driven.CorpusPreparer   = (*RateLimitedEmbedding)(nil)
	_ driven.LLMService       = (*RateLimitedLLM)(nil)
)

// newLimiter creates a token bucket for the given settings.
// Burst is at least one so a single request can always proceed.
func newLimiter(cfg domain.RateLimitSettings) *rate.Limiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
}

// RateLimitedEmbedding throttles calls to an embedding provider.
// A batch counts as one request.
type RateLimitedEmbedding struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimitedEmbedding wraps next with a token bucket limiter.
func NewRateLimitedEmbedding(next driven.EmbeddingService, cfg domain.RateLimitSettings) *RateLimitedEmbedding {
	return &RateLimitedEmbedding{next: next, limiter: newLimiter(cfg)}
}

// Embed waits for a token, then embeds text.
func (r *RateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Embed(ctx, text)
}

// EmbedBatch waits for a token, then embeds all texts in one call.
func (r *RateLimitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.EmbedBatch(ctx, texts)
}

// Fit fits the wrapped service when it needs the corpus. The fitted
// service shares this decorator's limiter. Services that need no fit are
// returned as they are.
func (r *RateLimitedEmbedding) Fit(ctx context.Context, texts []string) (driven.EmbeddingService, error) {
	p, ok := r.next.(driven.CorpusPreparer)
	if !ok {
		return r, nil
	}
	fitted, err := p.Fit(ctx, texts)
	if err != nil {
		return nil, err
	}
	return &RateLimitedEmbedding{next: fitted, limiter: r.limiter}, nil
}

// Dimensions returns the wrapped service's vector size.
func (r *RateLimitedEmbedding) Dimensions() int { return r.next.Dimensions() }

// ModelName returns the wrapped service's model.
func (r *RateLimitedEmbedding) ModelName() string { return r.next.ModelName() }

// Ping is not throttled.
func (r *RateLimitedEmbedding) Ping(ctx context.Context) error { return r.next.Ping(ctx) }

// Close closes the wrapped service.
func (r *RateLimitedEmbedding) Close() error { return r.next.Close() }

// RateLimitedLLM throttles calls to a completion provider.
type RateLimitedLLM struct {
	next    driven.LLMService
	limiter *rate.Limiter
}

// NewRateLimitedLLM wraps next with a token bucket limiter.
func NewRateLimitedLLM(next driven.LLMService, cfg domain.RateLimitSettings) *RateLimitedLLM {
	return &RateLimitedLLM{next: next, limiter: newLimiter(cfg)}
}

// Chat waits for a token, then chats.
func (r *RateLimitedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Chat(ctx, messages, opts)
}

// ModelName returns the wrapped service's model.
func (r *RateLimitedLLM) ModelName() string { return r.next.ModelName() }

// Ping is not throttled.
func (r *RateLimitedLLM) Ping(ctx context.Context) error { return r.next.Ping(ctx) }

// Close closes the wrapped service.
func (r *RateLimitedLLM) Close() error { return r.next.Close() }
