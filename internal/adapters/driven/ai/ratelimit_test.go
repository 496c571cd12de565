package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/tfidf"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	c.calls++
	return []float32{1, 0}, nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int { return 2 }
func (c *countingEmbedder) ModelName() string { return "counting" }
func (c *countingEmbedder) Ping(_ context.Context) error { return nil }
func (c *countingEmbedder) Close() error { return nil }

type countingLLM struct {
	calls int
}

func (c *countingLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	c.calls++
	return "answer", nil
}

func (c *countingLLM) ModelName() string { return "counting-llm" }
func (c *countingLLM) Ping(_ context.Context) error { return nil }
func (c *countingLLM) Close() error { return nil }

// slow allows one request and then one every ten minutes.
var slow = domain.RateLimitSettings{RequestsPerSecond: 1.0 / 600, Burst: 1}

func TestRateLimitedEmbedding_BurstThenWait(t *testing.T) {
	next := &countingEmbedder{}
	svc := NewRateLimitedEmbedding(next, slow)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, 1, next.calls, "a batch is one request")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.Embed(ctx, "d")
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls, "throttled call must not reach the provider")
}

func TestRateLimitedEmbedding_Delegates(t *testing.T) {
	next := &countingEmbedder{}
	svc := NewRateLimitedEmbedding(next, domain.RateLimitSettings{RequestsPerSecond: 100})

	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "counting", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	same, err := svc.Fit(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Same(t, svc, same, "services without a fit are returned as is")
	assert.NoError(t, svc.Close())
}

func TestRateLimitedEmbedding_ForwardsFit(t *testing.T) {
	inner := tfidf.NewEmbeddingService()
	svc := NewRateLimitedEmbedding(inner, domain.RateLimitSettings{RequestsPerSecond: 100})

	fitted, err := svc.Fit(context.Background(), []string{"pump flow rate", "floor speed"})
	require.NoError(t, err)
	assert.Positive(t, fitted.Dimensions())
	assert.Equal(t, 0, inner.Dimensions(), "the wrapped service is not modified")

	wrapped, ok := fitted.(*RateLimitedEmbedding)
	require.True(t, ok)
	assert.Same(t, svc.limiter, wrapped.limiter)

	_, err = svc.Fit(context.Background(), nil)
	assert.Error(t, err)
}

func TestRateLimitedLLM(t *testing.T) {
	next := &countingLLM{}
	svc := NewRateLimitedLLM(next, slow)

	answer, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "answer", answer)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.Chat(ctx, []driven.ChatMessage{{Role: "user", Content: "again"}}, driven.ChatOptions{})
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "counting-llm", svc.ModelName())
}

func TestNewLimiter_MinimumBurst(t *testing.T) {
	l := newLimiter(domain.RateLimitSettings{RequestsPerSecond: 5})
	assert.Equal(t, 1, l.Burst())
}
