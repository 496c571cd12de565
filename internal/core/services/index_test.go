package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestNewIndex_Valid(t *testing.T) {
	chunks := []domain.Chunk{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}}
	vectors := [][]float32{{1, 0}, {0, 1}}

	idx, err := NewIndex(chunks, vectors, "m")
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, idx.Dimension())
	assert.Equal(t, "m", idx.Model())
	assert.Equal(t, chunks, idx.Chunks())
	assert.Equal(t, vectors, idx.Vectors())
	assert.False(t, idx.BuiltAt().IsZero())
}

func TestNewIndex_Empty(t *testing.T) {
	idx, err := NewIndex(nil, nil, "m")
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, idx.Dimension())
}

func TestNewIndex_CountMismatch(t *testing.T) {
	_, err := NewIndex([]domain.Chunk{{ID: "a"}, {ID: "b"}}, [][]float32{{1}}, "m")

	var corrupt *domain.CorruptIndexError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, 2, corrupt.Chunks)
	assert.Equal(t, 1, corrupt.Vectors)
	assert.True(t, errors.Is(err, domain.ErrCorruptIndex))
}

func TestNewIndex_DimensionMismatch(t *testing.T) {
	_, err := NewIndex(
		[]domain.Chunk{{ID: "a"}, {ID: "b"}},
		[][]float32{{1, 0}, {1, 0, 0}},
		"m",
	)

	var dim *domain.DimensionMismatchError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 2, dim.Expected)
	assert.Equal(t, 3, dim.Actual)
}

func TestNewIndex_DuplicateID(t *testing.T) {
	_, err := NewIndex(
		[]domain.Chunk{{ID: "a"}, {ID: "a"}},
		[][]float32{{1}, {1}},
		"m",
	)
	assert.True(t, errors.Is(err, domain.ErrCorruptIndex))
}

func TestNewIndex_EmptyVector(t *testing.T) {
	_, err := NewIndex([]domain.Chunk{{ID: "a"}}, [][]float32{{}}, "m")
	assert.True(t, errors.Is(err, domain.ErrCorruptIndex))
}

func TestNewIndex_CopiesInput(t *testing.T) {
	chunks := []domain.Chunk{{ID: "a", Text: "x", Metadata: map[string]string{"k": "v"}}}
	vectors := [][]float32{{1, 2}}

	idx, err := NewIndex(chunks, vectors, "m")
	require.NoError(t, err)

	chunks[0].Metadata["k"] = "changed"
	vectors[0][0] = 99

	assert.Equal(t, "v", idx.Chunk(0).Metadata["k"])
	assert.Equal(t, float32(1), idx.Vectors()[0][0])

	out := idx.Chunks()
	out[0].Text = "mutated"
	assert.Equal(t, "x", idx.Chunk(0).Text)
}

func TestIndex_Append(t *testing.T) {
	base, err := NewIndex([]domain.Chunk{{ID: "a", Text: "x"}}, [][]float32{{1, 0}}, "m")
	require.NoError(t, err)

	grown, err := base.Append([]domain.Chunk{{ID: "b", Text: "y"}}, [][]float32{{0, 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, base.Len(), "original index must be unchanged")
	assert.Equal(t, 2, grown.Len())
	assert.Equal(t, "b", grown.Chunk(1).ID)
}

func TestIndex_AppendRejectsMismatch(t *testing.T) {
	base, err := NewIndex([]domain.Chunk{{ID: "a", Text: "x"}}, [][]float32{{1, 0}}, "m")
	require.NoError(t, err)

	_, err = base.Append([]domain.Chunk{{ID: "b"}, {ID: "c"}}, [][]float32{{0, 1}})
	assert.True(t, errors.Is(err, domain.ErrCorruptIndex))

	_, err = base.Append([]domain.Chunk{{ID: "b"}}, [][]float32{{0, 1, 2}})
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	_, err = base.Append([]domain.Chunk{{ID: "a"}}, [][]float32{{0, 1}})
	assert.True(t, errors.Is(err, domain.ErrCorruptIndex))

	assert.Equal(t, 1, base.Len())
}

func TestIndex_SnapshotRoundTrip(t *testing.T) {
	chunks := []domain.Chunk{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}
	idx, err := NewIndex(chunks, vectors, "m")
	require.NoError(t, err)

	snap := idx.Snapshot()
	assert.Equal(t, 2, snap.Dimension)
	assert.Equal(t, "m", snap.Model)

	restored, err := IndexFromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, idx.Chunks(), restored.Chunks())
	assert.Equal(t, idx.Vectors(), restored.Vectors())
	assert.Equal(t, idx.BuiltAt(), restored.BuiltAt())
}

func TestIndexFromSnapshot_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		snap driven.IndexSnapshot
	}{
		{
			name: "count mismatch",
			snap: driven.IndexSnapshot{
				Chunks:     []domain.Chunk{{ID: "a"}, {ID: "b"}},
				Embeddings: [][]float32{{1}},
			},
		},
		{
			name: "ragged vectors",
			snap: driven.IndexSnapshot{
				Chunks:     []domain.Chunk{{ID: "a"}, {ID: "b"}},
				Embeddings: [][]float32{{1, 2}, {1}},
			},
		},
		{
			name: "recorded dimension disagrees",
			snap: driven.IndexSnapshot{
				Chunks:     []domain.Chunk{{ID: "a"}},
				Embeddings: [][]float32{{1, 2}},
				Dimension:  3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IndexFromSnapshot(tt.snap)
			assert.True(t, errors.Is(err, domain.ErrCorruptIndex), "got %v", err)
		})
	}
}

func TestEmbedAll_SingleBatchCall(t *testing.T) {
	corpus, vectors := testCorpus()
	embedder := newMockEmbedder(vectors)

	got, err := EmbedAll(context.Background(), embedder, corpus.Chunks)
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.batchCalls)
	assert.Equal(t, 0, embedder.embedCalls)
	require.Len(t, got, 3)
	assert.Equal(t, []float32{0.9, 0.1}, got[2])
}

func TestEmbedAll_CountMismatchIsProviderError(t *testing.T) {
	corpus, vectors := testCorpus()
	embedder := newMockEmbedder(vectors)
	embedder.dropLast = true

	_, err := EmbedAll(context.Background(), embedder, corpus.Chunks)

	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "embed_batch", pe.Op)
	assert.Contains(t, err.Error(), "expected 3 vectors, got 2")
}

func TestEmbedAll_ProviderFailure(t *testing.T) {
	corpus, vectors := testCorpus()
	embedder := newMockEmbedder(vectors)
	embedder.batchErr = errors.New("quota exceeded")

	_, err := EmbedAll(context.Background(), embedder, corpus.Chunks)
	assert.True(t, errors.Is(err, domain.ErrProvider))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestEmbedAll_RaggedVectors(t *testing.T) {
	corpus, vectors := testCorpus()
	vectors["beta text"] = []float32{0, 1, 0}
	embedder := newMockEmbedder(vectors)

	_, err := EmbedAll(context.Background(), embedder, corpus.Chunks)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}

func TestEmbedAll_Empty(t *testing.T) {
	embedder := newMockEmbedder(nil)

	got, err := EmbedAll(context.Background(), embedder, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, embedder.batchCalls)
}

func TestBuildIndex_FitsEmbedder(t *testing.T) {
	corpus, vectors := testCorpus()
	fitted := newMockEmbedder(vectors)
	embedder := &mockPreparingEmbedder{mockEmbeddingService: newMockEmbedder(nil), fitted: fitted}

	idx, err := BuildIndex(context.Background(), embedder, corpus.Chunks)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha text", "beta text", "gamma text"}, embedder.prepared)
	assert.Equal(t, 1, fitted.batchCalls, "chunks are embedded with the fitted embedder")
	assert.Equal(t, 0, embedder.batchCalls)
	assert.Same(t, fitted, idx.QueryEmbedder(embedder))
}

func TestBuildIndex_FitError(t *testing.T) {
	corpus, _ := testCorpus()
	embedder := &mockPreparingEmbedder{mockEmbeddingService: newMockEmbedder(nil), fitErr: errors.New("no tokens")}

	_, err := BuildIndex(context.Background(), embedder, corpus.Chunks)
	assert.True(t, errors.Is(err, domain.ErrProvider))
	assert.Equal(t, 0, embedder.batchCalls)
}

func TestFitEmbedder_WithoutFit(t *testing.T) {
	corpus, vectors := testCorpus()
	embedder := newMockEmbedder(vectors)

	got, err := FitEmbedder(context.Background(), embedder, corpus.Chunks)
	require.NoError(t, err)
	assert.Same(t, embedder, got)
}

func TestIndex_QueryEmbedder(t *testing.T) {
	corpus, vectors := testCorpus()
	fallback := newMockEmbedder(vectors)

	var empty *Index
	assert.Same(t, fallback, empty.QueryEmbedder(fallback))

	idx, err := NewIndex(corpus.Chunks[:1], [][]float32{{1, 0}}, "m")
	require.NoError(t, err)
	assert.Same(t, fallback, idx.QueryEmbedder(fallback), "constructed indexes have no embedder of their own")

	built, err := BuildIndex(context.Background(), fallback, corpus.Chunks[:1])
	require.NoError(t, err)
	grown, err := built.Append(corpus.Chunks[1:2], [][]float32{{0, 1}})
	require.NoError(t, err)
	assert.Same(t, fallback, grown.QueryEmbedder(newMockEmbedder(nil)), "append keeps the embedder")
}

func TestEmbedQuery(t *testing.T) {
	_, vectors := testCorpus()
	embedder := newMockEmbedder(vectors)

	v, err := EmbedQuery(context.Background(), embedder, "question")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)

	embedder.embedErr = errors.New("timeout")
	_, err = EmbedQuery(context.Background(), embedder, "question")
	assert.True(t, errors.Is(err, domain.ErrProvider))
}

func TestBuildIndex(t *testing.T) {
	corpus, vectors := testCorpus()
	before := time.Now().UTC()

	idx, err := BuildIndex(context.Background(), newMockEmbedder(vectors), corpus.Chunks)
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, "mock-embed", idx.Model())
	assert.False(t, idx.BuiltAt().Before(before))
}
