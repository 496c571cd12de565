package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Index is an immutable embedding index. chunks[i] is embedded by vectors[i].
// An Index is never modified after construction, so any number of goroutines
// may search it concurrently.
//
// An index built by a corpus-fitted embedder keeps that fitted embedder for
// queries, so the index and its query vectors always come from the same fit.
type Index struct {
	chunks   []domain.Chunk
	vectors  [][]float32
	norms    []float64
	dim      int
	model    string
	builtAt  time.Time
	embedder driven.EmbeddingService
}

// NewIndex validates positional coupling and builds an index.
// Chunks and vectors are copied, so callers may reuse their slices.
func NewIndex(chunks []domain.Chunk, vectors [][]float32, model string) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, &domain.CorruptIndexError{
			Chunks:  len(chunks),
			Vectors: len(vectors),
			Reason:  "chunk and vector counts differ",
		}
	}

	idx := &Index{
		chunks:  make([]domain.Chunk, len(chunks)),
		vectors: make([][]float32, len(vectors)),
		norms:   make([]float64, len(vectors)),
		model:   model,
		builtAt: time.Now().UTC(),
	}

	seen := make(map[string]struct{}, len(chunks))
	for i, c := range chunks {
		if _, dup := seen[c.ID]; dup {
			return nil, &domain.CorruptIndexError{
				Chunks:  len(chunks),
				Vectors: len(vectors),
				Reason:  fmt.Sprintf("duplicate chunk id %q", c.ID),
			}
		}
		seen[c.ID] = struct{}{}
		idx.chunks[i] = c.Clone()
	}

	for i, v := range vectors {
		if len(v) == 0 {
			return nil, &domain.CorruptIndexError{
				Chunks:  len(chunks),
				Vectors: len(vectors),
				Reason:  fmt.Sprintf("vector %d is empty", i),
			}
		}
		if i == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, &domain.DimensionMismatchError{
				Expected: idx.dim,
				Actual:   len(v),
				Context:  fmt.Sprintf("vector %d", i),
			}
		}
		idx.vectors[i] = append([]float32(nil), v...)
		idx.norms[i] = norm(v)
	}

	return idx, nil
}

// IndexFromSnapshot rebuilds an index from its persisted form.
// Any inconsistency is reported as *domain.CorruptIndexError.
func IndexFromSnapshot(snap driven.IndexSnapshot) (*Index, error) {
	idx, err := NewIndex(snap.Chunks, snap.Embeddings, snap.Model)
	if err != nil {
		var corrupt *domain.CorruptIndexError
		if errors.As(err, &corrupt) {
			return nil, err
		}
		return nil, &domain.CorruptIndexError{
			Chunks:  len(snap.Chunks),
			Vectors: len(snap.Embeddings),
			Reason:  "invalid vectors",
			Err:     err,
		}
	}
	if snap.Dimension != 0 && idx.Len() > 0 && snap.Dimension != idx.dim {
		return nil, &domain.CorruptIndexError{
			Chunks:  len(snap.Chunks),
			Vectors: len(snap.Embeddings),
			Reason:  fmt.Sprintf("recorded dimension %d does not match vectors (%d)", snap.Dimension, idx.dim),
		}
	}
	if !snap.BuiltAt.IsZero() {
		idx.builtAt = snap.BuiltAt
	}
	return idx, nil
}

// Snapshot returns the persisted form of the index.
func (idx *Index) Snapshot() driven.IndexSnapshot {
	return driven.IndexSnapshot{
		Chunks:     idx.Chunks(),
		Embeddings: idx.Vectors(),
		Model:      idx.model,
		Dimension:  idx.dim,
		BuiltAt:    idx.builtAt,
	}
}

// Append returns a new index holding the existing entries followed by the
// given ones. The receiver is left unchanged.
func (idx *Index) Append(chunks []domain.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, &domain.CorruptIndexError{
			Chunks:  len(chunks),
			Vectors: len(vectors),
			Reason:  "chunk and vector counts differ",
		}
	}
	if idx.Len() > 0 {
		for i, v := range vectors {
			if len(v) != idx.dim {
				return nil, &domain.DimensionMismatchError{
					Expected: idx.dim,
					Actual:   len(v),
					Context:  fmt.Sprintf("appended vector %d", i),
				}
			}
		}
	}

	allChunks := make([]domain.Chunk, 0, idx.Len()+len(chunks))
	allChunks = append(allChunks, idx.chunks...)
	allChunks = append(allChunks, chunks...)
	allVectors := make([][]float32, 0, idx.Len()+len(vectors))
	allVectors = append(allVectors, idx.vectors...)
	allVectors = append(allVectors, vectors...)

	out, err := NewIndex(allChunks, allVectors, idx.model)
	if err != nil {
		return nil, err
	}
	out.embedder = idx.embedder
	return out, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.chunks)
}

// Dimension returns the shared vector length, or 0 for an empty index.
func (idx *Index) Dimension() int {
	if idx == nil {
		return 0
	}
	return idx.dim
}

// Model returns the embedding model the vectors came from.
func (idx *Index) Model() string {
	if idx == nil {
		return ""
	}
	return idx.model
}

// QueryEmbedder returns the embedder that built this index, falling back to
// the given one for indexes restored or constructed without one.
func (idx *Index) QueryEmbedder(fallback driven.EmbeddingService) driven.EmbeddingService {
	if idx == nil || idx.embedder == nil {
		return fallback
	}
	return idx.embedder
}

// BuiltAt returns when the vectors were computed.
func (idx *Index) BuiltAt() time.Time {
	if idx == nil {
		return time.Time{}
	}
	return idx.builtAt
}

// Chunk returns a copy of the chunk at position i.
func (idx *Index) Chunk(i int) domain.Chunk {
	return idx.chunks[i].Clone()
}

// Chunks returns copies of all chunks in index order.
func (idx *Index) Chunks() []domain.Chunk {
	if idx == nil {
		return nil
	}
	out := make([]domain.Chunk, len(idx.chunks))
	for i, c := range idx.chunks {
		out[i] = c.Clone()
	}
	return out
}

// Vectors returns copies of all vectors in index order.
func (idx *Index) Vectors() [][]float32 {
	if idx == nil {
		return nil
	}
	out := make([][]float32, len(idx.vectors))
	for i, v := range idx.vectors {
		out[i] = append([]float32(nil), v...)
	}
	return out
}

// EmbedAll embeds every chunk with a single batched provider call.
// The provider must return exactly one vector per chunk; anything else is
// a provider error and nothing is truncated or padded.
func EmbedAll(ctx context.Context, embedder driven.EmbeddingService, chunks []domain.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}

	texts := chunkTexts(chunks)

	logger.Debug("Embedding %d chunks with %s", len(texts), embedder.ModelName())
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, domain.NewProviderError(embedder.ModelName(), "embed_batch", err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.NewProviderError(embedder.ModelName(), "embed_batch",
			fmt.Errorf("expected %d vectors, got %d", len(texts), len(vectors)))
	}

	for i, v := range vectors {
		if len(v) == 0 {
			return nil, domain.NewProviderError(embedder.ModelName(), "embed_batch",
				fmt.Errorf("vector %d is empty", i))
		}
		if len(v) != len(vectors[0]) {
			return nil, &domain.DimensionMismatchError{
				Expected: len(vectors[0]),
				Actual:   len(v),
				Context:  fmt.Sprintf("chunk %q", chunks[i].ID),
			}
		}
	}

	return vectors, nil
}

// FitEmbedder returns an embedder fitted to the chunk texts when the
// embedder needs the corpus, and the embedder itself otherwise. The given
// embedder is never modified.
func FitEmbedder(ctx context.Context, embedder driven.EmbeddingService, chunks []domain.Chunk) (driven.EmbeddingService, error) {
	p, ok := embedder.(driven.CorpusPreparer)
	if !ok || len(chunks) == 0 {
		return embedder, nil
	}
	fitted, err := p.Fit(ctx, chunkTexts(chunks))
	if err != nil {
		return nil, domain.NewProviderError(embedder.ModelName(), "fit", err)
	}
	return fitted, nil
}

// EmbedQuery embeds a single query string.
func EmbedQuery(ctx context.Context, embedder driven.EmbeddingService, text string) ([]float32, error) {
	v, err := embedder.Embed(ctx, text)
	if err != nil {
		return nil, domain.NewProviderError(embedder.ModelName(), "embed", err)
	}
	if len(v) == 0 {
		return nil, domain.NewProviderError(embedder.ModelName(), "embed", errors.New("empty vector"))
	}
	return v, nil
}

// BuildIndex fits the embedder when needed, embeds the chunks and returns a
// validated index that carries the fitted embedder.
func BuildIndex(ctx context.Context, embedder driven.EmbeddingService, chunks []domain.Chunk) (*Index, error) {
	fitted, err := FitEmbedder(ctx, embedder, chunks)
	if err != nil {
		return nil, err
	}
	vectors, err := EmbedAll(ctx, fitted, chunks)
	if err != nil {
		return nil, err
	}
	idx, err := NewIndex(chunks, vectors, embedder.ModelName())
	if err != nil {
		return nil, err
	}
	idx.embedder = fitted
	return idx, nil
}

func chunkTexts(chunks []domain.Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
