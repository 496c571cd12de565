package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// zeroNormScore is the score given when either vector has zero magnitude.
const zeroNormScore = -1.0

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero-magnitude input scores -1 so it ranks last instead of producing NaN.
// The vectors must have equal length.
func CosineSimilarity(a, b []float32) float64 {
	return cosine(a, norm(a), b, norm(b))
}

func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return zeroNormScore
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	score := dot / (normA * normB)
	switch {
	case math.IsNaN(score) || math.IsInf(score, 0):
		return zeroNormScore
	case score > 1:
		return 1
	case score < -1:
		return -1
	}
	return score
}

// ClampTopK bounds k to [1, n].
func ClampTopK(k, n int) int {
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// SearchIndex scores every chunk against the query and returns the best
// matches, highest score first. Equal scores keep index order.
func SearchIndex(query []float32, idx *Index, opts domain.SearchOptions) ([]domain.ScoredChunk, error) {
	if idx.Len() == 0 {
		return nil, &domain.EmptyIndexError{}
	}
	if len(query) != idx.dim {
		return nil, &domain.DimensionMismatchError{
			Expected: idx.dim,
			Actual:   len(query),
			Context:  "query",
		}
	}

	type hit struct {
		pos   int
		score float64
	}

	qNorm := norm(query)
	hits := make([]hit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = hit{pos: i, score: cosine(query, qNorm, v, idx.norms[i])}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})

	k := ClampTopK(opts.TopK, len(hits))
	results := make([]domain.ScoredChunk, 0, k)
	for _, h := range hits[:k] {
		if opts.MinScore != nil && h.score < *opts.MinScore {
			continue
		}
		results = append(results, domain.ScoredChunk{
			Chunk:    idx.chunks[h.pos].Clone(),
			Score:    h.score,
			Position: h.pos,
		})
	}
	return results, nil
}
