// Package tfidf provides an offline embedding service based on TF-IDF.
//
// The vocabulary and inverse document frequencies are fitted to the corpus
// with Fit, so the service needs no network access or API key. It is
// useful for trying the engine without a provider account and in tests.
//
// A fitted service is immutable. Fit returns a new value and never touches
// the receiver, so vectors from one fit are never compared with another.
package tfidf

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interfaces.
var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.CorpusPreparer   = (*EmbeddingService)(nil)
)

// ModelName is reported as the embedding model.
const ModelName = "tfidf"

// ErrNotPrepared is returned when embedding with an unfitted service.
var ErrNotPrepared = errors.New("tfidf: embedder not prepared")

// EmbeddingService computes L2-normalised TF-IDF vectors.
type EmbeddingService struct {
	vocabulary map[string]int
	idf        []float64
	stopwords  map[string]struct{}
	pattern    *regexp.Regexp
}

// NewEmbeddingService creates an unfitted TF-IDF embedder.
func NewEmbeddingService() *EmbeddingService {
	return &EmbeddingService{
		stopwords: defaultStopwords(),
		// Letters and digits; flow rates and pressures are significant in technical text.
		pattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’.][\p{L}\p{N}]+)*`),
	}
}

// Fit builds the vocabulary and smoothed IDF values from the corpus and
// returns them in a new service. The receiver is not modified.
func (s *EmbeddingService) Fit(ctx context.Context, texts []string) (driven.EmbeddingService, error) {
	fitted, err := s.fit(ctx, texts)
	if err != nil {
		return nil, err
	}
	return fitted, nil
}

func (s *EmbeddingService) fit(ctx context.Context, texts []string) (*EmbeddingService, error) {
	if len(texts) == 0 {
		return nil, errors.New("tfidf: empty corpus")
	}

	df := make(map[string]int)
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		for _, tok := range s.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return nil, errors.New("tfidf: no tokens found in corpus")
	}

	// Stable ordering keeps vectors reproducible across runs.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(texts))
	for i, term := range terms {
		vocabulary[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	return &EmbeddingService{
		vocabulary: vocabulary,
		idf:        idf,
		stopwords:  s.stopwords,
		pattern:    s.pattern,
	}, nil
}

// Embed computes the TF-IDF vector for text. Text with no known terms
// embeds to the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.idf == nil {
		return nil, ErrNotPrepared
	}
	return s.embed(text), nil
}

// EmbedBatch embeds every text against the same fit.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.idf == nil {
		return nil, ErrNotPrepared
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("tfidf: embed text %d: %w", i, err)
		}
		out[i] = s.embed(text)
	}
	return out, nil
}

func (s *EmbeddingService) embed(text string) []float32 {
	tf := make(map[int]int)
	total := 0
	for _, tok := range s.tokenize(text) {
		if idx, ok := s.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}

	vec := make([]float64, len(s.idf))
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * s.idf[idx]
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(vec))
	for i, v := range vec {
		if norm > 0 {
			v /= norm
		}
		out[i] = float32(v)
	}
	return out
}

func (s *EmbeddingService) tokenize(text string) []string {
	raw := s.pattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := s.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Dimensions returns the vocabulary size, or 0 when unfitted.
func (s *EmbeddingService) Dimensions() int {
	return len(s.idf)
}

// ModelName returns "tfidf".
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds; the service is local.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on",
		"at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this",
		"that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than",
		"so", "such", "into", "about", "between", "through", "during", "before", "after", "above",
		"below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "should", "now",
		"what", "which", "who", "how", "does", "do", "i", "me", "my", "you", "your",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
