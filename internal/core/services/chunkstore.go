package services

import (
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ChunkStore holds the validated chunk definitions of one corpus.
// Build performs no I/O and always returns the same chunks in the same order.
type ChunkStore struct {
	name   string
	chunks []domain.Chunk
}

// NewChunkStore validates the corpus and takes a private copy of its chunks.
func NewChunkStore(corpus domain.Corpus) (*ChunkStore, error) {
	if err := corpus.Validate(); err != nil {
		return nil, fmt.Errorf("chunk store: %w", err)
	}
	chunks := make([]domain.Chunk, len(corpus.Chunks))
	for i, c := range corpus.Chunks {
		chunks[i] = c.Clone()
	}
	return &ChunkStore{name: corpus.Name, chunks: chunks}, nil
}

// Build returns a fresh copy of the corpus chunks in definition order.
func (s *ChunkStore) Build() []domain.Chunk {
	out := make([]domain.Chunk, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = c.Clone()
	}
	return out
}

// Len returns the number of chunks.
func (s *ChunkStore) Len() int {
	return len(s.chunks)
}

// Name returns the corpus name.
func (s *ChunkStore) Name() string {
	return s.name
}
