package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
// Snapshots are deep-copied on the way in and out.
type IndexStore struct {
	mu    sync.RWMutex
	snap  *driven.IndexSnapshot
	saves int
}

// NewIndexStore creates an empty in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Save replaces the stored snapshot.
func (s *IndexStore) Save(_ context.Context, snapshot driven.IndexSnapshot) error {
	if len(snapshot.Chunks) != len(snapshot.Embeddings) {
		return &domain.CorruptIndexError{
			Chunks:  len(snapshot.Chunks),
			Vectors: len(snapshot.Embeddings),
			Reason:  "refusing to save mismatched snapshot",
		}
	}
	cp := copySnapshot(snapshot)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &cp
	s.saves++
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *IndexStore) Load(_ context.Context) (driven.IndexSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return driven.IndexSnapshot{}, domain.ErrIndexNotFound
	}
	return copySnapshot(*s.snap), nil
}

// Saves returns how many times Save succeeded.
func (s *IndexStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Location returns a description of the store.
func (s *IndexStore) Location() string {
	return ":memory:"
}

// Close is a no-op.
func (s *IndexStore) Close() error {
	return nil
}

func copySnapshot(in driven.IndexSnapshot) driven.IndexSnapshot {
	out := driven.IndexSnapshot{
		Model:     in.Model,
		Dimension: in.Dimension,
		BuiltAt:   in.BuiltAt,
	}
	if in.Chunks != nil {
		out.Chunks = make([]domain.Chunk, len(in.Chunks))
		for i, c := range in.Chunks {
			out.Chunks[i] = c.Clone()
		}
	}
	if in.Embeddings != nil {
		out.Embeddings = make([][]float32, len(in.Embeddings))
		for i, v := range in.Embeddings {
			out.Embeddings[i] = append([]float32(nil), v...)
		}
	}
	return out
}
