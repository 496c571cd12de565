package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IndexSnapshot is the persisted form of an embedding index.
// Chunks[i] is embedded by Embeddings[i].
type IndexSnapshot struct {
	Chunks     []domain.Chunk
	Embeddings [][]float32
	Model      string
	Dimension  int
	BuiltAt    time.Time
}

// IndexStore persists an embedding index so it can be reloaded without
// calling the embedding provider again.
type IndexStore interface {
	// Save writes the snapshot as one atomic unit.
	// A failed save leaves any previous snapshot intact.
	Save(ctx context.Context, snapshot IndexSnapshot) error

	// Load reads the last saved snapshot.
	// Returns domain.ErrIndexNotFound when nothing has been saved and a
	// *domain.CorruptIndexError when the payload is unusable.
	Load(ctx context.Context) (IndexSnapshot, error)

	// Location describes where the index lives, for display.
	Location() string

	// Close releases resources.
	Close() error
}
