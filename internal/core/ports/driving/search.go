package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SearchService provides retrieval without generation.
type SearchService interface {
	// Search returns the chunks most similar to the query, best first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error)
}
