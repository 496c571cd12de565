package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IndexService builds, restores and describes the embedding index.
type IndexService interface {
	// Build embeds the corpus, swaps the new index in and persists it.
	Build(ctx context.Context) (domain.IndexInfo, error)

	// Load restores the persisted index without calling the embedding provider.
	Load(ctx context.Context) (domain.IndexInfo, error)

	// Info describes the index currently serving queries.
	Info() domain.IndexInfo
}
