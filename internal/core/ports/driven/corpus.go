package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// CorpusSource supplies the chunk definitions an index is built from.
type CorpusSource interface {
	// Load returns the corpus in definition order.
	Load(ctx context.Context) (domain.Corpus, error)

	// Location describes where the corpus comes from, for display.
	Location() string
}
