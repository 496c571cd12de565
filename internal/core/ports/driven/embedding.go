// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Offline TF-IDF prepared on the corpus
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result must hold exactly one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size, or 0 if not yet known.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CorpusPreparer is an optional interface for embedders that must see the
// whole corpus before they can embed, such as TF-IDF.
type CorpusPreparer interface {
	// Fit returns a new embedding service fitted to the given corpus texts.
	// The receiver is left unchanged, so an index built from an earlier fit
	// keeps embedding queries with that fit.
	Fit(ctx context.Context, texts []string) (EmbeddingService, error)
}
