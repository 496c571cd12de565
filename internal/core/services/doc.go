// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The Engine owns the in-memory vector index and the conversation
// memory. Retrieval is an exhaustive cosine scan over every chunk.
//
// Services are pure Go with no CGO or external dependencies.
package services
