package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider, backend or format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the completion provider is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Retrieval Errors.

	// ErrProvider indicates an embedding or completion provider call failed
	// or returned an unusable response.
	ErrProvider = errors.New("provider error")

	// ErrDimensionMismatch indicates vectors of different lengths were combined.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptyIndex indicates a search was attempted on an index with no chunks.
	ErrEmptyIndex = errors.New("empty index")

	// ErrCorruptIndex indicates an index violates positional coupling or
	// could not be decoded.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrIndexNotFound indicates no persisted index exists at the configured location.
	ErrIndexNotFound = errors.New("index not found")

	// ErrInvalidCorpus indicates a corpus definition has missing or duplicate chunk IDs.
	ErrInvalidCorpus = errors.New("invalid corpus")
)

// ProviderError wraps a failure reported by an external embedding or
// completion provider. Core code never retries these.
type ProviderError struct {
	// Provider names the backend, e.g. "openai".
	Provider string

	// Op names the failing operation, e.g. "embed_batch".
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("provider error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("provider error: %s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is reports whether target is ErrProvider.
func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// NewProviderError creates a ProviderError.
func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// DimensionMismatchError reports two vector lengths that should agree.
type DimensionMismatchError struct {
	Expected int
	Actual   int

	// Context describes where the mismatch was found, e.g. "query".
	Context string
}

func (e *DimensionMismatchError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
	}
	return fmt.Sprintf("dimension mismatch (%s): expected %d, got %d", e.Context, e.Expected, e.Actual)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// EmptyIndexError is returned when searching an index with no chunks.
type EmptyIndexError struct{}

func (e *EmptyIndexError) Error() string {
	return "empty index: no chunks to search"
}

// Is reports whether target is ErrEmptyIndex.
func (e *EmptyIndexError) Is(target error) bool { return target == ErrEmptyIndex }

// CorruptIndexError reports an index whose chunk and vector lists disagree
// or whose payload could not be decoded.
type CorruptIndexError struct {
	Chunks  int
	Vectors int
	Reason  string
	Err     error
}

func (e *CorruptIndexError) Error() string {
	msg := fmt.Sprintf("corrupt index: %s (chunks=%d, vectors=%d)", e.Reason, e.Chunks, e.Vectors)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptIndexError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCorruptIndex.
func (e *CorruptIndexError) Is(target error) bool { return target == ErrCorruptIndex }
