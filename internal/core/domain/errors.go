package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown file or normaliser type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrCorpusNotFound indicates the corpus root directory does not exist.
	ErrCorpusNotFound = errors.New("corpus directory not found")

	// ErrEmptyCorpus indicates a corpus produced zero loadable documents.
	// Index builds refuse to proceed on an empty corpus.
	ErrEmptyCorpus = errors.New("corpus contains no loadable documents")

	// Index Errors.

	// ErrIndexMissing indicates no persisted index exists for a corpus.
	ErrIndexMissing = errors.New("index not built")

	// ErrBuildInProgress indicates another build holds the lock for the same location.
	ErrBuildInProgress = errors.New("index build in progress")

	// AI Backend Errors.

	// ErrEmbeddingUnavailable indicates the embedding backend cannot be reached
	// or failed to compute a vector. Fatal to build and query paths.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation backend is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrGeneration indicates a generation call failed.
	ErrGeneration = errors.New("generation failed")

	// Dispatch Errors.

	// ErrTimedOut is returned when a dispatched request exceeds its deadline.
	ErrTimedOut = errors.New("timed out")

	// ErrPoolClosed indicates work was submitted after the worker pool shut down.
	ErrPoolClosed = errors.New("worker pool closed")
)
