package types

import "errors"

// Ingestion errors. These are never retried and are reported immediately.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyDocument     = errors.New("document has no content")
	ErrInputTooLarge     = errors.New("input exceeds size limit")
)

// Retrieval and index errors.
var (
	// ErrNoRelevantContext is the explicit signal that retrieval found
	// nothing above the similarity threshold (or the collection is
	// empty). Callers must branch on it distinctly from a low-confidence
	// result.
	ErrNoRelevantContext = errors.New("no relevant context found")

	// ErrIndexInconsistent indicates persisted index state disagrees
	// with its manifest. The collection can be rebuilt from source
	// documents; previously persisted entries remain readable.
	ErrIndexInconsistent = errors.New("index state inconsistent with manifest")

	// ErrDimensionMismatch is returned when a vector's dimension does
	// not match the dimension locked into the collection manifest.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Capability errors.
var (
	// ErrCapability wraps embedding or generation failures that
	// persisted through the bounded retry.
	ErrCapability = errors.New("capability call failed")
)

// Result validation errors.
var (
	ErrInvalidChunkID    = errors.New("invalid chunk ID")
	ErrInvalidSimilarity = errors.New("similarity must be between -1 and 1")
	ErrEmptyContent      = errors.New("content cannot be empty")
)
