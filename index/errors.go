package index

import "errors"

var (
	// ErrEmptyIndex indicates a search against an index that holds no
	// entries, or against a handle that was never built. This is a wiring
	// bug: the corpus must be indexed before queries are served.
	ErrEmptyIndex = errors.New("vector index is empty")

	// ErrDimensionMismatch indicates vectors of differing dimensions were
	// supplied at build time, or a query vector does not match the index
	// dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrMissingVector indicates a build entry without an embedding vector.
	ErrMissingVector = errors.New("entry has no embedding vector")
)
