package ingest

import "errors"

var (
	// ErrRepositoryRequired is returned when an insight repository is not provided.
	ErrRepositoryRequired = errors.New("insight repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidMaxAttempts is returned when retry is configured with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrInvalidBatchSize is returned when the batch size is non-positive.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")
)
