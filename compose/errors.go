package compose

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable indicates the language-model call failed or
	// timed out. Recoverable per-request: the caller decides whether to
	// retry, and the original query is preserved on the UpstreamError.
	ErrUpstreamUnavailable = errors.New("language model unavailable")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")
)

// UpstreamError carries the query that failed so the caller can offer a
// retry without reconstructing request state. errors.Is reports it as
// ErrUpstreamUnavailable.
type UpstreamError struct {
	// Query is the user's question, unchanged.
	Query string
	// Err is the underlying transport or model error.
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: %v (query: %q)", ErrUpstreamUnavailable, e.Err, e.Query)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel without losing the wrapped cause.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
