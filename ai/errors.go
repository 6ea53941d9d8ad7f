package ai

import "errors"

var (
	// ErrModelUnavailable indicates that an AI model could not be loaded or
	// reached during initialization. This is fatal at startup: the process
	// must not begin serving queries without a working embedder.
	ErrModelUnavailable = errors.New("model unavailable")
)
