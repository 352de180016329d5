package pipeline

import "errors"

var (
	// ErrProviderRequired indicates a nil AI provider was passed to NewPipeline.
	ErrProviderRequired = errors.New("ai provider is required")

	// ErrNoChunks indicates an analysis request with no text chunks.
	ErrNoChunks = errors.New("at least one text chunk required")
)
