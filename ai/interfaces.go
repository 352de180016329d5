package ai

import (
	"context"
	"encoding/json"
)

// Embedder generates vector embeddings from text for semantic similarity work.
// Implementations must be thread-safe for concurrent use and must return
// vectors of stable dimensionality within a run.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// StructuredRequest describes a single structured-generation call to the
// LLM oracle.
type StructuredRequest struct {
	// Prompt is the user-role prompt text.
	Prompt string

	// System is an optional system-role instruction.
	System string

	// MaxTokens bounds the response length. Zero means the provider default.
	MaxTokens int
}

// Oracle turns a prompt into structured JSON using an LLM.
// The engine treats it as an opaque text-to-JSON transformation: callers
// define the expected shape in the prompt and validate the returned document
// themselves. Failures and timeouts surface as errors, never as panics.
// Implementations must be thread-safe for concurrent use.
type Oracle interface {
	// GenerateStructured sends the request and returns the model's response
	// as a validated JSON document. The raw message is guaranteed to be
	// syntactically valid JSON; its shape is the caller's concern.
	GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Oracle instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Oracle returns the structured-generation service.
	// The returned Oracle is safe for concurrent use.
	Oracle() Oracle

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
