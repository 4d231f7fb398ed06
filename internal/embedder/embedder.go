// Package embedder converts text to vector embeddings via an external
// embedding service.
package embedder

import (
	"context"
	"errors"
)

// Sentinel errors for embedding failures. All provider failures wrap
// ErrEmbedding so callers can treat them as one recoverable class.
var (
	ErrEmbedding          = errors.New("embedding request failed")
	ErrEmptyText          = errors.New("embedding input text is empty")
	ErrMissingCredentials = errors.New("embedding API key is not set")
	ErrAllChunksFailed    = errors.New("all chunks failed to embed")
)

// Embedder produces a fixed-dimension vector for a single text.
type Embedder interface {
	// Embed returns the embedding vector for text. It fails with an error
	// wrapping ErrEmbedding on empty input, missing credentials, or a
	// malformed service response.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Model returns the configured model identifier.
	Model() string
}
