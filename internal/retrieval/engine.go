// Package retrieval answers natural-language queries against the vector
// store built by ingestion.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeatlas/internal/embedder"
	"codeatlas/internal/vectorstore"

	"go.uber.org/zap"
)

var (
	// ErrEmptyQuery is returned when the query text is empty or whitespace.
	ErrEmptyQuery = errors.New("query text is empty")
	// ErrRetrieval wraps vector store failures during a query.
	ErrRetrieval = errors.New("retrieval failed")
)

// DefaultTopK is used when the caller does not specify a result count.
const DefaultTopK = 5

// Engine embeds a query and searches the store.
type Engine struct {
	emb   embedder.Embedder
	store vectorstore.Store
	log   *zap.Logger
}

// New creates an Engine.
func New(emb embedder.Embedder, store vectorstore.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{emb: emb, store: store, log: log}
}

// Retrieve embeds the query and returns the metadata of the topK nearest
// chunks, in the store's rank order. Matches without metadata are dropped.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) ([]vectorstore.Metadata, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := e.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := e.store.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	results := make([]vectorstore.Metadata, 0, len(matches))
	for _, m := range matches {
		if m.Metadata == nil {
			e.log.Warn("dropping match without metadata", zap.String("id", m.ID))
			continue
		}
		results = append(results, *m.Metadata)
	}
	e.log.Debug("retrieved context",
		zap.Int("matches", len(matches)),
		zap.Int("usable", len(results)))
	return results, nil
}
