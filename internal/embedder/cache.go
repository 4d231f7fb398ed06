package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 10000

// cachingEmbedder wraps an Embedder with an LRU cache keyed by content hash,
// so re-ingesting unchanged files does not re-call the embedding service.
type cachingEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// WithCache wraps e with an LRU embedding cache of the given size.
func WithCache(e Embedder, size int) Embedder {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return e
	}
	return &cachingEmbedder{inner: e, cache: cache}
}

func (c *cachingEmbedder) Model() string { return c.inner.Model() }

func (c *cachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := contentHash(text)
	if vec, ok := c.cache.Get(key); ok {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
