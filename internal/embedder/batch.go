package embedder

import (
	"context"
	"fmt"
	"sync"

	"codeatlas/internal/chunker"

	"go.uber.org/zap"
)

// EmbedChunks embeds every chunk concurrently and returns the survivors in
// their original order, each augmented with its embedding vector, plus the
// number of chunks that failed. Attempts are isolated: one chunk's failure
// never cancels its siblings. Backpressure is whatever the embedding
// service enforces; no in-process concurrency limit is imposed.
//
// The returned error is non-nil only when every chunk failed, wrapping
// ErrAllChunksFailed so callers can tell zero-of-N from partial success.
func EmbedChunks(ctx context.Context, e Embedder, chunks []chunker.Chunk, log *zap.Logger) ([]chunker.Chunk, int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(chunks) == 0 {
		return nil, 0, nil
	}

	vectors := make([][]float32, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i := range chunks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vec, err := e.Embed(ctx, chunks[i].Content)
			if err != nil {
				errs[i] = err
				return
			}
			vectors[i] = vec
		}(i)
	}
	wg.Wait()

	embedded := make([]chunker.Chunk, 0, len(chunks))
	failed := 0
	for i := range chunks {
		if errs[i] != nil {
			failed++
			log.Warn("failed to embed chunk",
				zap.Int("index", i),
				zap.String("type", chunks[i].Type),
				zap.Error(errs[i]))
			continue
		}
		c := chunks[i]
		c.Embedding = vectors[i]
		embedded = append(embedded, c)
	}

	if failed > 0 {
		log.Warn("embedding batch completed with failures",
			zap.Int("failed", failed),
			zap.Int("total", len(chunks)))
	}
	if len(embedded) == 0 {
		return nil, failed, fmt.Errorf("%w: %d of %d", ErrAllChunksFailed, failed, len(chunks))
	}
	return embedded, failed, nil
}
