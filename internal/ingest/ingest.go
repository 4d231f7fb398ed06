// Package ingest runs the ingestion pipeline: file records are chunked,
// embedded, and upserted into the vector store one file at a time.
package ingest

import (
	"context"
	"fmt"

	"codeatlas/internal/analyzer"
	"codeatlas/internal/chunker"
	"codeatlas/internal/embedder"
	"codeatlas/internal/vectorstore"

	"go.uber.org/zap"
)

// Status is the terminal outcome for one file in an ingestion run.
type Status string

const (
	// StatusIngested means the file's vectors were upserted.
	StatusIngested Status = "ingested"
	// StatusFailed means the file produced no persisted vectors.
	StatusFailed Status = "failed"
	// StatusSkipped means the file was never attempted, either because it
	// produced no chunks or because an earlier file aborted the run.
	StatusSkipped Status = "skipped"
)

// FileStatus reports one file's outcome, so callers can tell a partially
// ingested run from an empty one.
type FileStatus struct {
	Path         string `json:"path"`
	Status       Status `json:"status"`
	Chunks       int    `json:"chunks"`
	Embedded     int    `json:"embedded"`
	FailedChunks int    `json:"failedChunks"`
	Error        string `json:"error,omitempty"`
}

// Result is the manifest of an ingestion run.
type Result struct {
	Files           []FileStatus `json:"files"`
	FilesIngested   int          `json:"filesIngested"`
	VectorsUpserted int          `json:"vectorsUpserted"`
}

// Pipeline wires the chunker, embedder, and vector store together.
type Pipeline struct {
	chunker *chunker.Chunker
	emb     embedder.Embedder
	store   vectorstore.Store
	log     *zap.Logger
}

// New creates a Pipeline.
func New(c *chunker.Chunker, emb embedder.Embedder, store vectorstore.Store, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{chunker: c, emb: emb, store: store, log: log}
}

// Run ingests the records strictly one file at a time: chunk, embed with
// per-chunk isolation, then upsert the file's vectors as one batch. The
// first upsert failure aborts the remaining files and is returned to the
// caller; files already upserted stay persisted. Embedding failures are
// chunk-level and never abort the run.
//
// Concurrent runs against the same index are not serialized here; the
// store is the arbiter when callers need mutual exclusion.
func (p *Pipeline) Run(ctx context.Context, records []analyzer.FileRecord) (*Result, error) {
	res := &Result{}

	for i, rec := range records {
		chunks := p.chunker.ChunkFile(rec)
		if len(chunks) == 0 {
			p.log.Info("no chunks for file", zap.String("path", rec.FilePath))
			res.Files = append(res.Files, FileStatus{Path: rec.FilePath, Status: StatusSkipped})
			continue
		}

		embedded, failedChunks, err := embedder.EmbedChunks(ctx, p.emb, chunks, p.log)
		if err != nil {
			// Every chunk failed; the file yields nothing but the run goes on.
			p.log.Warn("embedding produced no vectors",
				zap.String("path", rec.FilePath),
				zap.Error(err))
			res.Files = append(res.Files, FileStatus{
				Path:         rec.FilePath,
				Status:       StatusFailed,
				Chunks:       len(chunks),
				FailedChunks: failedChunks,
				Error:        err.Error(),
			})
			continue
		}

		vectors := make([]vectorstore.VectorRecord, len(embedded))
		for j, c := range embedded {
			vectors[j] = vectorstore.NewRecord(rec.FilePath, j, c)
		}

		if err := p.store.Upsert(ctx, vectors); err != nil {
			res.Files = append(res.Files, FileStatus{
				Path:         rec.FilePath,
				Status:       StatusFailed,
				Chunks:       len(chunks),
				Embedded:     len(embedded),
				FailedChunks: failedChunks,
				Error:        err.Error(),
			})
			for _, rest := range records[i+1:] {
				res.Files = append(res.Files, FileStatus{
					Path:   rest.FilePath,
					Status: StatusSkipped,
					Error:  "run aborted by earlier upsert failure",
				})
			}
			return res, fmt.Errorf("upsert %s: %w", rec.FilePath, err)
		}

		p.log.Info("ingested file",
			zap.String("path", rec.FilePath),
			zap.Int("vectors", len(vectors)),
			zap.Int("failedChunks", failedChunks))
		res.Files = append(res.Files, FileStatus{
			Path:         rec.FilePath,
			Status:       StatusIngested,
			Chunks:       len(chunks),
			Embedded:     len(embedded),
			FailedChunks: failedChunks,
		})
		res.FilesIngested++
		res.VectorsUpserted += len(vectors)
	}

	return res, nil
}
