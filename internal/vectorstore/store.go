// Package vectorstore persists embedded chunks in a vector index and serves
// nearest-neighbor queries over them.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"codeatlas/internal/chunker"

	"go.uber.org/zap"
)

// ErrVectorStore marks upsert and query failures. It is not recovered:
// an upsert failure aborts the remaining files of an ingestion run.
var ErrVectorStore = errors.New("vector store request failed")

// metadataContentLimit bounds the chunk text persisted as metadata.
const metadataContentLimit = 200

// Metadata is the payload stored alongside each vector and returned with
// query matches.
type Metadata struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Content  string `json:"content"`
}

// VectorRecord is one persisted vector with its deterministic id.
type VectorRecord struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata Metadata  `json:"metadata"`
}

// Match is one nearest-neighbor result, ranked by the store's similarity
// score, descending. Metadata is nil when the store returned none.
type Match struct {
	ID       string    `json:"id"`
	Score    float64   `json:"score"`
	Metadata *Metadata `json:"metadata"`
}

// Store is the vector index contract shared by the remote and local
// backends.
type Store interface {
	// Upsert writes one file's vector set as a single batch.
	Upsert(ctx context.Context, records []VectorRecord) error
	// Query returns up to topK nearest matches with metadata included.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	// Close releases backend resources.
	Close() error
}

var idUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// RecordID builds the deterministic vector id for a file's chunk ordinal,
// sanitized to the character set every backend accepts. The same file and
// chunk ordering always produce the same id.
func RecordID(path string, ordinal int) string {
	return idUnsafe.ReplaceAllString(fmt.Sprintf("%s_%d", path, ordinal), "_")
}

// NewRecord builds the vector record for an embedded chunk, truncating the
// metadata content to keep the persisted payload bounded.
func NewRecord(path string, ordinal int, c chunker.Chunk) VectorRecord {
	content := c.Content
	if len(content) > metadataContentLimit {
		content = content[:metadataContentLimit]
	}
	return VectorRecord{
		ID:     RecordID(path, ordinal),
		Values: c.Embedding,
		Metadata: Metadata{
			Filename: path,
			Type:     c.Type,
			Content:  content,
		},
	}
}

// Backend identifiers accepted by New.
const (
	BackendRemote = "remote"
	BackendSQLite = "sqlite"
)

// Config selects and parameterizes a backend.
type Config struct {
	Backend  string
	IndexURL string // remote: base URL of the vector index
	APIKey   string // remote: bearer token
	Path     string // sqlite: database file path
}

// New creates the configured store backend.
func New(cfg Config, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendRemote:
		if cfg.IndexURL == "" {
			return nil, fmt.Errorf("%w: index URL is not set", ErrVectorStore)
		}
		return NewRemoteStore(cfg.IndexURL, cfg.APIKey, log), nil
	case BackendSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: sqlite path is not set", ErrVectorStore)
		}
		return OpenSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrVectorStore, cfg.Backend)
	}
}
