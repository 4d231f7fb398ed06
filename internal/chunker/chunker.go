// Package chunker decomposes a file's structural model into independently
// embeddable text chunks.
package chunker

import (
	"errors"
	"fmt"
	"strings"

	"codeatlas/internal/analyzer"

	"go.uber.org/zap"
)

// Chunk types.
const (
	TypeFile         = "file"
	TypeFunctionDef  = "functionDef"
	TypeFunctionCall = "functionCall"
)

// filePreviewLimit bounds the file-content prefix included in the file chunk.
const filePreviewLimit = 500

var errMalformed = errors.New("malformed entity")

// Chunk is one embeddable unit of text. Embedding is filled in by the
// embedding batcher; chunks only live for the duration of an ingestion run.
type Chunk struct {
	Type      string
	Content   string
	Embedding []float32
}

// Chunker flattens file records into chunks.
type Chunker struct {
	log *zap.Logger
}

// New creates a Chunker.
func New(log *zap.Logger) *Chunker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chunker{log: log}
}

// ChunkFile produces one file chunk (when content is non-empty), one chunk
// per definition, and one chunk per call. Malformed definitions and calls
// are skipped with a warning and never abort chunking of the rest.
func (c *Chunker) ChunkFile(rec analyzer.FileRecord) []Chunk {
	var chunks []Chunk

	if rec.Content != "" {
		chunks = append(chunks, Chunk{
			Type:    TypeFile,
			Content: fmt.Sprintf("File:%s\nContent:%s...", rec.FilePath, truncate(rec.Content, filePreviewLimit)),
		})
	}

	for i, d := range rec.Defs {
		content, err := flattenDef(d)
		if err != nil {
			c.log.Warn("skipping definition chunk",
				zap.String("path", rec.FilePath),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		chunks = append(chunks, Chunk{Type: TypeFunctionDef, Content: content})
	}

	for i, call := range rec.Calls {
		content, err := flattenCall(call)
		if err != nil {
			c.log.Warn("skipping call chunk",
				zap.String("path", rec.FilePath),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		chunks = append(chunks, Chunk{Type: TypeFunctionCall, Content: content})
	}

	return chunks
}

func flattenDef(d analyzer.FunctionDef) (string, error) {
	if d.FilePath == "" || d.Name == "" {
		return "", fmt.Errorf("%w: definition missing file path or name", errMalformed)
	}
	return fmt.Sprintf("FunctionDef:%s file=%s params=%s code=%s",
		d.Name, d.FilePath, strings.Join(d.Params, ", "), d.Code), nil
}

func flattenCall(c analyzer.FunctionCall) (string, error) {
	if c.FilePath == "" || c.Name == "" {
		return "", fmt.Errorf("%w: call missing file path or name", errMalformed)
	}
	parent := c.ParentFunc
	if parent == "" {
		parent = "global"
	}
	return fmt.Sprintf("FunctionCall:%s file=%s parentFunc=%s args=%s",
		c.Name, c.FilePath, parent, strings.Join(c.Args, ", ")), nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
