// Package analyzer extracts function definitions and call sites from
// JavaScript-family source files. The extraction is purely syntactic and
// name-based: no scope resolution, no type inference.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"go.uber.org/zap"
)

// ErrParse marks a file whose source could not be parsed. The file is
// skipped; analysis of the remaining files continues.
var ErrParse = errors.New("source failed to parse")

// Analyzer parses source files and builds their structural models.
type Analyzer struct {
	log *zap.Logger
}

// New creates an Analyzer.
func New(log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{log: log}
}

// Analyze parses each file and extracts its function definitions and calls.
// Files that fail to parse are logged and skipped; parsing is never retried.
// Records are rebuilt from scratch on every run.
func (a *Analyzer) Analyze(ctx context.Context, files []SourceFile) []FileRecord {
	records := make([]FileRecord, 0, len(files))
	for _, f := range files {
		rec, err := a.AnalyzeFile(ctx, f)
		if err != nil {
			a.log.Warn("skipping file",
				zap.String("path", f.Path),
				zap.Error(err))
			continue
		}
		records = append(records, *rec)
	}
	return records
}

// AnalyzeFile builds the structural model for a single file.
func (a *Analyzer) AnalyzeFile(ctx context.Context, f SourceFile) (*FileRecord, error) {
	if len(f.Content) == 0 {
		return nil, fmt.Errorf("%w: %s: empty content", ErrParse, f.Path)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, f.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, f.Path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w: %s: syntax errors in tree", ErrParse, f.Path)
	}

	rec := &FileRecord{
		FilePath: f.Path,
		Content:  string(f.Content),
	}
	walk(root, f.Content, rec, "")

	a.log.Debug("analyzed file",
		zap.String("path", f.Path),
		zap.Int("defs", len(rec.Defs)),
		zap.Int("calls", len(rec.Calls)))
	return rec, nil
}
