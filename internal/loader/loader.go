// Package loader discovers JavaScript source files under a project root and
// reads them into memory for analysis.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"codeatlas/internal/analyzer"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

// maxFileSize is the largest file considered for analysis (1 MB).
const maxFileSize = 1 << 20

// ignoreFileName is the per-project ignore file, in gitignore syntax.
const ignoreFileName = ".codeatlasignore"

// defaultExtensions are the source extensions loaded when none are given.
var defaultExtensions = []string{"js", "jsx", "mjs", "cjs", "ts", "tsx"}

// defaultIgnores are used when the project has no ignore file.
var defaultIgnores = []string{
	".git/",
	"node_modules/",
	"vendor/",
	"dist/",
	"build/",
	"coverage/",
	".codeatlas/",
}

// Loader walks a directory tree and loads matching source files.
type Loader struct {
	exts map[string]bool
	log  *zap.Logger
}

// New creates a Loader for the given extensions (without dots). Nil means
// the default JavaScript and TypeScript extensions.
func New(extensions []string, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.TrimPrefix(e, ".")] = true
	}
	return &Loader{exts: exts, log: log}
}

// Load walks root and returns the source files to analyze, paths relative to
// root with forward slashes. Unreadable files are skipped with a warning;
// symlinks, empty files, and files over 1 MB are skipped silently.
func (l *Loader) Load(root string) ([]analyzer.SourceFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if info, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	matcher := l.loadIgnoreMatcher(absRoot)

	var files []analyzer.SourceFile
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.log.Warn("skipping unreadable entry", zap.String("path", path), zap.Error(err))
			return nil
		}
		if path == absRoot {
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if matcher.MatchesPath(rel) {
			return nil
		}

		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if !l.exts[ext] {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil || info.Size() == 0 || info.Size() > maxFileSize {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			l.log.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(readErr))
			return nil
		}
		files = append(files, analyzer.SourceFile{Path: rel, Content: content})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	l.log.Info("loaded source files", zap.String("root", root), zap.Int("count", len(files)))
	return files, nil
}

// loadIgnoreMatcher compiles the project's ignore file, falling back to the
// built-in defaults when it is missing or unreadable.
func (l *Loader) loadIgnoreMatcher(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ignoreFileName)
	if _, err := os.Stat(path); err != nil {
		return ignore.CompileIgnoreLines(defaultIgnores...)
	}
	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		l.log.Warn("ignoring unreadable ignore file", zap.String("path", path), zap.Error(err))
		return ignore.CompileIgnoreLines(defaultIgnores...)
	}
	return matcher
}
