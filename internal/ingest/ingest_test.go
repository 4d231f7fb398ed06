package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"codeatlas/internal/analyzer"
	"codeatlas/internal/chunker"
	"codeatlas/internal/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	mu       sync.Mutex
	calls    int
	failSubs []string // texts containing any of these fail
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	for _, s := range f.failSubs {
		if strings.Contains(text, s) {
			return nil, errors.New("embed failed")
		}
	}
	return []float32{float32(len(text))}, nil
}

func (f *fakeEmbedder) Model() string { return "fake" }

type fakeStore struct {
	mu       sync.Mutex
	upserts  [][]vectorstore.VectorRecord
	failPath string // upsert fails when any record's filename contains this
}

func (f *fakeStore) Upsert(_ context.Context, records []vectorstore.VectorRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPath != "" {
		for _, r := range records {
			if strings.Contains(r.Metadata.Filename, f.failPath) {
				return errors.New("index unavailable")
			}
		}
	}
	f.upserts = append(f.upserts, records)
	return nil
}

func (f *fakeStore) Query(context.Context, []float32, int) ([]vectorstore.Match, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

func record(path string, defs int) analyzer.FileRecord {
	rec := analyzer.FileRecord{FilePath: path, Content: "function f() {}"}
	for i := 0; i < defs; i++ {
		rec.Defs = append(rec.Defs, analyzer.FunctionDef{
			FilePath: path,
			Name:     "f" + string(rune('0'+i)),
			Code:     "function f() {}",
		})
	}
	return rec
}

func TestRunIngestsAllFiles(t *testing.T) {
	store := &fakeStore{}
	p := New(chunker.New(zap.NewNop()), &fakeEmbedder{}, store, zap.NewNop())

	res, err := p.Run(context.Background(), []analyzer.FileRecord{
		record("a.js", 2),
		record("b.js", 1),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesIngested)
	assert.Equal(t, 5, res.VectorsUpserted) // file chunk + defs per file
	require.Len(t, res.Files, 2)
	assert.Equal(t, StatusIngested, res.Files[0].Status)
	assert.Equal(t, StatusIngested, res.Files[1].Status)

	// One upsert call per file, in input order.
	require.Len(t, store.upserts, 2)
	assert.Equal(t, "a_js_0", store.upserts[0][0].ID)
	assert.Equal(t, "b_js_0", store.upserts[1][0].ID)
}

func TestRunUpsertFailureAbortsRemainingFiles(t *testing.T) {
	store := &fakeStore{failPath: "b.js"}
	p := New(chunker.New(zap.NewNop()), &fakeEmbedder{}, store, zap.NewNop())

	res, err := p.Run(context.Background(), []analyzer.FileRecord{
		record("a.js", 1),
		record("b.js", 1),
		record("c.js", 1),
	})

	require.Error(t, err)
	assert.ErrorContains(t, err, "upsert b.js")

	// a.js persisted before the failure; c.js was never attempted.
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "a_js_0", store.upserts[0][0].ID)

	require.Len(t, res.Files, 3)
	assert.Equal(t, StatusIngested, res.Files[0].Status)
	assert.Equal(t, StatusFailed, res.Files[1].Status)
	assert.Equal(t, StatusSkipped, res.Files[2].Status)
	assert.Equal(t, 1, res.FilesIngested)
}

func TestRunAllChunksFailedContinuesToNextFile(t *testing.T) {
	// Every chunk of a.js mentions a.js, so all of them fail to embed.
	emb := &fakeEmbedder{failSubs: []string{"a.js"}}
	store := &fakeStore{}
	p := New(chunker.New(zap.NewNop()), emb, store, zap.NewNop())

	res, err := p.Run(context.Background(), []analyzer.FileRecord{
		record("a.js", 1),
		record("b.js", 1),
	})

	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, StatusFailed, res.Files[0].Status)
	assert.Equal(t, 2, res.Files[0].FailedChunks)
	assert.Equal(t, StatusIngested, res.Files[1].Status)
	assert.Equal(t, 1, res.FilesIngested)
	require.Len(t, store.upserts, 1)
}

func TestRunPartialChunkFailureKeepsSurvivorOrdinals(t *testing.T) {
	rec := analyzer.FileRecord{
		FilePath: "m.js",
		Defs: []analyzer.FunctionDef{
			{FilePath: "m.js", Name: "alpha", Code: "function alpha() {}"},
			{FilePath: "m.js", Name: "beta", Code: "function beta() {}"},
		},
	}
	emb := &fakeEmbedder{failSubs: []string{"alpha"}}
	store := &fakeStore{}
	p := New(chunker.New(zap.NewNop()), emb, store, zap.NewNop())

	res, err := p.Run(context.Background(), []analyzer.FileRecord{rec})

	require.NoError(t, err)
	require.Len(t, store.upserts, 1)
	// beta survives and gets ordinal 0 within the surviving set.
	require.Len(t, store.upserts[0], 1)
	assert.Equal(t, "m_js_0", store.upserts[0][0].ID)
	assert.Contains(t, store.upserts[0][0].Metadata.Content, "beta")
	assert.Equal(t, 1, res.Files[0].FailedChunks)
	assert.Equal(t, 1, res.Files[0].Embedded)
}

func TestRunIDsAreStableAcrossRuns(t *testing.T) {
	records := []analyzer.FileRecord{record("src/util.js", 2)}

	ids := func() []string {
		store := &fakeStore{}
		p := New(chunker.New(zap.NewNop()), &fakeEmbedder{}, store, zap.NewNop())
		_, err := p.Run(context.Background(), records)
		require.NoError(t, err)
		require.Len(t, store.upserts, 1)
		var out []string
		for _, r := range store.upserts[0] {
			out = append(out, r.ID)
		}
		return out
	}

	first := ids()
	second := ids()
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"src_util_js_0", "src_util_js_1", "src_util_js_2"}, first)
}

func TestRunEmptyFileRecordIsSkipped(t *testing.T) {
	store := &fakeStore{}
	p := New(chunker.New(zap.NewNop()), &fakeEmbedder{}, store, zap.NewNop())

	res, err := p.Run(context.Background(), []analyzer.FileRecord{{FilePath: "empty.js"}})

	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, StatusSkipped, res.Files[0].Status)
	assert.Zero(t, res.FilesIngested)
	assert.Empty(t, store.upserts)
}
