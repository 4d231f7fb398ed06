package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// SQLiteStore is a local Store backend on SQLite + sqlite-vec, for fully
// local ingestion when no hosted index is configured.
type SQLiteStore struct {
	db *sql.DB

	mu  sync.Mutex
	dim int // embedding dimension, fixed by the first upsert
}

const sqliteDDL = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS records (
    id       TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    type     TEXT NOT NULL,
    content  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// OpenSQLiteStore creates or opens the database at path and initializes the
// schema. The vector table is created on first use, once the embedding
// dimension is known.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", ErrVectorStore, err)
	}
	if _, err := db.Exec(sqliteDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", ErrVectorStore, err)
	}

	s := &SQLiteStore{db: db}
	// Recover the embedding dimension from a previous run, if any.
	var dim int
	err = db.QueryRow("SELECT value FROM meta WHERE key = 'dimension'").Scan(&dim)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("%w: read meta: %v", ErrVectorStore, err)
	default:
		s.dim = dim
	}
	return s, nil
}

func (s *SQLiteStore) ensureVecTable(dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim == dim {
		return nil
	}
	if s.dim != 0 {
		return fmt.Errorf("%w: embedding dimension changed from %d to %d", ErrVectorStore, s.dim, dim)
	}
	ddl := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS vec_records USING vec0(record_id INTEGER PRIMARY KEY, embedding float[%d])",
		dim,
	)
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("%w: create vector table: %v", ErrVectorStore, err)
	}
	if _, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES ('dimension', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		dim,
	); err != nil {
		return fmt.Errorf("%w: store dimension: %v", ErrVectorStore, err)
	}
	s.dim = dim
	return nil
}

// Upsert writes the records as one transaction, replacing any existing
// vectors with the same ids.
func (s *SQLiteStore) Upsert(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureVecTable(len(records[0].Values)); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrVectorStore, err)
	}
	defer tx.Rollback()

	for _, r := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO records (id, filename, type, content) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET filename = excluded.filename, type = excluded.type, content = excluded.content
		`, r.ID, r.Metadata.Filename, r.Metadata.Type, r.Metadata.Content); err != nil {
			return fmt.Errorf("%w: upsert record %s: %v", ErrVectorStore, r.ID, err)
		}

		var rowID int64
		if err := tx.QueryRowContext(ctx, "SELECT rowid FROM records WHERE id = ?", r.ID).Scan(&rowID); err != nil {
			return fmt.Errorf("%w: resolve record %s: %v", ErrVectorStore, r.ID, err)
		}

		blob, err := sqlite_vec.SerializeFloat32(r.Values)
		if err != nil {
			return fmt.Errorf("%w: serialize embedding for %s: %v", ErrVectorStore, r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM vec_records WHERE record_id = ?", rowID); err != nil {
			return fmt.Errorf("%w: replace embedding for %s: %v", ErrVectorStore, r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO vec_records (record_id, embedding) VALUES (?, ?)", rowID, blob); err != nil {
			return fmt.Errorf("%w: insert embedding for %s: %v", ErrVectorStore, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrVectorStore, err)
	}
	return nil
}

// Query returns the topK nearest records by vector distance.
func (s *SQLiteStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	s.mu.Lock()
	empty := s.dim == 0
	s.mu.Unlock()
	if empty {
		return []Match{}, nil
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize query embedding: %v", ErrVectorStore, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, v.distance, r.filename, r.type, r.content
		FROM vec_records v
		JOIN records r ON r.rowid = v.record_id
		WHERE v.embedding MATCH ?
		ORDER BY v.distance
		LIMIT ?
	`, blob, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrVectorStore, err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var m Match
		var dist float64
		md := &Metadata{}
		if err := rows.Scan(&m.ID, &dist, &md.Filename, &md.Type, &md.Content); err != nil {
			return nil, fmt.Errorf("%w: scan match: %v", ErrVectorStore, err)
		}
		// Distance is ascending; negate so scores rank descending like the
		// remote backend's similarity scores.
		m.Score = -dist
		m.Metadata = md
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate matches: %v", ErrVectorStore, err)
	}
	return matches, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
