// Package filestore implements the default store.Index: a cache of memory
// embeddings and metadata held in an embedded sqlite database, one file per
// project directory, rebuildable at any time from the canonical markdown
// records.
//
// Grounded on internal/storage/sqlite/memory_store.go's WAL setup
// (single-writer SetMaxOpenConns(1), PRAGMA busy_timeout) — the same
// precautions apply here even though this index is purely a search cache,
// because a opened project DB can still see concurrent reads during a
// rebuild.
package filestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_index (
	id TEXT PRIMARY KEY,
	embedding TEXT NOT NULL,
	status TEXT NOT NULL,
	scope TEXT NOT NULL,
	project_id TEXT NOT NULL,
	exclude_from_retrieval INTEGER NOT NULL,
	superseded_by TEXT NOT NULL DEFAULT ''
);
`

// Index is a sqlite-backed store.Index. One instance is opened per project
// directory (<dir>/index.sqlite).
type Index struct {
	db *sql.DB
}

// New opens (creating if necessary) the sqlite index for a project
// directory. projectID is unused here but kept in the signature to match
// store.IndexFactory.
func New(projectID, projectDir string) (store.Index, error) {
	dsn := filepath.Join(projectDir, "index.sqlite")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("filestore: open index: %w", err)
	}

	// SQLite only supports one concurrent writer; a single open connection
	// serializes writes and avoids SQLITE_BUSY under concurrent access.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("filestore: enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("filestore: busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("filestore: create schema: %w", err)
	}

	return &Index{db: db}, nil
}

func (idx *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory_index").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("filestore: count: %w", err)
	}
	return n, nil
}

func (idx *Index) Rebuild(ctx context.Context, memories []*types.Memory) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("filestore: rebuild begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM memory_index"); err != nil {
		return fmt.Errorf("filestore: rebuild clear: %w", err)
	}
	for _, m := range memories {
		if err := upsertTx(ctx, tx, m); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (idx *Index) Upsert(ctx context.Context, m *types.Memory) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("filestore: upsert begin: %w", err)
	}
	defer tx.Rollback()
	if err := upsertTx(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertTx(ctx context.Context, tx *sql.Tx, m *types.Memory) error {
	emb, err := json.Marshal(m.Embedding)
	if err != nil {
		return fmt.Errorf("filestore: marshal embedding: %w", err)
	}
	exclude := 0
	if m.ExcludeFromRetrieval {
		exclude = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO memory_index (id, embedding, status, scope, project_id, exclude_from_retrieval, superseded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding=excluded.embedding, status=excluded.status, scope=excluded.scope,
			project_id=excluded.project_id, exclude_from_retrieval=excluded.exclude_from_retrieval,
			superseded_by=excluded.superseded_by
	`, m.ID, string(emb), string(m.Status), string(m.Scope), m.ProjectID, exclude, m.SupersededBy)
	if err != nil {
		return fmt.Errorf("filestore: upsert: %w", err)
	}
	return nil
}

func (idx *Index) Delete(ctx context.Context, id string) error {
	_, err := idx.db.ExecContext(ctx, "DELETE FROM memory_index WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("filestore: delete: %w", err)
	}
	return nil
}

// Search applies filter as a SQL WHERE clause over the cached scalar
// columns, then ranks the surviving rows by cosine similarity in Go. At the
// ≤10k-memory-per-project scale this system targets, a full 384-float
// compare per candidate is sub-millisecond; a dedicated ANN index would be
// premature for this workload.
func (idx *Index) Search(ctx context.Context, queryVec []float32, topK int, filter store.Filter) ([]store.SearchHit, error) {
	query := "SELECT id, embedding FROM memory_index WHERE 1=1"
	var args []interface{}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.ExcludeSuperseded {
		query += " AND superseded_by = ''"
	}
	if filter.ExcludeFlagged {
		query += " AND exclude_from_retrieval = 0"
	}

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filestore: search query: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id  string
		vec []float32
	}
	var candidates []scored
	for rows.Next() {
		var id, embJSON string
		if err := rows.Scan(&id, &embJSON); err != nil {
			return nil, fmt.Errorf("filestore: search scan: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(embJSON), &vec); err != nil {
			continue
		}
		candidates = append(candidates, scored{id: id, vec: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filestore: search rows: %w", err)
	}

	hits := make([]store.SearchHit, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, store.SearchHit{ID: c.id, Similarity: cosineSimilarity(queryVec, c.vec)})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (idx *Index) Close() error {
	return idx.db.Close()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
