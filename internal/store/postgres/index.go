// Package postgres implements a store.Index backed by PostgreSQL with the
// pgvector extension: embeddings live in a vector(384) column and
// similarity search is a server-side `ORDER BY embedding <=> $1` query,
// grounded on internal/storage/postgres/search_provider.go's VectorSearch.
//
// Opt-in via MEMORY_STORAGE_BACKEND=postgres; the default is filestore's
// embedded sqlite index. Both sit behind the same store.Index interface and
// the same markdown-file canonical records.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_index (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	status TEXT NOT NULL,
	superseded_by TEXT NOT NULL DEFAULT '',
	exclude_from_retrieval BOOLEAN NOT NULL DEFAULT FALSE,
	embedding vector(384)
);
`

// Index is a pgvector-backed store.Index. One Go *sql.DB per process, one
// logical namespace per project via the project_id column (so a single
// PostgreSQL database can back every opened project, unlike filestore's
// one-sqlite-file-per-project layout).
type Index struct {
	db        *sql.DB
	projectID string
}

// Open connects to a shared PostgreSQL database (dsn) and ensures the
// memory_index table and pgvector extension exist. It returns a
// store.IndexFactory bound to that connection, so every project opened
// against the same dsn shares one pool.
func Open(dsn string) (store.IndexFactory, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if _, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: create extension vector: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS memory_index_project_idx ON memory_index (project_id)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: create project index: %w", err)
	}

	return func(projectID, _ string) (store.Index, error) {
		return &Index{db: db, projectID: projectID}, nil
	}, nil
}

func (idx *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory_index WHERE project_id = $1", idx.projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (idx *Index) Rebuild(ctx context.Context, memories []*types.Memory) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: rebuild begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM memory_index WHERE project_id = $1", idx.projectID); err != nil {
		return fmt.Errorf("postgres: rebuild clear: %w", err)
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
		return fmt.Errorf("postgres: upsert begin: %w", err)
	}
	defer tx.Rollback()
	if err := upsertTx(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertTx(ctx context.Context, tx *sql.Tx, m *types.Memory) error {
	var vec *pgvector.Vector
	if len(m.Embedding) == types.EmbeddingDimension {
		v := pgvector.NewVector(m.Embedding)
		vec = &v
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO memory_index (id, project_id, status, superseded_by, exclude_from_retrieval, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			project_id = excluded.project_id, status = excluded.status,
			superseded_by = excluded.superseded_by,
			exclude_from_retrieval = excluded.exclude_from_retrieval,
			embedding = excluded.embedding
	`, m.ID, m.ProjectID, string(m.Status), m.SupersededBy, m.ExcludeFromRetrieval, vec)
	if err != nil {
		return fmt.Errorf("postgres: upsert: %w", err)
	}
	return nil
}

func (idx *Index) Delete(ctx context.Context, id string) error {
	_, err := idx.db.ExecContext(ctx, "DELETE FROM memory_index WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete: %w", err)
	}
	return nil
}

// Search runs a server-side cosine distance query: pgvector's <=> operator
// is distance (1 - cosine similarity for normalized vectors), so similarity
// is recovered as 1 - distance.
func (idx *Index) Search(ctx context.Context, queryVec []float32, topK int, filter store.Filter) ([]store.SearchHit, error) {
	query := `SELECT id, embedding <=> $1 AS distance FROM memory_index WHERE project_id = $2`
	args := []interface{}{pgvector.NewVector(queryVec), idx.projectID}
	n := 2
	if filter.Status != "" {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(filter.Status))
	}
	if filter.ExcludeSuperseded {
		query += " AND superseded_by = ''"
	}
	if filter.ExcludeFlagged {
		query += " AND exclude_from_retrieval = FALSE"
	}
	query += " ORDER BY distance ASC"
	if topK > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, topK)
	}

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: search: %w", err)
	}
	defer rows.Close()

	var hits []store.SearchHit
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, fmt.Errorf("postgres: search scan: %w", err)
		}
		hits = append(hits, store.SearchHit{ID: id, Similarity: 1 - distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: search rows: %w", err)
	}
	return hits, nil
}

func (idx *Index) Close() error {
	return nil // shared *sql.DB is owned by the process, not by a single project's Index
}
