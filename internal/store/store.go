package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/scrypster/continuity/pkg/types"
)

// SearchHit is one result of a vector similarity search: the record id and
// its cosine similarity to the query vector. Stale is not set by either
// Index implementation (filestore, postgres) and is always false. The
// caller hydrates the full record from
// the in-memory map this id was loaded from (the index only ever caches the
// handful of scalar columns needed to apply Filter cheaply).
type SearchHit struct {
	ID         string
	Similarity float64
	Stale      bool
}

// Filter expresses the Store contract's cheap, pre-top-k candidate
// exclusions (spec §4.1: "filter is applied before top-k selection"). It
// deliberately carries only the columns an Index caches, not the full
// Retrieval Engine signal computation, which runs downstream over already
// Search-filtered, hydrated records.
type Filter struct {
	Status            types.Status // zero value matches any status
	ExcludeSuperseded bool         // true: drop records with superseded_by set
	ExcludeFlagged    bool         // true: drop records with exclude_from_retrieval set
}

// Index is the pluggable search/cache accelerator behind a ProjectDB. The
// markdown file under <project>/memories/<id>.md is always the canonical
// record (spec §6: "content-addressed store is opaque, but the directory
// structure is stable"); an Index is a rebuildable cache over those files
// that makes Search fast. filestore provides a modernc.org/sqlite-backed
// Index (the default); store/postgres provides a pgvector-backed one.
type Index interface {
	// Rebuild replaces the index contents with exactly the given memories.
	// Called by openProjectDB when the index is empty (first run, or after
	// the cache was deleted) to reconstruct it from the files on disk.
	Rebuild(ctx context.Context, memories []*types.Memory) error

	// Upsert reflects a single insert/update into the index.
	Upsert(ctx context.Context, m *types.Memory) error

	// Delete removes a record from the index.
	Delete(ctx context.Context, id string) error

	// Count reports how many records the index currently holds, used to
	// decide whether Rebuild is needed on open.
	Count(ctx context.Context) (int, error)

	// Search returns up to topK ids ordered by descending cosine similarity
	// to queryVec, restricted to records matching filter. filter is applied
	// before top-k selection, as required by the store contract.
	Search(ctx context.Context, queryVec []float32, topK int, filter Filter) ([]SearchHit, error)

	Close() error
}

// IndexFactory constructs the Index for one project's directory.
type IndexFactory func(projectID, projectDir string) (Index, error)

// Store is the top-level registry of per-project collections. open is
// idempotent and cached: concurrent callers for the same project_id receive
// the same *ProjectDB instance (spec §4.1).
type Store struct {
	root     string
	newIndex IndexFactory
	mu       sync.Mutex
	projects map[string]*ProjectDB
}

// NewStore creates a Store rooted at root (the on-disk layout's <root> from
// spec §6). newIndex is invoked once per distinct project_id the first time
// it is opened.
func NewStore(root string, newIndex IndexFactory) *Store {
	return &Store{
		root:     root,
		newIndex: newIndex,
		projects: make(map[string]*ProjectDB),
	}
}

// Open returns the ProjectDB for projectID, creating and caching it on
// first call. The global project uses project_id "global" and lives under
// <root>/global per the stable layout; every other project_id lives under
// <root>/<project_id>.
func (s *Store) Open(ctx context.Context, projectID string) (*ProjectDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pdb, ok := s.projects[projectID]; ok {
		return pdb, nil
	}

	dir := filepath.Join(s.root, projectID)
	pdb, err := openProjectDB(ctx, projectID, dir, s.newIndex)
	if err != nil {
		return nil, err
	}
	s.projects[projectID] = pdb
	return pdb, nil
}

// Global is a convenience for Open(ctx, types.GlobalProjectID).
func (s *Store) Global(ctx context.Context) (*ProjectDB, error) {
	return s.Open(ctx, types.GlobalProjectID)
}

// ProjectDB is a single project's persistent collections, each backed by a
// directory of markdown+frontmatter files plus an in-memory index for
// get_by_id/all(), and memories additionally accelerated by an Index for
// vector search.
type ProjectDB struct {
	projectID string
	dir       string
	index     Index

	mu             sync.RWMutex
	memories       map[string]*types.Memory
	sessions       map[string]*types.Session
	summaries      []*types.SessionSummary
	snapshots      []*types.ProjectSnapshot
	managementLogs []*types.ManagementLog
	primer         *types.PersonalPrimer
}

func openProjectDB(ctx context.Context, projectID, dir string, newIndex IndexFactory) (*ProjectDB, error) {
	pdb := &ProjectDB{
		projectID: projectID,
		dir:       dir,
		memories:  make(map[string]*types.Memory),
		sessions:  make(map[string]*types.Session),
	}

	for _, sub := range []string{"memories", "sessions", "summaries", "snapshots", "management-logs", "primer"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, newErr(KindIO, "openProjectDB", err)
		}
	}

	if err := pdb.loadMemories(); err != nil {
		return nil, err
	}
	if err := pdb.loadSessions(); err != nil {
		return nil, err
	}
	if err := pdb.loadSummaries(); err != nil {
		return nil, err
	}
	if err := pdb.loadSnapshots(); err != nil {
		return nil, err
	}
	if err := pdb.loadManagementLogs(); err != nil {
		return nil, err
	}
	if projectID == types.GlobalProjectID {
		if err := pdb.loadPrimer(); err != nil {
			return nil, err
		}
	}

	idx, err := newIndex(projectID, dir)
	if err != nil {
		return nil, newErr(KindIO, "openProjectDB", err)
	}
	pdb.index = idx

	count, err := idx.Count(ctx)
	if err != nil {
		return nil, newErr(KindIO, "openProjectDB", err)
	}
	if count == 0 && len(pdb.memories) > 0 {
		all := pdb.allMemoriesLocked()
		if err := idx.Rebuild(ctx, all); err != nil {
			return nil, newErr(KindIO, "openProjectDB", err)
		}
	}

	return pdb, nil
}

func (p *ProjectDB) memoryPath(id string) string {
	return filepath.Join(p.dir, "memories", id+".md")
}

// Dir returns the project's root directory on disk, used by callers (the
// Engine's management-agent dispatch) that need a sandbox path to hand an
// external agent rather than direct Store access.
func (p *ProjectDB) Dir() string {
	return p.dir
}

func (p *ProjectDB) loadMemories() error {
	entries, err := os.ReadDir(filepath.Join(p.dir, "memories"))
	if err != nil {
		return newErr(KindIO, "loadMemories", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(p.dir, "memories", e.Name()))
		if err != nil {
			return newErr(KindIO, "loadMemories", err)
		}
		m, err := DecodeMemory(raw)
		if err != nil {
			return fmt.Errorf("store: loadMemories %s: %w", e.Name(), err)
		}
		p.memories[m.ID] = m
	}
	return nil
}

// InsertMemory writes a new record to disk, adds it to the in-memory index,
// and reflects it into the search accelerator. Read-your-writes: the record
// is visible to Get/All/Search immediately after this returns.
func (p *ProjectDB) InsertMemory(ctx context.Context, m *types.Memory) (string, error) {
	if m.ID == "" {
		return "", newErr(KindSchema, "InsertMemory", fmt.Errorf("memory id is required"))
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	if err := p.writeMemory(m); err != nil {
		return "", err
	}

	p.mu.Lock()
	p.memories[m.ID] = m
	p.mu.Unlock()

	if err := p.index.Upsert(ctx, m); err != nil {
		return "", newErr(KindIO, "InsertMemory", err)
	}
	return m.ID, nil
}

// UpdateMemory applies patch to the current in-memory copy of the record
// under lock, persists the result, and reflects it into the index.
func (p *ProjectDB) UpdateMemory(ctx context.Context, id string, patch func(*types.Memory)) error {
	p.mu.Lock()
	m, ok := p.memories[id]
	if !ok {
		p.mu.Unlock()
		return newErr(KindNotFound, "UpdateMemory", ErrNotFound)
	}
	patch(m)
	m.UpdatedAt = time.Now()
	p.mu.Unlock()

	if err := p.writeMemory(m); err != nil {
		return err
	}
	if err := p.index.Upsert(ctx, m); err != nil {
		return newErr(KindIO, "UpdateMemory", err)
	}
	return nil
}

func (p *ProjectDB) writeMemory(m *types.Memory) error {
	raw, err := EncodeMemory(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.memoryPath(m.ID), raw, 0o644); err != nil {
		return newErr(KindIO, "writeMemory", err)
	}
	return nil
}

// GetMemory returns the record with id, or ErrNotFound.
func (p *ProjectDB) GetMemory(ctx context.Context, id string) (*types.Memory, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.memories[id]
	if !ok {
		return nil, newErr(KindNotFound, "GetMemory", ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

// AllMemories returns every memory in the project, in no particular order.
func (p *ProjectDB) AllMemories(ctx context.Context) []*types.Memory {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.allMemoriesLocked()
}

func (p *ProjectDB) allMemoriesLocked() []*types.Memory {
	out := make([]*types.Memory, 0, len(p.memories))
	for _, m := range p.memories {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// MemorySearchHit pairs a hydrated, full Memory record with its similarity
// score from a SearchMemories call.
type MemorySearchHit struct {
	Memory     *types.Memory
	Similarity float64
	Stale      bool
}

// SearchMemories runs a cosine-similarity top-k search over the project's
// embeddings via the configured Index, with filter applied before top-k
// selection (spec §4.1), then hydrates each hit into its full Memory record.
func (p *ProjectDB) SearchMemories(ctx context.Context, queryVec []float32, topK int, filter Filter) ([]MemorySearchHit, error) {
	hits, err := p.index.Search(ctx, queryVec, topK, filter)
	if err != nil {
		return nil, newErr(KindIO, "SearchMemories", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]MemorySearchHit, 0, len(hits))
	for _, h := range hits {
		m, ok := p.memories[h.ID]
		if !ok {
			continue
		}
		cp := *m
		out = append(out, MemorySearchHit{Memory: &cp, Similarity: h.Similarity, Stale: h.Stale})
	}
	return out, nil
}

// Close releases the project's index resources.
func (p *ProjectDB) Close() error {
	if p.index == nil {
		return nil
	}
	return p.index.Close()
}
