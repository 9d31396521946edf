package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/internal/store/filestore"
	"github.com/scrypster/continuity/pkg/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.NewStore(t.TempDir(), filestore.New)
}

func TestOpenIsIdempotentAndCached(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)
	b, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)
	require.Same(t, a, b)
}

func TestInsertGetReadYourWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	m := &types.Memory{
		ID:               "mem-1",
		ProjectID:        "proj-1",
		Headline:         "test",
		ImportanceWeight: 0.5,
		ContextType:      types.ContextTechnical,
		Scope:            types.ScopeProject,
		Status:           types.StatusActive,
		Embedding:        make([]float32, types.EmbeddingDimension),
	}
	id, err := pdb.InsertMemory(ctx, m)
	require.NoError(t, err)
	require.Equal(t, "mem-1", id)

	got, err := pdb.GetMemory(ctx, id)
	require.NoError(t, err)
	require.Equal(t, m.Headline, got.Headline)
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	_, err = pdb.GetMemory(ctx, "missing")
	require.True(t, store.IsNotFound(err))
}

func TestUpdateMemoryAppliesPatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	m := &types.Memory{ID: "mem-1", ProjectID: "proj-1", Status: types.StatusActive}
	_, err = pdb.InsertMemory(ctx, m)
	require.NoError(t, err)

	err = pdb.UpdateMemory(ctx, "mem-1", func(mem *types.Memory) {
		mem.Status = types.StatusPending
	})
	require.NoError(t, err)

	got, err := pdb.GetMemory(ctx, "mem-1")
	require.NoError(t, err)
	require.Equal(t, types.StatusPending, got.Status)
}

func TestSearchMemoriesOrdersBySimilarity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	closeVec := make([]float32, types.EmbeddingDimension)
	closeVec[0] = 1.0
	closer := make([]float32, types.EmbeddingDimension)
	closer[0] = 0.99
	closer[1] = 0.01
	far := make([]float32, types.EmbeddingDimension)
	far[len(far)-1] = 1.0

	_, err = pdb.InsertMemory(ctx, &types.Memory{ID: "m-close", ProjectID: "proj-1", Status: types.StatusActive, Embedding: closeVec})
	require.NoError(t, err)
	_, err = pdb.InsertMemory(ctx, &types.Memory{ID: "m-closer", ProjectID: "proj-1", Status: types.StatusActive, Embedding: closer})
	require.NoError(t, err)
	_, err = pdb.InsertMemory(ctx, &types.Memory{ID: "m-far", ProjectID: "proj-1", Status: types.StatusActive, Embedding: far})
	require.NoError(t, err)

	query := make([]float32, types.EmbeddingDimension)
	query[0] = 1.0

	hits, err := pdb.SearchMemories(ctx, query, 2, store.Filter{Status: types.StatusActive, ExcludeSuperseded: true})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "m-close", hits[0].Memory.ID)
	require.Equal(t, "m-closer", hits[1].Memory.ID)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	sess, err := pdb.GetOrCreateSession(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, 0, sess.MessageCount)

	count, err := pdb.IncrementMessageCount(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	again, err := pdb.GetOrCreateSession(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, 1, again.MessageCount)
}

func TestAllSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	_, err = pdb.GetOrCreateSession(ctx, "sess-1")
	require.NoError(t, err)
	_, err = pdb.GetOrCreateSession(ctx, "sess-2")
	require.NoError(t, err)

	sessions := pdb.AllSessions(ctx)
	require.Len(t, sessions, 2)
}

func TestPrimerLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	global, err := s.Global(ctx)
	require.NoError(t, err)

	require.Nil(t, global.Primer())

	err = global.WritePrimer(ctx, "# Primer\n\nhello\n")
	require.NoError(t, err)

	p := global.Primer()
	require.NotNil(t, p)
	require.Contains(t, p.Content, "hello")
}
