package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/internal/store/filestore"
	"github.com/scrypster/continuity/pkg/types"
)

func TestTransitionStatusRejectsInvalidTransition(t *testing.T) {
	ctx := context.Background()
	s := store.NewStore(t.TempDir(), filestore.New)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	m := &types.Memory{ID: "mem-1", ProjectID: "proj-1", Status: types.StatusDeprecated}
	_, err = pdb.InsertMemory(ctx, m)
	require.NoError(t, err)

	err = transitionStatus(ctx, pdb, m, types.StatusSuperseded)
	var invalid *ErrInvalidTransition
	assert.ErrorAs(t, err, &invalid)
}
