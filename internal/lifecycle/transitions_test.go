package lifecycle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrypster/continuity/internal/lifecycle"
	"github.com/scrypster/continuity/pkg/types"
)

func TestRunClearsAwaitingImplementationOnCompletionEvidence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	m := &types.Memory{
		ID: "mem-1", ProjectID: "proj-1", Domain: "retrieval",
		AwaitingImplementation: true,
	}
	insert(t, ctx, pdb, m)

	mgr := lifecycle.NewManager(s)
	_, err = mgr.Run(ctx, lifecycle.Input{
		ProjectID: "proj-1",
		Evidence:  lifecycle.SessionEvidence{Summary: "Implemented the retrieval ranking changes today."},
	})
	require.NoError(t, err)

	updated, err := pdb.GetMemory(ctx, "mem-1")
	require.NoError(t, err)
	require.False(t, updated.AwaitingImplementation)
}

func TestRunClearsBlockedByWhenBlockerSuperseded(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	blocker := &types.Memory{ID: "blocker", ProjectID: "proj-1", Status: types.StatusSuperseded}
	_, err = pdb.InsertMemory(ctx, blocker)
	require.NoError(t, err)

	blocked := &types.Memory{ID: "blocked", ProjectID: "proj-1", BlockedBy: []string{"blocker"}}
	insert(t, ctx, pdb, blocked)

	mgr := lifecycle.NewManager(s)
	_, err = mgr.Run(ctx, lifecycle.Input{ProjectID: "proj-1"})
	require.NoError(t, err)

	updated, err := pdb.GetMemory(ctx, "blocked")
	require.NoError(t, err)
	require.Empty(t, updated.BlockedBy)
}

func TestRunActionClearedSweepCatchesCompletionEvidence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	m := &types.Memory{
		ID: "mem-1", ProjectID: "proj-1", Domain: "billing",
		ActionRequired: true,
	}
	insert(t, ctx, pdb, m)

	mgr := lifecycle.NewManager(s)
	log, err := mgr.Run(ctx, lifecycle.Input{
		ProjectID: "proj-1",
		Evidence:  lifecycle.SessionEvidence{Summary: "Shipped the billing reconciliation fix."},
	})
	require.NoError(t, err)
	require.Equal(t, 1, log.ActionCleared)

	updated, err := pdb.GetMemory(ctx, "mem-1")
	require.NoError(t, err)
	require.False(t, updated.ActionRequired)
}

func TestRunActionRequiredSurvivesWithoutCompletionEvidence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pdb, err := s.Open(ctx, "proj-1")
	require.NoError(t, err)

	m := &types.Memory{
		ID: "mem-1", ProjectID: "proj-1", Domain: "billing",
		ActionRequired: true,
	}
	insert(t, ctx, pdb, m)

	mgr := lifecycle.NewManager(s)
	log, err := mgr.Run(ctx, lifecycle.Input{
		ProjectID: "proj-1",
		Evidence:  lifecycle.SessionEvidence{Summary: "Discussed the billing reconciliation approach."},
	})
	require.NoError(t, err)
	require.Equal(t, 0, log.ActionCleared)
}
