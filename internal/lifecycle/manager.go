package lifecycle

import (
	"context"
	"time"

	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

// Input bundles what a single Lifecycle Manager pass needs (spec §4.3:
// "Invoked after each curator pass. Inputs: the newly-created memory ids,
// session summary, project snapshot, session number, project id, current
// date").
type Input struct {
	ProjectID     string
	SessionID     string
	NewMemoryIDs  []string
	Evidence      SessionEvidence
	SessionNumber int
}

// Manager runs the post-curation reconciliation pass: relationship
// reconciliation, implicit state transitions, and personal primer
// maintenance (decay itself runs at session start via ApplyDecay/
// ResetOnSurface, not here — see spec §4.3.3).
type Manager struct {
	projectStore *store.Store
}

// NewManager returns a Manager that opens project and global collections
// through projectStore.
func NewManager(projectStore *store.Store) *Manager {
	return &Manager{projectStore: projectStore}
}

// Run executes one Lifecycle Manager pass and always returns a
// ManagementLog, even on failure (spec §4.3.5 / §5: "Write a management log
// regardless of outcome").
func (m *Manager) Run(ctx context.Context, in Input) (*types.ManagementLog, error) {
	start := time.Now()
	log := &types.ManagementLog{
		ProjectID: in.ProjectID,
		SessionID: in.SessionID,
	}

	pdb, err := m.projectStore.Open(ctx, in.ProjectID)
	if err != nil {
		return m.fail(ctx, log, start, err)
	}

	global, err := m.projectStore.Global(ctx)
	if err != nil {
		return m.fail(ctx, log, start, err)
	}

	all := pdb.AllMemories(ctx)
	byID := make(map[string]*types.Memory, len(all))
	for _, mm := range all {
		byID[mm.ID] = mm
	}

	// persistCuration (internal/engine) writes scope=global memories into the
	// separate global project directory, so a curation pass's new ids can
	// span both stores: look up whatever in.ProjectID's own store doesn't
	// have in global's.
	globalByID := byID
	if in.ProjectID != types.GlobalProjectID {
		globalAll := global.AllMemories(ctx)
		globalByID = make(map[string]*types.Memory, len(globalAll))
		for _, mm := range globalAll {
			globalByID[mm.ID] = mm
		}
	}

	var newMemories, newGlobalMemories []*types.Memory
	for _, id := range in.NewMemoryIDs {
		if mm, ok := byID[id]; ok {
			newMemories = append(newMemories, mm)
			continue
		}
		if mm, ok := globalByID[id]; ok {
			newGlobalMemories = append(newGlobalMemories, mm)
		}
	}
	log.Processed = len(newMemories) + len(newGlobalMemories)

	reconcileRes, err := reconcileRelationships(ctx, pdb, newMemories, all)
	if err != nil {
		return m.fail(ctx, log, start, err)
	}
	log.Superseded = reconcileRes.Superseded
	log.Resolved = reconcileRes.Resolved
	log.Linked = reconcileRes.Linked

	transitionRes, err := applyImplicitTransitions(ctx, pdb, all, byID, in.Evidence)
	if err != nil {
		return m.fail(ctx, log, start, err)
	}
	log.ActionCleared = transitionRes.ActionCleared

	touched := make(map[string]bool)
	for id := range reconcileRes.Touched {
		touched[id] = true
	}
	for id := range transitionRes.Touched {
		touched[id] = true
	}
	for _, mm := range newMemories {
		touched[mm.ID] = true
	}
	for id := range touched {
		log.FilesTouched = append(log.FilesTouched, in.ProjectID+"/memories/"+id+".md")
	}
	for _, mm := range newGlobalMemories {
		log.FilesTouched = append(log.FilesTouched, types.GlobalProjectID+"/memories/"+mm.ID+".md")
	}

	primerCandidates := newMemories
	if in.ProjectID != types.GlobalProjectID {
		primerCandidates = append(append([]*types.Memory{}, newMemories...), newGlobalMemories...)
	}
	wrote, err := maintainPrimer(ctx, global, primerCandidates)
	if err != nil {
		return m.fail(ctx, log, start, err)
	}
	if wrote {
		log.FilesTouched = append(log.FilesTouched, "global/primer/personal-primer.md")
	}

	log.Success = true
	log.Duration = time.Since(start)
	if err := pdb.AppendManagementLog(ctx, log); err != nil {
		return log, err
	}
	return log, nil
}

// fail finalizes log as a failed pass and still appends it (best-effort —
// if the append itself fails, the caller gets both errors via the returned
// log/error pair).
func (m *Manager) fail(ctx context.Context, log *types.ManagementLog, start time.Time, cause error) (*types.ManagementLog, error) {
	log.Success = false
	log.FailureReason = cause.Error()
	log.Duration = time.Since(start)
	if pdb, openErr := m.projectStore.Open(ctx, log.ProjectID); openErr == nil {
		_ = pdb.AppendManagementLog(ctx, log)
	}
	return log, cause
}
