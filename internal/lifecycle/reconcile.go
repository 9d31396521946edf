package lifecycle

import (
	"context"

	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

// reconcileResult tallies what relationship reconciliation actually did, for
// the management log's counts.
type reconcileResult struct {
	Superseded int
	Resolved   int
	Linked     int
	Touched    map[string]bool
}

func newReconcileResult() reconcileResult {
	return reconcileResult{Touched: make(map[string]bool)}
}

// reconcileRelationships implements spec §4.3.1: for each new memory,
// discover candidate existing memories via cheap metadata filters (domain,
// feature, context_type) and apply the supersession trigger matrix, resolve
// referenced ids, and make related_to symmetric. all is every memory in the
// project, of any status (supersession and resolution act only on active
// ones), grounded on contradiction_detector.go's
// metadata-filter-first, graph-scan style.
func reconcileRelationships(ctx context.Context, pdb *store.ProjectDB, newMemories []*types.Memory, all []*types.Memory) (reconcileResult, error) {
	result := newReconcileResult()
	byID := make(map[string]*types.Memory, len(all))
	for _, m := range all {
		byID[m.ID] = m
	}

	for _, nm := range newMemories {
		if err := reconcileSupersession(ctx, pdb, nm, all, byID, &result); err != nil {
			return result, err
		}
		if err := reconcileResolution(ctx, pdb, nm, byID, &result); err != nil {
			return result, err
		}
		if err := reconcileRelated(ctx, pdb, nm, byID, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// reconcileSupersession applies the supersession trigger matrix: explicit
// curator-set Supersedes always wins; otherwise a new `state` memory
// supersedes older active `state` memories of the same domain (latest
// wins), and a new architecture/decision memory supersedes an explicit,
// same domain+feature conflicting predecessor.
func reconcileSupersession(ctx context.Context, pdb *store.ProjectDB, nm *types.Memory, all []*types.Memory, byID map[string]*types.Memory, result *reconcileResult) error {
	var targets []string

	if nm.Supersedes != "" {
		targets = append(targets, nm.Supersedes)
	} else {
		switch nm.ContextType {
		case types.ContextState:
			for _, old := range all {
				if old.ID == nm.ID || old.ContextType != types.ContextState {
					continue
				}
				if old.Status != types.StatusActive || old.Domain != nm.Domain {
					continue
				}
				targets = append(targets, old.ID)
			}
		case types.ContextArchitecture, types.ContextDecision:
			if !containsAny(nm.Content, reversalKeywords) && !containsAny(nm.Reasoning, reversalKeywords) {
				break
			}
			for _, old := range all {
				if old.ID == nm.ID || old.ContextType != nm.ContextType {
					continue
				}
				if old.Status != types.StatusActive || old.Domain != nm.Domain || old.Feature != nm.Feature {
					continue
				}
				targets = append(targets, old.ID)
			}
		}
	}

	for _, oldID := range targets {
		old, ok := byID[oldID]
		if !ok || old.Status != types.StatusActive {
			continue
		}
		if err := transitionStatus(ctx, pdb, old, types.StatusSuperseded); err != nil {
			return err
		}
		if err := pdb.UpdateMemory(ctx, old.ID, func(m *types.Memory) {
			m.SupersededBy = nm.ID
		}); err != nil {
			return err
		}
		old.Status = types.StatusSuperseded
		old.SupersededBy = nm.ID
		result.Touched[old.ID] = true
		result.Superseded++
	}
	if len(targets) > 0 && nm.Supersedes == "" {
		newest := targets[len(targets)-1]
		if err := pdb.UpdateMemory(ctx, nm.ID, func(m *types.Memory) { m.Supersedes = newest }); err != nil {
			return err
		}
		nm.Supersedes = newest
		result.Touched[nm.ID] = true
	}
	return nil
}

// reconcileResolution implements "for each id in new's resolves: set that
// memory's status = superseded, resolved_by = new" (spec §4.3.1).
func reconcileResolution(ctx context.Context, pdb *store.ProjectDB, nm *types.Memory, byID map[string]*types.Memory, result *reconcileResult) error {
	for _, id := range nm.Resolves {
		target, ok := byID[id]
		if !ok || target.Status != types.StatusActive {
			continue
		}
		if err := transitionStatus(ctx, pdb, target, types.StatusSuperseded); err != nil {
			return err
		}
		if err := pdb.UpdateMemory(ctx, target.ID, func(m *types.Memory) {
			m.ResolvedBy = nm.ID
		}); err != nil {
			return err
		}
		target.Status = types.StatusSuperseded
		target.ResolvedBy = nm.ID
		result.Touched[target.ID] = true
		result.Resolved++
	}
	return nil
}

// reconcileRelated appends to related_to on both sides for every id listed
// in the new memory's related_to (spec §4.3.1, property P2: "related_to is
// symmetric after any Lifecycle Manager pass").
func reconcileRelated(ctx context.Context, pdb *store.ProjectDB, nm *types.Memory, byID map[string]*types.Memory, result *reconcileResult) error {
	for _, id := range nm.RelatedTo {
		other, ok := byID[id]
		if !ok {
			continue
		}
		if containsID(other.RelatedTo, nm.ID) {
			continue
		}
		if err := pdb.UpdateMemory(ctx, other.ID, func(m *types.Memory) {
			m.RelatedTo = appendUnique(m.RelatedTo, nm.ID)
		}); err != nil {
			return err
		}
		other.RelatedTo = appendUnique(other.RelatedTo, nm.ID)
		result.Touched[other.ID] = true
		result.Linked++
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func appendUnique(ids []string, id string) []string {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

// transitionStatus validates and applies a status change, refusing anything
// IsValidStatusTransition rejects.
func transitionStatus(ctx context.Context, pdb *store.ProjectDB, m *types.Memory, to types.Status) error {
	if !types.IsValidStatusTransition(m.Status, to) {
		return &ErrInvalidTransition{ID: m.ID, From: string(m.Status), To: string(to)}
	}
	return pdb.UpdateMemory(ctx, m.ID, func(mm *types.Memory) {
		mm.Status = to
	})
}
