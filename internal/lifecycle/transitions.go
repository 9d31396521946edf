package lifecycle

import (
	"context"
	"strings"

	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

// transitionResult tallies the implicit-transition sweep for the
// management log's action_cleared count.
type transitionResult struct {
	ActionCleared int
	Touched       map[string]bool
}

// SessionEvidence is the session-level text the implicit-transition sweep
// scans for completion language (spec §4.3.2).
type SessionEvidence struct {
	Summary  string
	Snapshot string
}

func (e SessionEvidence) text() string {
	return e.Summary + " " + e.Snapshot
}

// applyImplicitTransitions implements spec §4.3.2: clear
// awaiting_implementation when session evidence matches by domain/feature,
// clear blocked_by when the blocker is superseded/archived, and run the
// action-cleared sweep. all is every memory in the project, of any status
// (only active ones are transitioned); byID
// indexes all memories (including the ones reconciliation may have just
// superseded) so blocked_by lookups see fresh status.
func applyImplicitTransitions(ctx context.Context, pdb *store.ProjectDB, all []*types.Memory, byID map[string]*types.Memory, evidence SessionEvidence) (transitionResult, error) {
	result := transitionResult{Touched: make(map[string]bool)}
	evidenceText := strings.ToLower(evidence.text())
	hasCompletionLanguage := containsAny(evidenceText, completionVerbs)

	for _, m := range all {
		if m.Status != types.StatusActive {
			continue
		}

		if m.AwaitingImplementation && hasCompletionLanguage && mentionsDomainOrFeature(evidenceText, m) {
			if err := pdb.UpdateMemory(ctx, m.ID, func(mm *types.Memory) {
				mm.AwaitingImplementation = false
			}); err != nil {
				return result, err
			}
			m.AwaitingImplementation = false
			result.Touched[m.ID] = true
		}

		if len(m.BlockedBy) > 0 {
			remaining := m.BlockedBy[:0:0]
			for _, blockerID := range m.BlockedBy {
				blocker, ok := byID[blockerID]
				if ok && (blocker.Status == types.StatusSuperseded || blocker.Status == types.StatusArchived) {
					continue // cleared
				}
				remaining = append(remaining, blockerID)
			}
			if len(remaining) != len(m.BlockedBy) {
				if err := pdb.UpdateMemory(ctx, m.ID, func(mm *types.Memory) {
					mm.BlockedBy = remaining
				}); err != nil {
					return result, err
				}
				m.BlockedBy = remaining
				result.Touched[m.ID] = true
			}
		}

		// Action-cleared sweep (spec §4.3.2: "false negatives here are far
		// worse than false positives" — any completion evidence touching
		// this memory's domain/feature, or an explicit resolved_by/
		// superseded_by link, clears action_required).
		if m.ActionRequired {
			cleared := m.ResolvedBy != "" || m.SupersededBy != ""
			if !cleared && hasCompletionLanguage && mentionsDomainOrFeature(evidenceText, m) {
				cleared = true
			}
			if cleared {
				if err := pdb.UpdateMemory(ctx, m.ID, func(mm *types.Memory) {
					mm.ActionRequired = false
				}); err != nil {
					return result, err
				}
				m.ActionRequired = false
				result.Touched[m.ID] = true
				result.ActionCleared++
			}
		}
	}
	return result, nil
}

func mentionsDomainOrFeature(lowerText string, m *types.Memory) bool {
	if m.Domain != "" && strings.Contains(lowerText, strings.ToLower(m.Domain)) {
		return true
	}
	if m.Feature != "" && strings.Contains(lowerText, strings.ToLower(m.Feature)) {
		return true
	}
	return m.Domain == "" && m.Feature == ""
}
