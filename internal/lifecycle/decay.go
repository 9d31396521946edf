// Package lifecycle implements the Lifecycle Manager: relationship
// reconciliation, implicit state transitions, temporal decay, and personal
// primer maintenance, invoked after each curator pass (spec §4.3). Grounded
// on pkg/types.IsValidStatusTransition's switch idiom for the state machine
// and on internal/engine/decay_manager.go for the decay application shape,
// with the teacher's half-life exponential decay replaced by the spec's
// linear fade_rate subtraction.
package lifecycle

import (
	"context"

	"github.com/scrypster/continuity/internal/store"
	"github.com/scrypster/continuity/pkg/types"
)

// minRetrievalWeight is the floor decay never pushes retrieval_weight below
// (spec §4.3.3: "max(0.1, retrieval_weight - fade_rate)").
const minRetrievalWeight = 0.1

// decayResult tallies how many memories were archived by expiry, for the
// management log.
type decayResult struct {
	Archived int
}

// ApplyDecay implements spec §4.3.3's decay rules. It is invoked at session
// start (by the Engine, not as part of a management pass — see context.go),
// but lives here because it's governed by the same per-context-type rules
// the rest of the lifecycle state machine enforces.
func ApplyDecay(ctx context.Context, pdb *store.ProjectDB, all []*types.Memory) (decayResult, error) {
	var result decayResult
	for _, m := range all {
		if m.Status != types.StatusActive || m.FadeRate <= 0 {
			continue
		}

		newSessionsSince := m.SessionsSinceSurfaced + 1
		newWeight := m.RetrievalWeight - m.FadeRate
		if newWeight < minRetrievalWeight {
			newWeight = minRetrievalWeight
		}

		if err := pdb.UpdateMemory(ctx, m.ID, func(mm *types.Memory) {
			mm.SessionsSinceSurfaced = newSessionsSince
			mm.RetrievalWeight = newWeight
		}); err != nil {
			return result, err
		}
		m.SessionsSinceSurfaced = newSessionsSince
		m.RetrievalWeight = newWeight

		if m.TemporalClass == types.TemporalEphemeral && m.ExpiresAfterSessions > 0 &&
			m.SessionsSinceSurfaced > m.ExpiresAfterSessions {
			if err := transitionStatus(ctx, pdb, m, types.StatusArchived); err != nil {
				return result, err
			}
			m.Status = types.StatusArchived
			result.Archived++
		}
	}
	return result, nil
}

// ResetOnSurface implements spec §4.3.3's "on surfacing (retrieval success):
// reset sessions_since_surfaced = 0 and restore retrieval_weight to its type
// default". The Open Question over whether "restore" means initial_weight or
// importance_weight (spec §9) is resolved as importance_weight, consistent
// with pkg/types.ApplyDefaults seeding a new memory's retrieval_weight from
// its importance_weight in the first place — "type default" and "initial
// weight" are the same value at birth.
func ResetOnSurface(ctx context.Context, pdb *store.ProjectDB, id string) error {
	return pdb.UpdateMemory(ctx, id, func(m *types.Memory) {
		m.SessionsSinceSurfaced = 0
		m.RetrievalWeight = m.ImportanceWeight
	})
}
