package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/continuity/pkg/types"
)

func baseMemory() *types.Memory {
	return &types.Memory{
		ID:        "m-1",
		ProjectID: "proj-a",
		Status:    types.StatusActive,
		Scope:     types.ScopeProject,
	}
}

func TestPassesPreFilterRejectsInactiveStatus(t *testing.T) {
	m := baseMemory()
	m.Status = types.StatusArchived
	assert.False(t, PassesPreFilter(m, "proj-a", "hello", nil))
}

func TestPassesPreFilterRejectsExcludedAndSuperseded(t *testing.T) {
	excluded := baseMemory()
	excluded.ExcludeFromRetrieval = true
	assert.False(t, PassesPreFilter(excluded, "proj-a", "hello", nil))

	superseded := baseMemory()
	superseded.SupersededBy = "m-2"
	assert.False(t, PassesPreFilter(superseded, "proj-a", "hello", nil))
}

func TestPassesPreFilterRejectsCrossProjectScope(t *testing.T) {
	m := baseMemory()
	assert.False(t, PassesPreFilter(m, "other-project", "hello", nil))
}

func TestPassesPreFilterAllowsGlobalScopeAcrossProjects(t *testing.T) {
	m := baseMemory()
	m.Scope = types.ScopeGlobal
	assert.True(t, PassesPreFilter(m, "other-project", "hello", nil))
}

func TestPassesPreFilterRejectsAntiTriggerMatch(t *testing.T) {
	m := baseMemory()
	m.AntiTriggers = []string{"production outage"}
	assert.False(t, PassesPreFilter(m, "proj-a", "we had a PRODUCTION OUTAGE last night", nil))
}

func TestPassesPreFilterRejectsAlreadyInjected(t *testing.T) {
	m := baseMemory()
	assert.False(t, PassesPreFilter(m, "proj-a", "hello", map[string]bool{"m-1": true}))
}

func TestPassesRelevanceGateBoundary(t *testing.T) {
	assert.False(t, PassesRelevanceGate(Signals{Count: 1}))
	assert.True(t, PassesRelevanceGate(Signals{Count: 2}))
}

func TestImportanceScoreAppliesSignalCountBonus(t *testing.T) {
	m := &types.Memory{ImportanceWeight: 0.5}
	low := ImportanceScore(m, "", Signals{Count: 2})
	mid := ImportanceScore(m, "", Signals{Count: 3})
	high := ImportanceScore(m, "", Signals{Count: 4})
	assert.InDelta(t, 0.5, low, 0.001)
	assert.InDelta(t, 0.6, mid, 0.001)
	assert.InDelta(t, 0.7, high, 0.001)
}

func TestImportanceScoreFlagBonuses(t *testing.T) {
	m := &types.Memory{
		ImportanceWeight:       0.5,
		AwaitingImplementation: true,
		AwaitingDecision:       true,
	}
	score := ImportanceScore(m, "", Signals{Count: 2})
	assert.InDelta(t, 0.75, score, 0.001)
}

func TestImportanceScoreContextTypeKeywordBonusAppliesOnce(t *testing.T) {
	m := &types.Memory{ImportanceWeight: 0.5, ContextType: types.ContextDebug}
	score := ImportanceScore(m, "there's a nasty bug and an error in prod", Signals{Count: 2})
	assert.InDelta(t, 0.6, score, 0.001)
}

func TestImportanceScoreProblemSolutionPairBonus(t *testing.T) {
	m := &types.Memory{ImportanceWeight: 0.5, ProblemSolutionPair: true}
	score := ImportanceScore(m, "still stuck on this issue", Signals{Count: 2})
	assert.InDelta(t, 0.6, score, 0.001)
}

func TestImportanceScoreTemporalClassBonuses(t *testing.T) {
	eternal := &types.Memory{ImportanceWeight: 0.5, TemporalClass: types.TemporalEternal}
	assert.InDelta(t, 0.6, ImportanceScore(eternal, "", Signals{Count: 2}), 0.001)

	longTerm := &types.Memory{ImportanceWeight: 0.5, TemporalClass: types.TemporalLongTerm}
	assert.InDelta(t, 0.55, ImportanceScore(longTerm, "", Signals{Count: 2}), 0.001)

	freshEphemeral := &types.Memory{ImportanceWeight: 0.5, TemporalClass: types.TemporalEphemeral, SessionsSinceSurfaced: 1}
	assert.InDelta(t, 0.6, ImportanceScore(freshEphemeral, "", Signals{Count: 2}), 0.001)

	staleEphemeral := &types.Memory{ImportanceWeight: 0.5, TemporalClass: types.TemporalEphemeral, SessionsSinceSurfaced: 5}
	assert.InDelta(t, 0.5, ImportanceScore(staleEphemeral, "", Signals{Count: 2}), 0.001)
}

func TestImportanceScoreLowConfidencePenalty(t *testing.T) {
	m := &types.Memory{ImportanceWeight: 0.5, ConfidenceScore: 0.3}
	assert.InDelta(t, 0.4, ImportanceScore(m, "", Signals{Count: 2}), 0.001)
}

func TestImportanceScoreZeroConfidenceDoesNotTriggerPenalty(t *testing.T) {
	m := &types.Memory{ImportanceWeight: 0.5}
	assert.InDelta(t, 0.5, ImportanceScore(m, "", Signals{Count: 2}), 0.001)
}
