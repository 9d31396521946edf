package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/continuity/pkg/types"
)

func candidate(id string, scope types.Scope, ct types.ContextType, count int, importance float64, actionRequired bool) Candidate {
	return Candidate{
		Memory: &types.Memory{
			ID:             id,
			Scope:          scope,
			ContextType:    ct,
			ActionRequired: actionRequired,
		},
		Signals:    Signals{Count: count},
		Importance: importance,
	}
}

func TestSelectCapsGlobalSelectionAndOrdersByPriority(t *testing.T) {
	candidates := []Candidate{
		candidate("g-personal", types.ScopeGlobal, types.ContextPersonal, 3, 0.8, false),
		candidate("g-technical", types.ScopeGlobal, types.ContextTechnical, 2, 0.5, false),
		candidate("g-decision", types.ScopeGlobal, types.ContextDecision, 2, 0.5, false),
	}
	selected, _ := Select(candidates, Options{MaxGlobal: 2, MaxTotal: 7})
	require.Len(t, selected, 2)
	assert.Equal(t, "g-technical", selected[0].Memory.ID) // priority 1 wins over signal/importance
	assert.Equal(t, "g-decision", selected[1].Memory.ID)  // priority 5 beats personal's priority 8
}

func TestSelectOrdersProjectByActionRequiredThenSignalsThenImportance(t *testing.T) {
	candidates := []Candidate{
		candidate("p-low", types.ScopeProject, types.ContextTechnical, 2, 0.9, false),
		candidate("p-action", types.ScopeProject, types.ContextTechnical, 2, 0.1, true),
	}
	selected, _ := Select(candidates, Options{MaxGlobal: 2, MaxTotal: 7})
	require.Len(t, selected, 2)
	assert.Equal(t, "p-action", selected[0].Memory.ID)
}

func TestSelectRespectsMaxTotalAcrossTiers(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 5; i++ {
		candidates = append(candidates, candidate("g"+string(rune('a'+i)), types.ScopeGlobal, types.ContextTechnical, 2, 0.5, false))
	}
	for i := 0; i < 5; i++ {
		candidates = append(candidates, candidate("p"+string(rune('a'+i)), types.ScopeProject, types.ContextTechnical, 2, 0.5, false))
	}
	selected, _ := Select(candidates, Options{MaxGlobal: 2, MaxTotal: 4})
	assert.Len(t, selected, 4)
}

func TestSelectBackfillsRelatedMemoriesWhenSlotsRemain(t *testing.T) {
	related := candidate("p-related", types.ScopeProject, types.ContextTechnical, 2, 0.4, false)
	selectedOne := candidate("p-main", types.ScopeProject, types.ContextTechnical, 3, 0.9, false)
	selectedOne.Memory.RelatedTo = []string{"p-related"}

	candidates := []Candidate{selectedOne, related}
	selected, backfilled := Select(candidates, Options{MaxGlobal: 2, MaxTotal: 7})
	require.Len(t, selected, 2)
	assert.Equal(t, []string{"p-related"}, backfilled)
}

func TestSelectDoesNotBackfillPastMaxTotal(t *testing.T) {
	related := candidate("p-related", types.ScopeProject, types.ContextTechnical, 2, 0.4, false)
	selectedOne := candidate("p-main", types.ScopeProject, types.ContextTechnical, 3, 0.9, false)
	selectedOne.Memory.RelatedTo = []string{"p-related"}

	candidates := []Candidate{selectedOne, related}
	selected, backfilled := Select(candidates, Options{MaxGlobal: 2, MaxTotal: 1})
	assert.Len(t, selected, 1)
	assert.Empty(t, backfilled)
}
