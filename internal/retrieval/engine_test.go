package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/continuity/pkg/types"
)

func TestEvaluateEndToEndSelectsRelevantMemory(t *testing.T) {
	m := &types.Memory{
		ID:             "m-1",
		ProjectID:      "proj-a",
		Status:         types.StatusActive,
		Scope:          types.ScopeProject,
		ContextType:    types.ContextDebug,
		TriggerPhrases: []string{"connection pool exhaustion"},
		SemanticTags:   []string{"pool", "exhaustion"},
		Content:        "The connection pool exhaustion under load was traced to a leaked transaction that never committed.",
	}
	irrelevant := &types.Memory{
		ID:        "m-2",
		ProjectID: "proj-a",
		Status:    types.StatusActive,
		Scope:     types.ScopeProject,
		Content:   "Unrelated note about lunch reservations downtown.",
	}

	res := Evaluate(Request{
		Memories:       []*types.Memory{m, irrelevant},
		Message:        "we're seeing connection pool exhaustion again under load",
		CurrentProject: "proj-a",
		Options:        Options{MaxGlobal: 2, MaxTotal: 7},
	})

	require.Len(t, res.Selected, 1)
	assert.Equal(t, "m-1", res.Selected[0].Memory.ID)
	assert.Equal(t, 2, res.Diagnostic.PassedPreFilter) // both memories clear the binary pre-filter
	assert.Contains(t, res.Diagnostic.SelectedIDs, "m-1")
}

func TestEvaluateExcludesAlreadyInjectedMemory(t *testing.T) {
	m := &types.Memory{
		ID:             "m-1",
		ProjectID:      "proj-a",
		Status:         types.StatusActive,
		Scope:          types.ScopeProject,
		TriggerPhrases: []string{"connection pool exhaustion"},
		SemanticTags:   []string{"pool", "exhaustion"},
		Content:        "The connection pool exhaustion under load was traced to a leaked transaction.",
	}

	res := Evaluate(Request{
		Memories:        []*types.Memory{m},
		Message:         "connection pool exhaustion again under load",
		CurrentProject:  "proj-a",
		AlreadyInjected: map[string]bool{"m-1": true},
	})

	assert.Empty(t, res.Selected)
	assert.Equal(t, 0, res.Diagnostic.PassedPreFilter)
}

type fakeLogger struct {
	lines []string
}

func (f *fakeLogger) Printf(format string, args ...any) {
	f.lines = append(f.lines, format)
}

func TestDiagnosticLogIsNoOpWithoutLogger(t *testing.T) {
	var d Diagnostic
	d.Log(nil) // must not panic

	l := &fakeLogger{}
	d.Log(l)
	assert.Len(t, l.lines, 1)
}
