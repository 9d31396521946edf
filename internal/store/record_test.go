package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scrypster/continuity/pkg/types"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := &types.Memory{
		ID:               "mem-1",
		ProjectID:        "proj-1",
		Headline:         "fixed the flaky test",
		Content:          "The retry loop masked a real race in the scheduler.\n",
		ImportanceWeight: 0.75,
		ContextType:      types.ContextDebug,
		Scope:            types.ScopeProject,
		TemporalClass:    types.TemporalShortTerm,
		Status:           types.StatusActive,
		SemanticTags:     []string{"scheduler", "race"},
		Embedding:        make([]float32, types.EmbeddingDimension),
		CreatedAt:        time.Now().Truncate(time.Second),
		UpdatedAt:        time.Now().Truncate(time.Second),
	}

	raw, err := EncodeMemory(m)
	require.NoError(t, err)

	got, err := DecodeMemory(raw)
	require.NoError(t, err)

	require.Equal(t, m.ID, got.ID)
	require.Equal(t, m.Headline, got.Headline)
	require.Equal(t, m.Content, got.Content)
	require.Equal(t, m.ContextType, got.ContextType)
	require.Equal(t, m.SemanticTags, got.SemanticTags)
	require.Len(t, got.Embedding, types.EmbeddingDimension)
}

func TestDecodeMemoryMissingDelimiters(t *testing.T) {
	_, err := DecodeMemory([]byte("just some text, no frontmatter"))
	require.Error(t, err)
}

func TestSessionSummaryRoundTrip(t *testing.T) {
	s := &types.SessionSummary{
		ID:        "sum-1",
		ProjectID: "proj-1",
		SessionID: "sess-1",
		Summary:   "Implemented the retrieval gate and wired six signals.\n",
		CreatedAt: time.Now().Truncate(time.Second),
	}
	raw, err := EncodeSessionSummary(s)
	require.NoError(t, err)

	got, err := DecodeSessionSummary(raw)
	require.NoError(t, err)
	require.Equal(t, s.Summary, got.Summary)
	require.Equal(t, s.SessionID, got.SessionID)
}

func TestPrimerRoundTrip(t *testing.T) {
	p := &types.PersonalPrimer{
		Content:   "# Primer\n\nWorks on this project with Go and sqlite.\n",
		UpdatedAt: time.Now().Truncate(time.Second),
	}
	raw, err := EncodePrimer(p)
	require.NoError(t, err)

	got, err := DecodePrimer(raw)
	require.NoError(t, err)
	require.Equal(t, p.Content, got.Content)
}
