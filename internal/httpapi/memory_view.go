package httpapi

import (
	"github.com/scrypster/continuity/internal/retrieval"
	"github.com/scrypster/continuity/pkg/types"
)

// StoredMemoryView is the structured counterpart to the formatted markdown
// block /memory/context also returns (spec §6): enough of a Memory record
// for a caller to render its own UI without exposing internal-only fields
// like the embedding vector or lifecycle counters.
type StoredMemoryView struct {
	ID               string            `json:"id"`
	Headline         string            `json:"headline"`
	Content          string            `json:"content"`
	ContextType      types.ContextType `json:"context_type"`
	Scope            types.Scope       `json:"scope"`
	ImportanceWeight float64           `json:"importance_weight"`
}

func newStoredMemoryView(m *types.Memory) StoredMemoryView {
	return StoredMemoryView{
		ID:               m.ID,
		Headline:         m.Headline,
		Content:          m.Content,
		ContextType:      m.ContextType,
		Scope:            m.Scope,
		ImportanceWeight: m.ImportanceWeight,
	}
}

func storedMemoryViews(selected []retrieval.Candidate) []StoredMemoryView {
	views := make([]StoredMemoryView, 0, len(selected))
	for _, c := range selected {
		views = append(views, newStoredMemoryView(c.Memory))
	}
	return views
}
