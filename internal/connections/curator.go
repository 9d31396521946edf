package connections

import (
	"context"

	"github.com/scrypster/continuity/pkg/types"
)

// CuratorRequest is what the core hands the external curator agent: the raw
// conversation transcript plus the project it belongs to (spec §6: "External
// agent contracts... Curator: receives conversation transcript + project id").
type CuratorRequest struct {
	Transcript string
	ProjectID  string
	SessionID  string
}

// CurationResult is what the curator returns. The core trusts the shape but
// re-applies pkg/types.ApplyDefaults and canonicalizes enums before
// persisting anything (spec §6: "The core trusts the shape but re-applies
// defaults and validates enums").
type CurationResult struct {
	Memories       []*types.Memory
	SessionSummary *types.SessionSummary
	ProjectSnapshot *types.ProjectSnapshot
}

// Curator is the external, prompted-LLM agent that performs extraction. It
// is opaque to the core — only this interface is in scope (spec §1's
// explicit non-goal: "curator/management LLM agents (specified only by
// interface)").
type Curator interface {
	Curate(ctx context.Context, req CuratorRequest) (*CurationResult, error)
}
