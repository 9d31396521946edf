package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/scrypster/continuity/internal/engine"
)

type checkpointRequest struct {
	SessionID       string `json:"session_id"`
	ProjectID       string `json:"project_id"`
	ClaudeSessionID string `json:"claude_session_id,omitempty"`
	Trigger         string `json:"trigger"`
	CWD             string `json:"cwd,omitempty"`
	// Transcript is additive to spec §6's checkpoint body: the hook adapter
	// (out of scope per spec §1) is the only component that can read the
	// assistant's own conversation history, so it attaches it here rather
	// than the core fetching it from cwd itself.
	Transcript string `json:"transcript,omitempty"`
}

type checkpointResponse struct {
	Accepted bool `json:"accepted"`
}

// handleCheckpoint implements POST /memory/checkpoint (spec §6): returns
// 202 immediately while curation and management run to completion in the
// background (spec §5's fire-and-forget checkpoint).
func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req checkpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "VALIDATION")
		return
	}
	if req.SessionID == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "session_id and project_id are required", "VALIDATION")
		return
	}

	trigger := engine.TriggerSessionEnd
	switch req.Trigger {
	case string(engine.TriggerPreCompact):
		trigger = engine.TriggerPreCompact
	case string(engine.TriggerManual):
		trigger = engine.TriggerManual
	}

	// Detached from r.Context(): the handler returns before curation
	// finishes, so the job must not be canceled when the response is sent.
	ctx, cancel := context.WithTimeout(context.Background(), checkpointDeadline)
	go func() {
		defer cancel()
		_ = s.eng.TriggerCuration(ctx, req.SessionID, req.ProjectID, req.Transcript, trigger)
		s.eng.EndSession(req.ProjectID, req.SessionID)
	}()

	writeJSON(w, http.StatusAccepted, checkpointResponse{Accepted: true})
}
