package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scrypster/continuity/internal/connections"
)

type contextRequest struct {
	SessionID       string `json:"session_id"`
	ProjectID       string `json:"project_id"`
	CurrentMessage  string `json:"current_message"`
	ClaudeSessionID string `json:"claude_session_id,omitempty"`
}

type contextResponse struct {
	Primer    string             `json:"primer,omitempty"`
	Memories  []StoredMemoryView `json:"memories"`
	Formatted string             `json:"formatted"`
}

// handleContext implements POST /memory/context (spec §6). The soft
// deadline (default 10s, spec §5) is applied to the request context; on
// expiry the handler falls back to an empty-memories result rather than
// failing the request outright.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "VALIDATION")
		return
	}
	if req.SessionID == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "session_id and project_id are required", "VALIDATION")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), contextDeadline)
	defer cancel()

	payload, err := s.eng.GetContext(ctx, req.SessionID, req.ProjectID, req.CurrentMessage)
	if err != nil {
		if ctx.Err() != nil {
			writeJSON(w, http.StatusOK, contextResponse{Memories: []StoredMemoryView{}, Formatted: ""})
			return
		}
		writeInternalError(w, err)
		return
	}

	resp := contextResponse{Memories: []StoredMemoryView{}}
	if payload.IsPrimer {
		resp.Primer = payload.PrimerText
		resp.Formatted = payload.PrimerText
	} else {
		resp.Memories = storedMemoryViews(payload.Selected)
		resp.Formatted = payload.MemoriesText
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeInternalError maps an error to a 5xx body, unwrapping a connections
// AgentError to surface its Kind in the response (spec §6: "bodies are
// { error: string, kind: string }").
func writeInternalError(w http.ResponseWriter, err error) {
	kind := "INTERNAL"
	var agentErr *connections.AgentError
	if errors.As(err, &agentErr) {
		kind = string(agentErr.Kind)
	}
	writeError(w, http.StatusInternalServerError, err.Error(), kind)
}
