package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
)

type processRequest struct {
	SessionID string `json:"session_id"`
	ProjectID string `json:"project_id"`
}

type processResponse struct {
	MessageCount int `json:"message_count"`
}

// handleProcess implements POST /memory/process (spec §6).
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "VALIDATION")
		return
	}
	if req.SessionID == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "session_id and project_id are required", "VALIDATION")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), processDeadline)
	defer cancel()

	if err := s.eng.ProcessMessage(ctx, req.SessionID, req.ProjectID); err != nil {
		writeInternalError(w, err)
		return
	}

	pdb, err := s.st.Open(ctx, req.ProjectID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	sess, err := pdb.GetOrCreateSession(ctx, req.SessionID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, processResponse{MessageCount: sess.MessageCount})
}
