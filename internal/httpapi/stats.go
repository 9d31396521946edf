package httpapi

import (
	"net/http"
	"time"
)

type statsResponse struct {
	TotalMemories int        `json:"totalMemories"`
	TotalSessions int        `json:"totalSessions"`
	StaleMemories int        `json:"staleMemories"`
	LatestSession *time.Time `json:"latestSession"`
}

// handleStats implements GET /memory/stats?project_id=<id> (spec §6).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required", "VALIDATION")
		return
	}

	ctx := r.Context()
	pdb, err := s.st.Open(ctx, projectID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	memories := pdb.AllMemories(ctx)
	stale := 0
	for _, m := range memories {
		if m.EmbeddingStale {
			stale++
		}
	}

	sessions := pdb.AllSessions(ctx)
	var latest *time.Time
	for _, sess := range sessions {
		if latest == nil || sess.LastActive.After(*latest) {
			t := sess.LastActive
			latest = &t
		}
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalMemories: len(memories),
		TotalSessions: len(sessions),
		StaleMemories: stale,
		LatestSession: latest,
	})
}
