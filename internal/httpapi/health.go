package httpapi

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Engine: EngineName})
}
