package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleUpstreamStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "upstream stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"upstream": s.upstream,
		"stats":    s.stats.Snapshot(),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
