package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"workers":     s.cfg.WorkerCount,
		"queue_depth": s.orchestrator.QueueDepth(),
		"queue_size":  s.cfg.MaxQueueSize,
		"stats":       s.orchestrator.Stats().Snapshot(),
	})
}
