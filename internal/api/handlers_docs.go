package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dgallion1/docnest/internal/diag"
	"github.com/dgallion1/docnest/internal/pipeline"
	"github.com/dgallion1/docnest/internal/render"
	"github.com/go-chi/chi/v5"
)

// warningsHeader carries the warning count on non-JSON responses.
const warningsHeader = "X-Docnest-Warnings"

// handleIngestResult returns the nested tree of a completed job in the
// requested format.
func (s *Server) handleIngestResult(w http.ResponseWriter, r *http.Request) {
	format, ok := s.requestFormat(w, r)
	if !ok {
		return
	}

	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
	case pipeline.StatusFailed:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"job_id": snap.ID,
			"status": snap.Status,
			"phase":  snap.Phase,
			"errors": snap.Progress.Errors,
		})
		return
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"job_id": snap.ID,
			"status": snap.Status,
			"error":  "job has not finished",
		})
		return
	}

	tree, warnings := job.Result()
	if warnings == nil {
		warnings = []diag.Warning{}
	}

	if format == render.FormatJSON {
		w.Header().Set("Content-Type", format.ContentType())
		json.NewEncoder(w).Encode(map[string]any{
			"job_id":   snap.ID,
			"doc_id":   snap.DocID,
			"tree":     tree,
			"warnings": warnings,
		})
		return
	}

	// Render into a buffer so a failure can still produce a clean error.
	var buf bytes.Buffer
	if err := render.Tree(&buf, tree, format); err != nil {
		s.log.Error("render failed", "job_id", snap.ID, "format", format, "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set(warningsHeader, strconv.Itoa(len(warnings)))
	w.Write(buf.Bytes())
}

// requestFormat reads ?format=, falling back to the configured default. It
// writes a 400 and returns false for unknown formats.
func (s *Server) requestFormat(w http.ResponseWriter, r *http.Request) (render.Format, bool) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = s.cfg.DefaultFormat
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return format, true
}
