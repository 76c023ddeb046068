package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dgallion1/docnest/internal/diag"
	"github.com/dgallion1/docnest/internal/doctree"
	"github.com/dgallion1/docnest/internal/parser"
	"github.com/dgallion1/docnest/internal/render"
	"github.com/dgallion1/docnest/internal/subprop"
)

// handleNest nests one posted list of records synchronously. The body is a
// JSON records envelope {"file", "line", "records"} or a bare array.
func (s *Server) handleNest(w http.ResponseWriter, r *http.Request) {
	format, ok := s.requestFormat(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	p := &parser.RecordsParser{Format: parser.FormatJSON}
	recs, err := p.Decode(r.Body)
	if err != nil {
		jsonError(w, "invalid records: "+err.Error(), http.StatusBadRequest)
		return
	}
	if recs.Line <= 0 {
		recs.Line = 1
	}

	bag := diag.NewBag(s.cfg.MaxDiagnostics)
	n := subprop.Nester{
		Sink:              diag.Multi{bag, diag.SlogSink{Log: s.log}},
		WarnMalformedHead: s.cfg.WarnMalformedHead || r.URL.Query().Get("warn_malformed_head") == "true",
	}
	nested := n.Nest(recs.Records, recs.File, recs.Line)
	warnings := bag.Items()

	if format == render.FormatJSON {
		if nested == nil {
			nested = []*doctree.Declaration{}
		}
		w.Header().Set("Content-Type", format.ContentType())
		json.NewEncoder(w).Encode(map[string]any{
			"records":          nested,
			"warnings":         warnings,
			"warnings_dropped": bag.Dropped(),
		})
		return
	}

	var buf bytes.Buffer
	if err := render.Declarations(&buf, nested, format); err != nil {
		s.log.Error("render failed", "format", format, "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set(warningsHeader, strconv.Itoa(len(warnings)+bag.Dropped()))
	w.Write(buf.Bytes())
}
