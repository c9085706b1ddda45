package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	out, err := s.orchestrator.Assemble(r.Context())
	if err != nil {
		s.log.Error("assemble failed", "error", err)
		jsonError(w, "failed to assemble document", http.StatusInternalServerError)
		return
	}
	if out.Empty {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	etag := `"` + out.Stats.ContentHash + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Token-Estimate", strconv.Itoa(out.Stats.Tokens))
	w.Header().Set("X-Degraded-Fragments", strconv.Itoa(out.Stats.Degraded))
	w.Write(out.Data)
}

func (s *Server) handleListFragments(w http.ResponseWriter, r *http.Request) {
	reports, err := s.orchestrator.Inspect(r.Context())
	if err != nil {
		s.log.Error("inspect failed", "error", err)
		jsonError(w, "failed to list fragments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"count":     len(reports),
		"fragments": reports,
	})
}
