package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"cyclewatch/internal/series"
)

type assetView struct {
	series.AssetSummary
	Latest *StatusView `json:"latest,omitempty"`
}

// handleAssets lists every stored asset with its trend summary.
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "no asset store")
		return
	}
	names, err := s.cfg.Store.Assets(r.Context())
	if err != nil {
		log.Printf("[api] list assets: %v", err)
		writeError(w, http.StatusInternalServerError, "list assets failed")
		return
	}
	out := make([]series.AssetSummary, 0, len(names))
	for _, name := range names {
		points, err := s.cfg.Store.ReadPoints(r.Context(), name)
		if err != nil {
			log.Printf("[api] read %s points: %v", name, err)
			writeError(w, http.StatusInternalServerError, "read points failed")
			return
		}
		out = append(out, series.Summarize(name, points))
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": out})
}

// handleAsset returns one asset's summary and its latest stored composite.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "no asset store")
		return
	}
	name := strings.ToUpper(r.PathValue("asset"))
	points, err := s.cfg.Store.ReadPoints(r.Context(), name)
	if err != nil {
		log.Printf("[api] read %s points: %v", name, err)
		writeError(w, http.StatusInternalServerError, "read points failed")
		return
	}
	if len(points) == 0 {
		writeError(w, http.StatusNotFound, "unknown asset")
		return
	}
	results, err := s.cfg.Store.ReadComposite(r.Context(), name)
	if err != nil {
		log.Printf("[api] read %s composite: %v", name, err)
		writeError(w, http.StatusInternalServerError, "read composite failed")
		return
	}

	v := assetView{AssetSummary: series.Summarize(name, points)}
	if len(results) > 0 {
		latest := NewStatusView(name, results[len(results)-1], time.Time{})
		latest.Source = "store"
		v.Latest = &latest
	}
	writeJSON(w, http.StatusOK, v)
}
