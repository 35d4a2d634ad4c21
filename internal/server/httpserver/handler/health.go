package handler

import (
	"net/http"
	"time"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.status != nil && !h.status.Ready() {
		h.writeError(w, r, http.StatusServiceUnavailable, "NOT_READY", "server is starting")
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleInfo handles GET /info.
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	var st Status
	if h.status != nil {
		st = h.status.Status()
	}
	h.writeJSON(w, r, http.StatusOK, st)
}
