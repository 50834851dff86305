package api

import (
	"log/slog"
	"net/http"
)

// healthz is the liveness probe. It answers 200 as long as the process
// serves HTTP, regardless of index state.
func healthz(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

// readyz is the readiness probe. It answers 200 only once the document
// index was built, holds at least one chunk, and the RAG service is able
// to take questions.
func readyz(h *chatHandler, indexSize func() int, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if h.startupErr != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  h.startupErr.Error(),
			}, logger)
			return
		}
		if h.service == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, logger)
			return
		}
		if indexSize != nil && indexSize() == 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  "index is empty",
			}, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, logger)
	}
}
