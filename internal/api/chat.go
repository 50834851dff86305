package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/docchat/docchat/internal/rag"
)

// maxChatBody caps the /chat request body size.
const maxChatBody = 1 << 20 // 1 MiB

// Answerer is what the chat endpoint needs from the RAG service.
type Answerer interface {
	Answer(ctx context.Context, question string) (rag.Answer, error)
}

// chatRequest is the /chat request body.
type chatRequest struct {
	Question string `json:"question"`
}

type chatHandler struct {
	service    Answerer
	startupErr error
	logger     *slog.Logger
}

// ask handles POST /chat. It returns the grounded answer with citations,
// or 503 while the service is unavailable because indexing failed at
// startup.
func (h *chatHandler) ask(w http.ResponseWriter, r *http.Request) {
	if h.startupErr != nil || h.service == nil {
		msg := "service unavailable"
		if h.startupErr != nil {
			msg = h.startupErr.Error()
		}
		writeError(w, http.StatusServiceUnavailable, "not_ready", msg, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", h.logger)
		return
	}

	answer, err := h.service.Answer(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "empty_question", "question is required", h.logger)
			return
		}
		h.logger.Error("answering question", "error", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "inference request failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, answer, h.logger)
}
