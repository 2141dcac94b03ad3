package answer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/w-h-a/gameqa"
	"github.com/w-h-a/gameqa/internal/service/agent"
	httpserver "github.com/w-h-a/gameqa/server/http"
)

const maxBody = 1 << 20

type Assistant interface {
	Ask(ctx context.Context, sessionId string, query string) (gameqa.Reply, error)
	Sessions() []string
	Records(ctx context.Context) (int, error)
}

type request struct {
	Query     string `json:"query"`
	SessionId string `json:"session_id"`
}

type answerHandler struct {
	assistant Assistant
}

// Handle serves POST /answer_query.
func (h *answerHandler) Handle(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		httpserver.WriteError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		slog.WarnContext(r.Context(), "rejected request", "kind", "InvalidRequest", "error", err)
		httpserver.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	reply, err := h.assistant.Ask(r.Context(), req.SessionId, req.Query)
	if err != nil {
		status, kind, msg := classify(err)
		slog.ErrorContext(r.Context(), "failed to answer query", "kind", kind, "session", req.SessionId, "error", err)
		httpserver.WriteError(w, status, msg)
		return
	}

	if reply.ChatMemory == nil {
		reply.ChatMemory = []gameqa.Turn{}
	}

	httpserver.WriteJSON(w, http.StatusOK, reply)
}

// Health serves GET /healthz.
func (h *answerHandler) Health(w http.ResponseWriter, r *http.Request) {
	n, err := h.assistant.Records(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to count records", "error", err)
		httpserver.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}

	httpserver.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": n})
}

// Sessions serves GET /sessions.
func (h *answerHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{"sessions": h.assistant.Sessions()})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, gameqa.ErrInvalidRequest):
		return http.StatusBadRequest, "InvalidRequest", err.Error()
	case errors.Is(err, agent.ErrEmbeddingUnavailable):
		return http.StatusBadGateway, "EmbeddingUnavailable", "embedding service unavailable"
	case errors.Is(err, agent.ErrGenerationFailure):
		return http.StatusBadGateway, "GenerationFailure", "answer generation failed"
	case errors.Is(err, agent.ErrRetrievalFailure):
		return http.StatusInternalServerError, "RetrievalFailure", "internal error"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, "Timeout", "internal error"
	default:
		return http.StatusInternalServerError, "Internal", "internal error"
	}
}

func NewHandler(assistant Assistant) *answerHandler {
	if assistant == nil {
		panic("assistant is required")
	}

	return &answerHandler{
		assistant: assistant,
	}
}
