package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/w-h-a/gameqa"
	"github.com/w-h-a/gameqa/internal/service/agent"
)

type stubAssistant struct {
	err      error
	asked    int
	sessions []string
}

func (s *stubAssistant) Ask(ctx context.Context, sessionId string, query string) (gameqa.Reply, error) {
	s.asked++
	if s.err != nil {
		return gameqa.Reply{}, s.err
	}
	if len(strings.TrimSpace(query)) == 0 || len(strings.TrimSpace(sessionId)) == 0 {
		return gameqa.Reply{}, fmt.Errorf("%w: query is required", gameqa.ErrInvalidRequest)
	}
	s.sessions = append(s.sessions, sessionId)
	return gameqa.Reply{
		Result:     "answer to " + query,
		ChatMemory: []gameqa.Turn{{User: query, Bot: "answer to " + query}},
	}, nil
}

func (s *stubAssistant) Sessions() []string {
	return s.sessions
}

func (s *stubAssistant) Records(ctx context.Context) (int, error) {
	return 42, nil
}

func post(t *testing.T, h *answerHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/answer_query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandleAnswers(t *testing.T) {
	h := NewHandler(&stubAssistant{})

	rec := post(t, h, `{"query":"best puzzle game?","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{
		"result": "answer to best puzzle game?",
		"chat_memory": [{"user": "best puzzle game?", "bot": "answer to best puzzle game?"}]
	}`, rec.Body.String())
}

func TestHandleRejectsEmptyQuery(t *testing.T) {
	stub := &stubAssistant{}
	h := NewHandler(stub)

	rec := post(t, h, `{"query":"","session_id":"s1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, stub.Sessions())

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body["error"], "query is required")
}

func TestHandleRejectsMalformedJSON(t *testing.T) {
	stub := &stubAssistant{}
	h := NewHandler(stub)

	rec := post(t, h, `{"query":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 0, stub.asked)
}

func TestHandleMapsErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"embedding", agent.ErrEmbeddingUnavailable, http.StatusBadGateway},
		{"generation", fmt.Errorf("%w: %w", agent.ErrGenerationFailure, errors.New("429")), http.StatusBadGateway},
		{"retrieval", agent.ErrRetrievalFailure, http.StatusInternalServerError},
		{"deadline", context.DeadlineExceeded, http.StatusInternalServerError},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubAssistant{err: tt.err})
			rec := post(t, h, `{"query":"q","session_id":"s1"}`)
			require.Equal(t, tt.status, rec.Code)
			require.NotContains(t, rec.Body.String(), "boom")
		})
	}
}

func TestHealth(t *testing.T) {
	h := NewHandler(&stubAssistant{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","records":42}`, rec.Body.String())
}

func TestSessions(t *testing.T) {
	h := NewHandler(&stubAssistant{sessions: []string{"a", "b"}})

	rec := httptest.NewRecorder()
	h.Sessions(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"sessions":["a","b"]}`, rec.Body.String())
}
