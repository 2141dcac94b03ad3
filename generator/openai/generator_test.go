package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/w-h-a/gameqa/generator"
)

func TestGenerateSendsSystemThenUser(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  Portal  "}}]}`))
	}))
	defer srv.Close()

	g := NewGenerator(
		generator.WithApiKey("test"),
		generator.WithModel("gpt-4o"),
		generator.WithBaseURL(srv.URL+"/v1"),
		generator.WithSystemPrompt("You are a helpful assistant knowledgeable about video games."),
		generator.WithMaxTokens(16),
		generator.WithHTTPClient(srv.Client()),
	)

	out, err := g.Generate(context.Background(), "Question: best puzzle game?")
	require.NoError(t, err)
	require.Equal(t, "  Portal  ", out)

	require.Equal(t, "gpt-4o", got.Model)
	require.Equal(t, 16, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "system", got.Messages[0].Role)
	require.Equal(t, "user", got.Messages[1].Role)
	require.Equal(t, "Question: best puzzle game?", got.Messages[1].Content)
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g := NewGenerator(
		generator.WithBaseURL(srv.URL+"/v1"),
		generator.WithHTTPClient(srv.Client()),
	)

	_, err := g.Generate(context.Background(), "hi")
	require.Error(t, err)
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	g := NewGenerator(
		generator.WithBaseURL(srv.URL+"/v1"),
		generator.WithHTTPClient(srv.Client()),
	)

	_, err := g.Generate(context.Background(), "hi")
	require.Error(t, err)
}
