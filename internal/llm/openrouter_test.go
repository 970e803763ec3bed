package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenRouterProvider(t *testing.T) {
	_, err := NewOpenRouterProvider(OpenRouterConfig{Model: "google/gemini-3-flash-preview"})
	assert.Error(t, err, "an API key is required")

	// Gateway model IDs are not resolved through the OpenAI short names.
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "anthropic/claude-3-haiku"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3-haiku", p.ModelID())
	assert.Equal(t, ProviderOpenRouter, p.name)
}

func newTestOpenRouter(t *testing.T, handler http.HandlerFunc) *OpenRouterProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-3-flash-preview",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return p
}

func TestOpenRouterProvider_SpeechAnalysis(t *testing.T) {
	var got map[string]any
	p := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "gen-1",
			"model": "google/gemini-3-flash-preview",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "```json\n" + goodAnalysis + "\n```"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 210, "completion_tokens": 60, "total_tokens": 270},
		})
	})

	resp, err := p.Generate(context.Background(), Request{
		System:   "You are an interview coach.",
		Messages: []Message{{Role: RoleUser, Content: "Candidate's Response: I led a team of four."}},
		Schema:   analysisSchema(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, goodAnalysis, string(resp.Content))
	assert.Equal(t, 270, resp.Usage.TotalTokens)
	assert.Equal(t, "google/gemini-3-flash-preview", got["model"])

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenRouterProvider_ErrorsNameTheGateway(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   any
	}{
		{"bad key", http.StatusUnauthorized, `{"error":{"message":"No auth credentials found","code":401}}`, &ErrRequestRejected{}},
		{"upstream down", http.StatusBadGateway, `<html>bad gateway</html>`, &ErrProviderUnavailable{}},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","code":429}}`, &ErrRateLimit{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
			require.Error(t, err)
			assert.IsType(t, tt.want, err)
			assert.Contains(t, err.Error(), "openrouter: ")
		})
	}
}
