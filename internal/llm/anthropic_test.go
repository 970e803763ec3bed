package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{
		client: &client,
		model:  "claude-sonnet-4-20250514",
	}
}

func TestAnthropicProvider_HappyPath(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "```json\n{\"fluency_score\":72,\"feedback\":\"Good pace.\"}\n```"},
			},
			"model":       "claude-sonnet-4-20250514",
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  50,
				"output_tokens": 30,
			},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	resp, err := p.Generate(context.Background(), Request{
		System:    "You are an interview coach.",
		Messages:  []Message{{Role: RoleUser, Content: "Interview Question: \"Why us?\""}},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 50 {
		t.Fatalf("expected 50 input tokens, got %d", resp.Usage.InputTokens)
	}
	if resp.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}
	if string(resp.Content) != `{"fluency_score":72,"feedback":"Good pace."}` {
		t.Fatalf("fences not stripped: %s", resp.Content)
	}
}

func TestAnthropicProvider_RateLimit(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"type": "error",
			"error": map[string]any{
				"type":    "rate_limit_error",
				"message": "Rate limit exceeded",
			},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
	}
}

func TestAnthropicProvider_ServerError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"type": "error",
			"error": map[string]any{
				"type":    "api_error",
				"message": "Internal server error",
			},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
	}
}

func TestAnthropicProvider_ModelID(t *testing.T) {
	p := &AnthropicProvider{model: "claude-sonnet-4-20250514"}
	if p.ModelID() != "claude-sonnet-4-20250514" {
		t.Fatalf("expected 'claude-sonnet-4-20250514', got %q", p.ModelID())
	}
}

func TestAnthropicModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"claude-sonnet", "claude-sonnet-4-20250514"},
		{"claude-haiku", "claude-haiku-4-5-20251001"},
		{"claude-sonnet-4-20250514", "claude-sonnet-4-20250514"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, anthropicModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestAnthropicProvider_MaxTokensWithSchema(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": `{"name":"Al`}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "max_tokens",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		Schema:    testSchema(),
		MaxTokens: 5,
	})
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}

func anthropicErrorHandler(status int, header http.Header) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for k, v := range header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "error", "message": http.StatusText(status)},
		})
	}
}

func TestAnthropicProvider_RetryAfterHeader(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicErrorHandler(http.StatusTooManyRequests, http.Header{"Retry-After": {"7"}}))
	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})

	var rl *ErrRateLimit
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 7*time.Second, rl.RetryAfter)
	assert.Equal(t, ProviderAnthropic, rl.Provider)
}

func TestAnthropicProvider_BadKeyRejected(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicErrorHandler(http.StatusUnauthorized, nil))
	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})

	var rejected *ErrRequestRejected
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusUnauthorized, rejected.Status)
}

func anthropicReply(stop string, texts ...string) http.HandlerFunc {
	content := []map[string]any{}
	for _, text := range texts {
		content = append(content, map[string]any{"type": "text", "text": text})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     content,
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": stop,
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}
}

func TestAnthropicProvider_JoinsTextBlocks(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicReply("end_turn", `{"fluency_score":72,`, `"feedback":"Good pace."}`))
	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"fluency_score":72,"feedback":"Good pace."}`, string(resp.Content))
}

func TestAnthropicProvider_RefusalAndEmpty(t *testing.T) {
	var inv *ErrInvalidResponse

	p := newTestAnthropicProvider(t, anthropicReply("refusal", "I can't help with that."))
	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
	require.ErrorAs(t, err, &inv)
	assert.Contains(t, err.Error(), "declined")

	p = newTestAnthropicProvider(t, anthropicReply("end_turn"))
	_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
	require.ErrorAs(t, err, &inv)
}

func TestNewAnthropicProvider(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{})
	assert.Error(t, err)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-haiku"})
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5-20251001", p.ModelID())
}
