package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
	if err.Error() != "mock: provider unavailable: no canned response left" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
	)

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai"},
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "openrouter without key",
			cfg:     Config{Provider: "openrouter"},
			wantErr: true,
		},
		{
			name:    "gemini with key",
			cfg:     Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "g-test"}},
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: "mock"},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMockProvider_ValidatesAgainstSchema(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage("```json\n{\"name\":\"Asha\",\"age\":21}\n```")},
		MockResponse{Content: json.RawMessage(`{"name":"Asha"}`)},
	)

	resp, err := mock.Generate(context.Background(), Request{Schema: testSchema()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"name":"Asha","age":21}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}

	_, err = mock.Generate(context.Background(), Request{Schema: testSchema()})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  \n{\"a\":1}\n  ", `{"a":1}`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripCodeFences(tt.in); got != tt.want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PLACEPREP_LLM_PROVIDER", "openrouter")
	t.Setenv("PLACEPREP_OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("PLACEPREP_LLM_TIMEOUT", "5s")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenRouter || cfg.OpenRouter.APIKey != "sk-or-test" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.OpenRouter.Model != "google/gemini-3-flash-preview" {
		t.Errorf("default model lost: %q", cfg.OpenRouter.Model)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", cfg.Timeout)
	}
}

func TestResolveConfig_Discovers(t *testing.T) {
	t.Setenv("PLACEPREP_LLM_PROVIDER", "")
	t.Setenv("PLACEPREP_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := ResolveConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestResolveConfig_ExplicitProviderMustValidate(t *testing.T) {
	t.Setenv("PLACEPREP_LLM_PROVIDER", "anthropic")
	t.Setenv("PLACEPREP_ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	if _, err := ResolveConfig(); err == nil {
		t.Fatal("expected error for explicit provider without its key")
	}
}

func TestNewProvider_Mock(t *testing.T) {
	sink := &recordingSink{}
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock, Retry: retryConfig(), Timeout: time.Second}, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}

	// Empty mock queue fails fast without retries and is still logged.
	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if len(sink.events) != 1 || sink.events[0].Provider != "mock" || sink.events[0].Success {
		t.Fatalf("unexpected events: %+v", sink.events)
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil); err == nil {
		t.Fatal("expected error")
	}
}
