package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/abhisek/placeprep/internal/store"
)

type recordingSink struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (s *recordingSink) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, data)
	return s.err
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"name":"Asha","age":21}`),
		Usage:   Usage{InputTokens: 120, OutputTokens: 40, TotalTokens: 160},
	})
	sink := &recordingSink{}
	p := WithLogging(mock, "gemini", sink)

	ctx := WithPurpose(context.Background(), "speech-analysis")
	_, err := p.Generate(ctx, Request{
		System:   "coach",
		Messages: []Message{{Role: RoleUser, Content: "Candidate's Response"}},
		Schema:   testSchema(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	e := sink.events[0]
	if e.Provider != "gemini" || e.Model != "mock" || e.Purpose != "speech-analysis" {
		t.Errorf("unexpected identity fields: %+v", e)
	}
	if !e.Success || e.InputTokens != 120 || e.OutputTokens != 40 {
		t.Errorf("unexpected usage fields: %+v", e)
	}
	for _, want := range []string{"[system]\ncoach", "[user]\nCandidate's Response", "[schema: test-object]"} {
		if !strings.Contains(e.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, e.RequestBody)
		}
	}
	if e.ResponseBody != `{"name":"Asha","age":21}` {
		t.Errorf("response body = %q", e.ResponseBody)
	}
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}})
	sink := &recordingSink{}
	p := WithLogging(mock, "openai", sink)

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(sink.events) != 1 || sink.events[0].Success || sink.events[0].ErrorMessage == "" {
		t.Fatalf("unexpected events: %+v", sink.events)
	}
	if sink.events[0].Purpose != "unknown" {
		t.Errorf("purpose = %q, want unknown", sink.events[0].Purpose)
	}
}

func TestLoggingProvider_SinkErrorDoesNotFailRequest(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	p := WithLogging(mock, "mock", &recordingSink{err: errors.New("disk full")})

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("sink error leaked into response: %v", err)
	}
}
