package llm

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model  string
		in     int
		out    int
		want   string
		exists bool
	}{
		{"gpt-4o-mini", 1_000_000, 1_000_000, "0.75", true},
		{"gemini-3-flash-preview", 2000, 500, "0.0025", true},
		{"google/gemini-3-flash-preview", 2000, 500, "0.0025", true},
		{"claude-haiku-4-5-20251001", 100, 10, "0.00015", true},
		{"unknown-model", 1, 1, "", false},
		{"vendor/unknown-model", 1, 1, "", false},
	}
	for _, tt := range tests {
		c := LookupCost(tt.model)
		if (c != nil) != tt.exists {
			t.Fatalf("LookupCost(%q) exists = %v, want %v", tt.model, c != nil, tt.exists)
		}
		if c == nil {
			continue
		}
		got := c.Cost(tt.in, tt.out)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("%s cost(%d, %d) = %s, want %s", tt.model, tt.in, tt.out, got, tt.want)
		}
	}
}
