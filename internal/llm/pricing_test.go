package llm

import (
	"math"
	"testing"
)

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model     string
		wantInput float64
		found     bool
	}{
		{"gpt-4o-mini", 0.15, true},
		{"gpt-4o-mini-2024-07-18", 0.15, true},
		{"openai/gpt-4o-mini", 0.15, true},
		{"GPT-4o", 2.5, true},
		{"claude-haiku-4-5-20251001", 1, true},
		{"claude-sonnet-4-20250514", 3, true},
		{"claude-3-5-haiku-latest", 0.8, true},
		{"anthropic/claude-3-5-sonnet", 3, true},
		{"gemini-2.5-flash-preview-09-2025", 0.3, true},
		{"mock", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		c := LookupCost(tt.model)
		if (c != nil) != tt.found {
			t.Errorf("LookupCost(%q) found = %v, want %v", tt.model, c != nil, tt.found)
			continue
		}
		if c != nil && c.InputPerMTok != tt.wantInput {
			t.Errorf("LookupCost(%q).InputPerMTok = %v, want %v", tt.model, c.InputPerMTok, tt.wantInput)
		}
	}
}

func TestEstimateCost(t *testing.T) {
	// A typical 10-question quiz on gpt-4o-mini.
	usd, ok := EstimateCost("gpt-4o-mini", Usage{InputTokens: 1000, OutputTokens: 1000})
	if !ok {
		t.Fatal("expected gpt-4o-mini to be priced")
	}
	if want := 0.00075; math.Abs(usd-want) > 1e-12 {
		t.Errorf("cost = %v, want %v", usd, want)
	}

	if _, ok := EstimateCost("mock", Usage{InputTokens: 1}); ok {
		t.Error("mock should have no price")
	}
}
