package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/quizgen/internal/store"
)

func TestWriteEventList(t *testing.T) {
	var out bytes.Buffer
	if err := writeEventList(&out, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No model calls recorded.") {
		t.Errorf("empty list output = %q", out.String())
	}

	out.Reset()
	events := []store.LLMEvent{
		{ID: 7, Timestamp: time.Now(), LLMRequestEventData: store.LLMRequestEventData{
			Purpose: "quiz-gen", Model: "gpt-4o-mini", RequestID: "req-9", InputTokens: 300, OutputTokens: 900, Success: true,
		}},
		{ID: 8, Timestamp: time.Now(), LLMRequestEventData: store.LLMRequestEventData{
			Purpose: "quiz-gen", Model: "gpt-4o-mini", Success: false,
		}},
	}
	if err := writeEventList(&out, events); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "req-9") || !strings.Contains(lines[1], "yes") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if f := strings.Fields(lines[2]); len(f) < 2 || f[len(f)-2] != "no" || f[len(f)-1] != "-" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestWriteEvent(t *testing.T) {
	var out bytes.Buffer
	writeEvent(&out, &store.LLMEvent{ID: 3, Timestamp: time.Now(), LLMRequestEventData: store.LLMRequestEventData{
		Provider:     "openai",
		Model:        "gpt-4o-mini",
		Purpose:      "quiz-gen",
		InputTokens:  2000,
		OutputTokens: 0,
		Success:      false,
		ErrorMessage: "rate limited",
		RequestBody:  "[user]\nCreate a quiz about owls.\n\n",
	}})

	got := squash(out.String())
	for _, want := range []string{
		"Request: -",
		"Cost: $0.0003",
		"Status: failed: rate limited",
		"== PROMPT == [user] Create a quiz about owls. == REPLY == (empty)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestWriteUsage(t *testing.T) {
	var out bytes.Buffer
	writeUsage(&out,
		[]store.LLMUsage{{Purpose: "quiz-gen", Calls: 4, InputTokens: 4000, OutputTokens: 4000}},
		[]store.LLMUsage{
			{Model: "gpt-4o-mini", Calls: 3, InputTokens: 4000, OutputTokens: 1000},
			{Model: "local-llama", Calls: 1, InputTokens: 1000, OutputTokens: 1000},
		},
	)

	got := squash(out.String())
	for _, want := range []string{"quiz-gen 4 4000 4000", "gpt-4o-mini 3 $0.0012", "total (partial) $0.0012", "No pricing for: local-llama"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

// squash collapses runs of whitespace so assertions ignore column padding.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
