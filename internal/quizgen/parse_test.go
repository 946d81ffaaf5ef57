package quizgen

import (
	"errors"
	"testing"
)

func TestParseModelOutput(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
		isArray bool
	}{
		{"object", `{"questions": []}`, false, false},
		{"bare array", `[{"question": "q"}]`, false, true},
		{"array in prose", "Here you go:\n[{\"question\": \"q\"}]\nEnjoy!", false, true},
		{"prose only", "Sorry, I cannot help with that.", true, false},
		{"null", "null", true, false},
		{"false", "false", true, false},
		{"zero", "0", true, false},
		{"empty string", `""`, true, false},
		{"broken array", "see [1, 2", true, false},
		{"empty", "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parseModelOutput(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrUnparseable) {
					t.Fatalf("expected ErrUnparseable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.IsArray() != tt.isArray {
				t.Errorf("IsArray = %v, want %v", doc.IsArray(), tt.isArray)
			}
		})
	}
}
