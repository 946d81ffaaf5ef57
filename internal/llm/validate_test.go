package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateResponse(t *testing.T) {
	question := &Schema{
		Name: "question",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"question", "options", "answerIndex"},
			"properties": map[string]any{
				"question":    map[string]any{"type": "string", "minLength": 1},
				"options":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 2},
				"answerIndex": map[string]any{"type": "integer", "minimum": 0},
				"explanation": map[string]any{"type": "string"},
			},
		},
	}

	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"complete", `{"question":"Deepest ocean trench?","options":["Mariana","Tonga"],"answerIndex":0,"explanation":"About 11km."}`, true},
		{"no explanation", `{"question":"Deepest ocean trench?","options":["Mariana","Tonga"],"answerIndex":0}`, true},
		{"missing options", `{"question":"Deepest ocean trench?","answerIndex":0}`, false},
		{"index as string", `{"question":"q","options":["a","b"],"answerIndex":"0"}`, false},
		{"negative index", `{"question":"q","options":["a","b"],"answerIndex":-1}`, false},
		{"one option", `{"question":"q","options":["a"],"answerIndex":0}`, false},
		{"not json", `Here is your quiz!`, false},
		{"empty", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(question, json.RawMessage(tt.raw))
			if tt.valid {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var invalid *ErrInvalidResponse
			if !errors.As(err, &invalid) {
				t.Fatalf("err = %v, want *ErrInvalidResponse", err)
			}
			if string(invalid.Content) != tt.raw {
				t.Errorf("Content = %q, want the raw reply", invalid.Content)
			}
		})
	}
}

func TestValidateResponse_NoSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not even json`)); err != nil {
		t.Fatalf("nil schema should accept anything, got %v", err)
	}
}
