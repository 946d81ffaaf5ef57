package quiz

import (
	"fmt"

	"github.com/abhisek/quizgen/internal/schema"
)

// ValidationError reports a quiz that does not satisfy the quiz schema.
// It is a client-side problem, distinct from generation or runtime
// failures.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid quiz: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validator checks quizzes against the structural quiz schema.
type Validator struct {
	name       string
	definition map[string]any
}

// NewValidator returns a Validator requiring exactly optionsPerQuestion
// options per question.
func NewValidator(optionsPerQuestion int) *Validator {
	if optionsPerQuestion <= 0 {
		optionsPerQuestion = DefaultOptionsPerQuestion
	}
	return &Validator{
		name:       fmt.Sprintf("quiz-%d-options", optionsPerQuestion),
		definition: Definition(optionsPerQuestion),
	}
}

// Validate returns a *ValidationError when q breaks the schema.
func (v *Validator) Validate(q Quiz) error {
	payload := struct {
		Topic      string     `json:"topic"`
		Difficulty Difficulty `json:"difficulty"`
		Questions  []Question `json:"questions"`
	}{q.Topic, q.Difficulty, q.Questions}

	if err := schema.ValidateValue(v.name, v.definition, payload); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// ValidateJSON checks a raw quiz payload, as posted by a client, before it
// is decoded. Fields that decoding would silently default (a missing
// answerIndex, say) are caught here.
func (v *Validator) ValidateJSON(raw []byte) error {
	if err := schema.ValidateJSON(v.name, v.definition, raw); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// Definition returns the JSON Schema for a quiz payload with n options per
// question.
func Definition(n int) map[string]any {
	difficulties := make([]any, len(Difficulties))
	for i, d := range Difficulties {
		difficulties[i] = string(d)
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": difficulties,
			},
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    questionDefinition(n),
			},
		},
		"required": []any{"topic", "difficulty", "questions"},
	}
}

func questionDefinition(n int) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":      "string",
				"minLength": 3,
			},
			"options": map[string]any{
				"type":     "array",
				"minItems": n,
				"maxItems": n,
				"items": map[string]any{
					"type":      "string",
					"minLength": 1,
				},
			},
			"answerIndex": map[string]any{
				"type":    "integer",
				"minimum": 0,
				"maximum": n - 1,
			},
			"explanation": map[string]any{
				"type": []any{"string", "null"},
			},
		},
		"required": []any{"question", "options", "answerIndex"},
	}
}
