package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/schema"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// generateRequest is the body of POST /api/generate-quiz. Pointer fields
// distinguish absent values from zero values.
type generateRequest struct {
	Topic        string          `json:"topic"`
	Difficulty   quiz.Difficulty `json:"difficulty"`
	UseRetrieval *bool           `json:"useRetrieval"`
	NumQuestions *int            `json:"numQuestions"`
	ForceFresh   bool            `json:"forceFresh"`
}

func generateRequestSchema() map[string]any {
	difficulties := make([]any, len(quiz.Difficulties))
	for i, d := range quiz.Difficulties {
		difficulties[i] = string(d)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":        map[string]any{"type": "string", "minLength": 2},
			"difficulty":   map[string]any{"type": "string", "enum": difficulties},
			"useRetrieval": map[string]any{"type": "boolean"},
			"numQuestions": map[string]any{"type": "integer"},
			"forceFresh":   map[string]any{"type": "boolean"},
		},
		"required": []any{"topic"},
	}
}

// resultRequest is the body of POST /api/results.
type resultRequest struct {
	QuizID  string `json:"quizId"`
	Answers []int  `json:"answers"`
}

func resultRequestSchema(options int) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"quizId": map[string]any{"type": "string"},
			"answers": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":    "integer",
					"minimum": quiz.Unanswered,
					"maximum": options - 1,
				},
			},
		},
		"required": []any{"quizId", "answers"},
	}
}

// readBody reads the request body, bounded by maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &requestError{msg: "Invalid request", err: err}
	}
	return raw, nil
}

// decodeValidated checks raw against the named schema and decodes it into
// dst. Failures are *requestError.
func decodeValidated(name string, def map[string]any, raw []byte, dst any, msg string) error {
	if err := schema.ValidateJSON(name, def, raw); err != nil {
		return &requestError{msg: msg, err: err}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &requestError{msg: msg, err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
