package llm

import (
	"encoding/json"

	"github.com/abhisek/quizgen/internal/schema"
)

// validateResponse checks structured output against s. A nil schema
// accepts anything.
func validateResponse(s *Schema, raw json.RawMessage) error {
	if s == nil {
		return nil
	}
	if err := schema.ValidateJSON("llm-"+s.Name, s.Definition, raw); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	return nil
}
