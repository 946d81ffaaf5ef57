package quiz

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestNormalizeQuestions_FiltersInvalid(t *testing.T) {
	input := gjson.Parse(`[
		{"question": "Valid?", "options": ["A", "B", "C", "D"], "answerIndex": 1},
		{"question": "Too few options", "options": ["A", "B", "C"], "answerIndex": 0},
		{"question": "", "options": ["A", "B", "C", "D"], "answerIndex": 0},
		{"question": "Bad answer index", "options": ["A", "B", "C", "D"], "answerIndex": 5}
	]`)

	out := NormalizeQuestions(input, 4)
	if len(out) != 1 {
		t.Fatalf("expected 1 question, got %d", len(out))
	}
	if out[0].AnswerIndex != 1 {
		t.Errorf("expected answerIndex 1, got %d", out[0].AnswerIndex)
	}
	if out[0].Question != "Valid?" {
		t.Errorf("unexpected question %q", out[0].Question)
	}
}

func TestNormalizeQuestions_NestedObject(t *testing.T) {
	input := gjson.Parse(`{
		"chosenTitle": "Mercury (planet)",
		"questions": [
			{"question": "Closest planet to the Sun?", "options": ["Mercury", "Venus", "Earth", "Mars"], "answerIndex": 0, "explanation": "Mercury orbits closest."}
		]
	}`)

	out := NormalizeQuestions(input, 4)
	if len(out) != 1 {
		t.Fatalf("expected 1 question, got %d", len(out))
	}
	if out[0].Explanation != "Mercury orbits closest." {
		t.Errorf("unexpected explanation %q", out[0].Explanation)
	}
}

func TestNormalizeQuestions_Coercion(t *testing.T) {
	input := gjson.Parse(`[
		{"question": "  Padded?  ", "options": [" a ", 2, null, true], "answerIndex": 3, "explanation": 42}
	]`)

	out := NormalizeQuestions(input, 4)
	if len(out) != 1 {
		t.Fatalf("expected 1 question, got %d", len(out))
	}
	q := out[0]
	if q.Question != "Padded?" {
		t.Errorf("expected trimmed question, got %q", q.Question)
	}
	want := []string{"a", "2", "", "true"}
	for i, o := range q.Options {
		if o != want[i] {
			t.Errorf("option %d: expected %q, got %q", i, want[i], o)
		}
	}
	if q.Explanation != "" {
		t.Errorf("non-string explanation should be dropped, got %q", q.Explanation)
	}
}

func TestNormalizeQuestions_RejectsNonInteger(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"fractional index", `[{"question": "Q?", "options": ["A","B","C","D"], "answerIndex": 1.5}]`},
		{"string index", `[{"question": "Q?", "options": ["A","B","C","D"], "answerIndex": "1"}]`},
		{"negative index", `[{"question": "Q?", "options": ["A","B","C","D"], "answerIndex": -1}]`},
		{"missing index", `[{"question": "Q?", "options": ["A","B","C","D"]}]`},
		{"numeric question", `[{"question": 7, "options": ["A","B","C","D"], "answerIndex": 0}]`},
		{"options not array", `[{"question": "Q?", "options": "A,B,C,D", "answerIndex": 0}]`},
		{"whitespace question", `[{"question": "   ", "options": ["A","B","C","D"], "answerIndex": 0}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := NormalizeQuestions(gjson.Parse(tt.raw), 4); len(out) != 0 {
				t.Fatalf("expected no questions, got %d", len(out))
			}
		})
	}
}

func TestNormalizeQuestions_PreservesOrder(t *testing.T) {
	input := gjson.Parse(`[
		{"question": "First?", "options": ["A","B","C","D"], "answerIndex": 0},
		{"question": "", "options": ["A","B","C","D"], "answerIndex": 0},
		{"question": "Second?", "options": ["A","B","C","D"], "answerIndex": 2.0}
	]`)

	out := NormalizeQuestions(input, 4)
	if len(out) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(out))
	}
	if out[0].Question != "First?" || out[1].Question != "Second?" {
		t.Errorf("order not preserved: %q, %q", out[0].Question, out[1].Question)
	}
	if out[1].AnswerIndex != 2 {
		t.Errorf("expected integral float 2.0 to be accepted, got %d", out[1].AnswerIndex)
	}
}

func TestNormalizeQuestions_NotAnArray(t *testing.T) {
	for _, raw := range []string{`{"foo": 1}`, `"text"`, `42`, `null`, ``} {
		if out := NormalizeQuestions(gjson.Parse(raw), 4); out != nil {
			t.Errorf("input %q: expected nil, got %v", raw, out)
		}
	}
}

func TestNormalizeQuestions_ConfiguredOptionCount(t *testing.T) {
	input := gjson.Parse(`[
		{"question": "Three?", "options": ["A","B","C"], "answerIndex": 2},
		{"question": "Four?", "options": ["A","B","C","D"], "answerIndex": 3}
	]`)

	out := NormalizeQuestions(input, 3)
	if len(out) != 1 || out[0].Question != "Three?" {
		t.Fatalf("expected only the 3-option question, got %+v", out)
	}
}
