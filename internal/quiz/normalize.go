package quiz

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// NormalizeQuestions coerces loosely shaped model output into strict
// questions. input is either the questions array itself or an object
// carrying it under "questions". Items with empty question text, an options
// array of the wrong length or an out-of-range answerIndex are dropped, not
// repaired. Order of surviving items is preserved.
func NormalizeQuestions(input gjson.Result, optionsPerQuestion int) []Question {
	if optionsPerQuestion <= 0 {
		optionsPerQuestion = DefaultOptionsPerQuestion
	}
	if qs := input.Get("questions"); input.IsObject() && qs.IsArray() {
		input = qs
	}
	if !input.IsArray() {
		return nil
	}

	var out []Question
	input.ForEach(func(_, item gjson.Result) bool {
		if q, ok := normalizeQuestion(item, optionsPerQuestion); ok {
			out = append(out, q)
		}
		return true
	})
	return out
}

func normalizeQuestion(item gjson.Result, n int) (Question, bool) {
	text := item.Get("question")
	if text.Type != gjson.String {
		return Question{}, false
	}
	question := strings.TrimSpace(text.Str)
	if question == "" {
		return Question{}, false
	}

	rawOpts := item.Get("options")
	if !rawOpts.IsArray() {
		return Question{}, false
	}
	var options []string
	rawOpts.ForEach(func(_, o gjson.Result) bool {
		options = append(options, strings.TrimSpace(o.String()))
		return true
	})
	if len(options) != n {
		return Question{}, false
	}

	idx, ok := integer(item.Get("answerIndex"))
	if !ok || idx < 0 || idx >= n {
		return Question{}, false
	}

	q := Question{
		Question:    question,
		Options:     options,
		AnswerIndex: idx,
	}
	if exp := item.Get("explanation"); exp.Type == gjson.String {
		q.Explanation = exp.Str
	}
	return q, true
}

// integer reports the value of r when it is a JSON number with no
// fractional part.
func integer(r gjson.Result) (int, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	if r.Num != math.Trunc(r.Num) || math.IsInf(r.Num, 0) {
		return 0, false
	}
	if r.Num > math.MaxInt32 || r.Num < math.MinInt32 {
		return 0, false
	}
	return int(r.Num), true
}
