package quizgen

import (
	"errors"
	"regexp"

	"github.com/tidwall/gjson"
)

// ErrUnparseable means the model output held no usable JSON.
var ErrUnparseable = errors.New("model did not return JSON")

// arrayPattern matches the outermost bracketed span, for output that wraps
// a JSON array in prose.
var arrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// parseModelOutput reads text as JSON, falling back to the first-to-last
// bracket span when the whole text does not parse. Empty values (null,
// false, 0, "") count as unparseable.
func parseModelOutput(text string) (gjson.Result, error) {
	if gjson.Valid(text) {
		doc := gjson.Parse(text)
		if isEmptyValue(doc) {
			return gjson.Result{}, ErrUnparseable
		}
		return doc, nil
	}

	if m := arrayPattern.FindString(text); m != "" && gjson.Valid(m) {
		return gjson.Parse(m), nil
	}

	return gjson.Result{}, ErrUnparseable
}

func isEmptyValue(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return r.Num == 0
	case gjson.String:
		return r.Str == ""
	}
	return false
}
