package quiz

import (
	"errors"
	"strings"
)

// MaxTopicLen bounds a sanitized topic, in runes. Short topics keep the
// prompt and cache keys small.
const MaxTopicLen = 60

// ErrInvalidTopic is returned when a topic is too short after sanitizing.
var ErrInvalidTopic = errors.New("please provide a more specific topic")

// SanitizeTopic cleans a user-supplied topic for prompting and caching.
func SanitizeTopic(input string) string {
	return SanitizeTopicLen(input, MaxTopicLen)
}

// SanitizeTopicLen trims the input, strips ASCII control characters and
// angle brackets, collapses whitespace runs to a single space and truncates
// the result to maxLen runes. It never fails and is idempotent.
func SanitizeTopicLen(input string, maxLen int) string {
	s := strings.ToValidUTF8(input, "")
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r <= 0x1F, r == 0x7F:
			return -1
		case r == '<', r == '>':
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	if maxLen >= 0 {
		if runes := []rune(s); len(runes) > maxLen {
			s = string(runes[:maxLen])
		}
	}
	return strings.TrimSpace(s)
}

// IsTopicValid reports whether the sanitized topic has at least two runes.
func IsTopicValid(input string) bool {
	return len([]rune(SanitizeTopic(input))) >= 2
}
