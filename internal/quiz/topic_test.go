package quiz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTopic(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Photosynthesis", "Photosynthesis"},
		{"trims", "  Mercury (planet)  ", "Mercury (planet)"},
		{"strips angle brackets", "<script>alert</script>", "scriptalert/script"},
		{"strips control chars", "Py\x00th\x07on\x7f", "Python"},
		{"newline and tab removed", "World\nWar\tII", "WorldWarII"},
		{"collapses spaces", "World    War   II", "World War II"},
		{"leading bracket then space", "< Rome", "Rome"},
		{"empty", "", ""},
		{"only junk", " <> \x01 ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTopic(tt.input))
		})
	}
}

func TestSanitizeTopic_Truncates(t *testing.T) {
	long := strings.Repeat("ab ", 40)
	got := SanitizeTopic(long)
	assert.LessOrEqual(t, len([]rune(got)), MaxTopicLen)
	assert.False(t, strings.HasSuffix(got, " "), "truncated topic must be re-trimmed")

	// Multi-byte runes are counted as single characters.
	got = SanitizeTopicLen(strings.Repeat("é", 10), 4)
	assert.Equal(t, "éééé", got)
}

func TestSanitizeTopic_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Photosynthesis",
		"< Rome >",
		" a\x00 b ",
		"x  y",
		"\xff\xfeinvalid utf8",
		strings.Repeat("word ", 30),
		strings.Repeat("a", 59) + " b",
		"<<<>>> spaced    out <tag> ",
	}
	for _, in := range inputs {
		once := SanitizeTopic(in)
		assert.Equal(t, once, SanitizeTopic(once), "input %q", in)
	}
}

func TestIsTopicValid(t *testing.T) {
	assert.True(t, IsTopicValid("Go"))
	assert.True(t, IsTopicValid("  Rust  "))
	assert.False(t, IsTopicValid("a"))
	assert.False(t, IsTopicValid(" <> "))
	assert.False(t, IsTopicValid(""))
}
