package quizgen

import (
	"strings"
	"testing"

	"github.com/abhisek/quizgen/internal/quiz"
)

func TestBuildPrompt_Basic(t *testing.T) {
	p := BuildPrompt("Mercury (planet)", quiz.DifficultyHard, "", 7, 4)

	wants := []string{
		`Create exactly 7 multiple-choice questions about the exact topic/sense: "Mercury (planet)" at Hard difficulty.`,
		`"options": array of 4 strings, "answerIndex": 0-3`,
		`"chosenTitle": string`,
		"Never mix senses.",
	}
	for _, w := range wants {
		if !strings.Contains(p, w) {
			t.Errorf("prompt missing %q", w)
		}
	}
	if strings.Contains(p, "CONTEXT:") {
		t.Error("prompt should not carry a context block without context")
	}
}

func TestBuildPrompt_WithContext(t *testing.T) {
	p := BuildPrompt("Mercury", quiz.DifficultyEasy, "Mercury is the first planet.", 5, 4)

	if !strings.Contains(p, "CONTEXT:\nMercury is the first planet.\n\n") {
		t.Errorf("context block not embedded:\n%s", p)
	}
	if strings.Index(p, "CONTEXT:") > strings.Index(p, "Rules:") {
		t.Error("context should precede the rules")
	}
}

func TestBuildPrompt_EscapesQuotes(t *testing.T) {
	p := BuildPrompt(`The "Beatles"`, quiz.DifficultyMedium, "", 5, 4)
	if !strings.Contains(p, `"The \"Beatles\""`) {
		t.Errorf("quotes not escaped:\n%s", p)
	}
}

func TestBuildPrompt_OptionCount(t *testing.T) {
	p := BuildPrompt("Go", quiz.DifficultyMedium, "", 5, 3)
	if !strings.Contains(p, `array of 3 strings, "answerIndex": 0-2`) {
		t.Errorf("option count not reflected:\n%s", p)
	}
}
