package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/abhisek/quizgen/internal/quiz"
)

func playTestQuiz() quiz.Quiz {
	return quiz.Quiz{
		Topic:      "Chess",
		Difficulty: quiz.DifficultyEasy,
		Questions: []quiz.Question{
			{Question: "Squares on a board?", Options: []string{"32", "48", "64", "81"}, AnswerIndex: 2},
			{Question: "Moves in an L?", Options: []string{"Bishop", "Knight", "Rook", "King"}, AnswerIndex: 1, Explanation: "The knight jumps."},
			{Question: "Can castle?", Options: []string{"Pawn", "Queen", "King", "Bishop"}, AnswerIndex: 2},
		},
	}
}

func TestPlayQuiz(t *testing.T) {
	var out bytes.Buffer
	answers := playQuiz(playTestQuiz(), strings.NewReader("3\n1\n\n"), &out)

	want := []int{2, 0, quiz.Unanswered}
	for i := range want {
		if answers[i] != want[i] {
			t.Fatalf("answers = %v, want %v", answers, want)
		}
	}

	text := out.String()
	for _, s := range []string{"Question 1/3", "✓ Correct!", "✗ Wrong.", "Answer: Knight", "Explanation: The knight jumps.", "(skipped)"} {
		if !strings.Contains(text, s) {
			t.Errorf("output missing %q", s)
		}
	}
}

func TestPlayQuizInputClosed(t *testing.T) {
	var out bytes.Buffer
	answers := playQuiz(playTestQuiz(), strings.NewReader("9\n"), &out)

	for i, a := range answers {
		if a != quiz.Unanswered {
			t.Errorf("answer %d = %d, want unanswered", i, a)
		}
	}
	if !strings.Contains(out.String(), "(input closed)") {
		t.Error("expected input closed notice")
	}
}
