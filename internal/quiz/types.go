package quiz

import (
	"fmt"
	"time"
)

// DefaultOptionsPerQuestion is the number of options every generated
// question carries unless configured otherwise.
const DefaultOptionsPerQuestion = 4

// Difficulty is the requested difficulty of a quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists every valid difficulty in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty returns the Difficulty named by s. Matching is exact.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Question is a single multiple-choice question.
type Question struct {
	// Question is the prompt shown to the player.
	Question string `json:"question"`

	// Options holds the answer choices in display order.
	Options []string `json:"options"`

	// AnswerIndex indexes the correct entry in Options.
	AnswerIndex int `json:"answerIndex"`

	// Explanation is optional; empty when the model gave none.
	Explanation string `json:"explanation,omitempty"`
}

// Quiz is a generated set of questions about a topic.
type Quiz struct {
	// ID is empty until the quiz is persisted.
	ID         string     `json:"id,omitempty"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	Questions  []Question `json:"questions"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// Score is the aggregate outcome of answering a quiz.
type Score struct {
	Correct     int    `json:"correct"`
	Total       int    `json:"total"`
	Correctness []bool `json:"-"`
}

// Result is a scored submission for a persisted quiz.
type Result struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	Answers     []int     `json:"answers"`
	Correctness []bool    `json:"correctness"`
	Score       Score     `json:"score"`
	CreatedAt   time.Time `json:"createdAt"`
}
