package quizgen

import (
	"time"

	"github.com/abhisek/quizgen/internal/quiz"
)

// Config controls the behavior of the Generator.
type Config struct {
	// MinQuestions and MaxQuestions bound the requested question count.
	// A missing count means MinQuestions.
	MinQuestions int
	MaxQuestions int

	// OptionsPerQuestion is the exact option count every question must
	// carry.
	OptionsPerQuestion int

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// QuizTTL is how long a generated quiz is served from cache.
	QuizTTL time.Duration
}

// DefaultConfig returns a Config with the recommended defaults.
func DefaultConfig() Config {
	return Config{
		MinQuestions:       5,
		MaxQuestions:       10,
		OptionsPerQuestion: quiz.DefaultOptionsPerQuestion,
		MaxTokens:          1200,
		Temperature:        0,
		QuizTTL:            time.Hour,
	}
}

// ClampQuestions bounds n to [MinQuestions, MaxQuestions].
func (c Config) ClampQuestions(n int) int {
	return max(c.MinQuestions, min(c.MaxQuestions, n))
}
