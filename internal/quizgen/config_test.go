package quizgen

import "testing"

func TestClampQuestions(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		in, want int
	}{
		{-3, 5},
		{0, 5},
		{5, 5},
		{7, 7},
		{10, 10},
		{50, 10},
	}
	for _, tt := range tests {
		if got := cfg.ClampQuestions(tt.in); got != tt.want {
			t.Errorf("ClampQuestions(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
