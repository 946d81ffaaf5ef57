package quiz

import (
	"reflect"
	"testing"
)

func twoQuestionQuiz() Quiz {
	return Quiz{
		Topic:      "t",
		Difficulty: DifficultyEasy,
		Questions: []Question{
			{Question: "q1", Options: []string{"A", "B", "C", "D"}, AnswerIndex: 0},
			{Question: "q2", Options: []string{"A", "B", "C", "D"}, AnswerIndex: 1},
		},
	}
}

func TestScore_UnansweredIsIncorrect(t *testing.T) {
	res := twoQuestionQuiz().Score([]int{-1, 1})

	if res.Correct != 1 {
		t.Errorf("expected 1 correct, got %d", res.Correct)
	}
	if res.Total != 2 {
		t.Errorf("expected total 2, got %d", res.Total)
	}
	if !reflect.DeepEqual(res.Correctness, []bool{false, true}) {
		t.Errorf("unexpected correctness %v", res.Correctness)
	}
}

func TestScore_AllUnanswered(t *testing.T) {
	q := twoQuestionQuiz()
	res := q.Score([]int{-1, -1})
	if res.Correct != 0 {
		t.Fatalf("expected 0 correct, got %d", res.Correct)
	}
	if res.Total != 2 {
		t.Fatalf("expected total 2, got %d", res.Total)
	}
}

func TestScore_PadsShortAnswers(t *testing.T) {
	res := twoQuestionQuiz().Score([]int{0})
	if !reflect.DeepEqual(res.Correctness, []bool{true, false}) {
		t.Fatalf("unexpected correctness %v", res.Correctness)
	}

	res = twoQuestionQuiz().Score(nil)
	if res.Correct != 0 || len(res.Correctness) != 2 {
		t.Fatalf("nil answers should score 0 of 2, got %+v", res)
	}
}

func TestScore_IgnoresExtraAnswers(t *testing.T) {
	res := twoQuestionQuiz().Score([]int{0, 1, 3, 2})
	if res.Correct != 2 || res.Total != 2 {
		t.Fatalf("expected 2/2, got %d/%d", res.Correct, res.Total)
	}
}

func TestNormalizeAnswers(t *testing.T) {
	tests := []struct {
		name    string
		answers []int
		total   int
		want    []int
	}{
		{"pads", []int{2}, 3, []int{2, -1, -1}},
		{"truncates", []int{0, 1, 2}, 2, []int{0, 1}},
		{"exact", []int{3, -1}, 2, []int{3, -1}},
		{"empty quiz", []int{1}, 0, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAnswers(tt.answers, tt.total)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
