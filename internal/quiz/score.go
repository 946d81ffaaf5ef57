package quiz

// Unanswered marks a question the player skipped.
const Unanswered = -1

// NormalizeAnswers returns answers resized to total entries. Missing
// entries become Unanswered and extra entries are discarded.
func NormalizeAnswers(answers []int, total int) []int {
	out := make([]int, total)
	for i := range out {
		if i < len(answers) {
			out[i] = answers[i]
		} else {
			out[i] = Unanswered
		}
	}
	return out
}

// Score grades answers against the quiz answer key. Unanswered entries
// never match a valid index, so they always count as incorrect.
func (q Quiz) Score(answers []int) Score {
	norm := NormalizeAnswers(answers, len(q.Questions))
	correctness := make([]bool, len(q.Questions))
	correct := 0
	for i, question := range q.Questions {
		if norm[i] == question.AnswerIndex {
			correctness[i] = true
			correct++
		}
	}
	return Score{
		Correct:     correct,
		Total:       len(q.Questions),
		Correctness: correctness,
	}
}
