package quiz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuiz() Quiz {
	return Quiz{
		Topic:      "Photosynthesis",
		Difficulty: DifficultyMedium,
		Questions: []Question{
			{
				Question:    "What pigment captures light?",
				Options:     []string{"Chlorophyll", "Hemoglobin", "Melanin", "Keratin"},
				AnswerIndex: 0,
				Explanation: "Chlorophyll absorbs light energy.",
			},
		},
	}
}

func TestValidator_AcceptsValidQuiz(t *testing.T) {
	v := NewValidator(4)
	require.NoError(t, v.Validate(sampleQuiz()))

	q := sampleQuiz()
	q.Questions[0].Explanation = ""
	assert.NoError(t, v.Validate(q), "explanation is optional")
}

func TestValidator_RejectsBadAnswerIndexAndShortOptions(t *testing.T) {
	v := NewValidator(4)

	badIndex := sampleQuiz()
	badIndex.Questions[0].AnswerIndex = 4
	err := v.Validate(badIndex)
	require.Error(t, err)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)

	shortOptions := sampleQuiz()
	shortOptions.Questions = append(shortOptions.Questions, Question{
		Question:    "Which gas is released?",
		Options:     []string{"Oxygen", "Nitrogen", "Helium"},
		AnswerIndex: 0,
	})
	err = v.Validate(shortOptions)
	require.Error(t, err)
	assert.True(t, errors.As(err, &verr))
}

func TestValidator_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *Quiz)
	}{
		{"empty topic", func(q *Quiz) { q.Topic = "" }},
		{"unknown difficulty", func(q *Quiz) { q.Difficulty = "Extreme" }},
		{"no questions", func(q *Quiz) { q.Questions = nil }},
		{"short question text", func(q *Quiz) { q.Questions[0].Question = "Hi" }},
		{"empty option", func(q *Quiz) { q.Questions[0].Options[2] = "" }},
		{"negative index", func(q *Quiz) { q.Questions[0].AnswerIndex = -1 }},
		{"five options", func(q *Quiz) { q.Questions[0].Options = append(q.Questions[0].Options, "Extra") }},
	}

	v := NewValidator(4)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := sampleQuiz()
			tt.mutate(&q)
			err := v.Validate(q)
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestValidator_ValidateJSON(t *testing.T) {
	v := NewValidator(4)

	ok := `{"topic": "Go", "difficulty": "Easy", "questions": [
		{"question": "Who designed Go?", "options": ["Griesemer, Pike, Thompson", "Ritchie", "Stroustrup", "Gosling"], "answerIndex": 0, "explanation": null}
	]}`
	require.NoError(t, v.ValidateJSON([]byte(ok)))

	missingIndex := `{"topic": "Go", "difficulty": "Easy", "questions": [
		{"question": "Who designed Go?", "options": ["a", "b", "c", "d"]}
	]}`
	var verr *ValidationError
	assert.True(t, errors.As(v.ValidateJSON([]byte(missingIndex)), &verr))

	assert.True(t, errors.As(v.ValidateJSON([]byte(`{"topic": `)), &verr))
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("Hard")
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, d)

	_, err = ParseDifficulty("hard")
	assert.Error(t, err)
}

func TestSignatures(t *testing.T) {
	a := sampleQuiz()
	b := sampleQuiz()
	assert.Equal(t, a.ContentSignature(), b.ContentSignature())
	assert.Equal(t, a.ListingSignature(), b.ListingSignature())

	b.Questions[0].Explanation = "Reworded."
	assert.NotEqual(t, a.ContentSignature(), b.ContentSignature())
	assert.Equal(t, a.ListingSignature(), b.ListingSignature(), "listing signature ignores explanations")

	b.Questions[0].AnswerIndex = 1
	assert.NotEqual(t, a.ListingSignature(), b.ListingSignature())
}
