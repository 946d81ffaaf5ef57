package quiz

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContentSignature identifies a quiz by its exact topic, difficulty and
// questions, explanations included. Two quizzes share a content signature
// only when those fields are identical.
func (q Quiz) ContentSignature() string {
	return digest(struct {
		Topic      string     `json:"topic"`
		Difficulty Difficulty `json:"difficulty"`
		Questions  []Question `json:"questions"`
	}{q.Topic, q.Difficulty, q.Questions}, q)
}

// ListingSignature identifies near-identical quizzes for listings. It
// ignores explanations so a regenerated quiz with reworded explanations
// collapses into the earlier entry.
func (q Quiz) ListingSignature() string {
	type item struct {
		Q    string   `json:"q"`
		A    int      `json:"a"`
		Opts []string `json:"opts"`
	}
	items := make([]item, len(q.Questions))
	for i, qq := range q.Questions {
		items[i] = item{Q: qq.Question, A: qq.AnswerIndex, Opts: qq.Options}
	}
	return digest(struct {
		Topic      string     `json:"topic"`
		Difficulty Difficulty `json:"difficulty"`
		Questions  []item     `json:"questions"`
	}{q.Topic, q.Difficulty, items}, q)
}

func digest(v any, q Quiz) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Only reachable with values json cannot encode; fall back to a
		// coarse key.
		b = []byte(fmt.Sprintf("%s|%s|%d", q.Topic, q.Difficulty, len(q.Questions)))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
