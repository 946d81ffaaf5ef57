package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"
)

// StoredQuestion is the serialized form of a question for persistence.
// The generated ent/quiz package would shadow internal/quiz, so the
// payload type is declared here.
type StoredQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz holds a generated quiz. Rows are written once and never updated.
type Quiz struct {
	ent.Schema
}

func (Quiz) Mixin() []ent.Mixin {
	return []ent.Mixin{CreatedMixin{}}
}

func (Quiz) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.String("topic").
			NotEmpty().
			Immutable(),
		field.Enum("difficulty").
			Values("Easy", "Medium", "Hard").
			Immutable(),
		field.JSON("questions", []StoredQuestion{}).
			Immutable().
			Comment("Validated questions in display order"),
		field.String("signature").
			Unique().
			Immutable().
			Comment("SHA-256 over topic, difficulty and questions; exact-match dedupe key"),
		field.String("listing_signature").
			Immutable().
			Comment("SHA-256 ignoring explanations; collapses near-duplicates in listings"),
	}
}

func (Quiz) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("results", Result.Type),
	}
}

func (Quiz) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("listing_signature"),
	}
}
