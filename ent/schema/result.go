package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
)

// Result is a scored submission for a quiz.
type Result struct {
	ent.Schema
}

func (Result) Mixin() []ent.Mixin {
	return []ent.Mixin{CreatedMixin{}}
}

func (Result) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.UUID("quiz_id", uuid.UUID{}).
			Immutable(),
		field.JSON("answers", []int{}).
			Immutable().
			Comment("Chosen option per question, -1 when unanswered"),
		field.JSON("correctness", []bool{}).
			Immutable(),
		field.Int("correct").
			Immutable(),
		field.Int("total").
			Immutable(),
	}
}

func (Result) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("quiz", Quiz.Type).
			Ref("results").
			Field("quiz_id").
			Unique().
			Required().
			Immutable(),
	}
}
