package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CodingSubmission is a user's answer to a coding problem.
type CodingSubmission struct {
	ent.Schema
}

func (CodingSubmission) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			NotEmpty().
			Immutable(),
		field.String("user_id").
			NotEmpty(),
		field.String("problem_id").
			NotEmpty(),
		field.Text("code").
			Default(""),
		field.String("language").
			Default("python"),
		field.String("status").
			Default("pending").
			Comment("accepted, wrong_answer, pending"),
		field.Int("score").
			Optional().
			Nillable(),
		field.Time("submitted_at").
			Default(time.Now).
			Immutable(),
	}
}

func (CodingSubmission) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "status"),
	}
}
