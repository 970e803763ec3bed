package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TestAttempt is one user's run through a Test. It is created when the
// session starts and completed by the single final update.
type TestAttempt struct {
	ent.Schema
}

func (TestAttempt) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			NotEmpty().
			Immutable(),
		field.String("test_id").
			NotEmpty(),
		field.String("user_id").
			NotEmpty(),
		field.Int("total_questions"),
		field.Time("started_at").
			Default(time.Now).
			Immutable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.Int("score").
			Optional().
			Nillable(),
		field.JSON("answers", []*int{}).
			Optional().
			Comment("Selected option per question, null when skipped"),
	}
}

func (TestAttempt) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
		index.Fields("test_id"),
	}
}
