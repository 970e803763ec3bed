package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SpeechSession stores one analyzed interview answer.
type SpeechSession struct {
	ent.Schema
}

func (SpeechSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			NotEmpty().
			Immutable(),
		field.String("user_id").
			NotEmpty(),
		field.Text("question"),
		field.Text("transcript").
			Optional(),
		field.Int("fluency_score").
			Optional().
			Nillable(),
		field.Int("grammar_score").
			Optional().
			Nillable(),
		field.Int("confidence_score").
			Optional().
			Nillable(),
		field.Int("filler_count").
			Optional().
			Nillable(),
		field.Int("wpm").
			Optional().
			Nillable(),
		field.Text("ai_feedback").
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (SpeechSession) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
	}
}
