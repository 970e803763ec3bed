package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// StoredQuestion is the persisted shape of one MCQ item.
type StoredQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// Test is a timed MCQ assessment.
type Test struct {
	ent.Schema
}

func (Test) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			NotEmpty().
			Immutable(),
		field.String("title").
			NotEmpty(),
		field.String("description").
			Default(""),
		field.String("type").
			Default("").
			Comment("aptitude, verbal, technical"),
		field.String("difficulty").
			Default("easy"),
		field.Int("time_limit").
			Positive().
			Comment("Minutes"),
		field.JSON("questions", []StoredQuestion{}),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (Test) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("type"),
	}
}
