package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TestCase is one input/expected pair of a coding problem.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// CodingProblem is a catalog entry for coding practice.
type CodingProblem struct {
	ent.Schema
}

func (CodingProblem) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			NotEmpty().
			Immutable(),
		field.String("title").
			NotEmpty(),
		field.String("description").
			Default(""),
		field.String("topic").
			Default(""),
		field.String("difficulty").
			Default("easy"),
		field.JSON("test_cases", []TestCase{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (CodingProblem) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("topic"),
	}
}
