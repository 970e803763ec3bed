package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/abhisek/placeprep/ent/schema"
)

// Table names.
const (
	tableTests             = "tests"
	tableTestAttempts      = "test_attempts"
	tableCodingProblems    = "coding_problems"
	tableCodingSubmissions = "coding_submissions"
	tableSpeechSessions    = "speech_sessions"
	tableLLMRequestEvents  = "llm_request_events"
)

// Tables returns the migration tables derived from the ent schema
// definitions.
func Tables() []*schema.Table {
	return []*schema.Table{
		tableFromSchema(tableTests, entschema.Test{}),
		tableFromSchema(tableTestAttempts, entschema.TestAttempt{}),
		tableFromSchema(tableCodingProblems, entschema.CodingProblem{}),
		tableFromSchema(tableCodingSubmissions, entschema.CodingSubmission{}),
		tableFromSchema(tableSpeechSessions, entschema.SpeechSession{}),
		tableFromSchema(tableLLMRequestEvents, entschema.LLMRequestEvent{}),
	}
}

// tableFromSchema builds a table from the field and index descriptors of
// an ent schema, including its mixins. A schema without an "id" field gets
// an auto-increment integer key.
func tableFromSchema(name string, s ent.Interface) *schema.Table {
	var (
		fields  []ent.Field
		indexes []ent.Index
	)
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, s.Fields()...)
	indexes = append(indexes, s.Indexes()...)

	t := schema.NewTable(name)
	hasID := false
	for _, f := range fields {
		if f.Descriptor().Name == "id" {
			hasID = true
		}
	}
	if !hasID {
		t.AddPrimary(&schema.Column{Name: "id", Type: field.TypeInt, Increment: true})
	}

	for _, f := range fields {
		d := f.Descriptor()
		col := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Unique:   d.Unique,
			Nullable: d.Optional,
			Size:     int64(d.Size),
			Comment:  d.Comment,
		}
		if d.Name == "id" {
			t.AddPrimary(col)
			continue
		}
		t.AddColumn(col)
	}

	for _, idx := range indexes {
		d := idx.Descriptor()
		t.AddIndex(name+"_"+strings.Join(d.Fields, "_"), d.Unique, d.Fields)
	}
	return t
}

func migrate(ctx context.Context, db *sql.DB, dialect string) error {
	drv := entsql.OpenDB(dialect, db)
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	return m.Create(ctx, Tables()...)
}
