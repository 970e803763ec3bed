package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/placeprep/ent/schema"
	"github.com/abhisek/placeprep/internal/assessment"
)

type testRepo struct {
	s *Store
}

func (r *testRepo) UpsertTest(ctx context.Context, t Test) error {
	def := t.Definition
	if err := def.Validate(); err != nil {
		return fmt.Errorf("test %s: %w", def.ID, err)
	}
	questions, err := json.Marshal(toStoredQuestions(def.Questions))
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	q := r.s.builder().Insert(tableTests).
		Columns("id", "title", "description", "type", "difficulty", "time_limit", "questions", "created_at").
		Values(def.ID, def.Title, t.Description, def.Type, t.Difficulty, def.TimeLimitMinutes, string(questions), created.UTC()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range []string{"title", "description", "type", "difficulty", "time_limit", "questions"} {
					u.SetExcluded(c)
				}
			}),
		)
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("upsert test %s: %w", def.ID, err)
	}
	return nil
}

func (r *testRepo) GetDefinition(ctx context.Context, id string) (assessment.TestDefinition, error) {
	b := r.s.builder()
	q := b.Select("id", "title", "type", "time_limit", "questions").
		From(b.Table(tableTests)).
		Where(entsql.EQ("id", id))

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return assessment.TestDefinition{}, fmt.Errorf("query test %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return assessment.TestDefinition{}, fmt.Errorf("query test %s: %w", id, err)
		}
		return assessment.TestDefinition{}, fmt.Errorf("%w: %s", ErrTestNotFound, id)
	}

	var (
		def       assessment.TestDefinition
		questions []byte
	)
	if err := rows.Scan(&def.ID, &def.Title, &def.Type, &def.TimeLimitMinutes, &questions); err != nil {
		return assessment.TestDefinition{}, fmt.Errorf("scan test %s: %w", id, err)
	}
	stored, err := decodeQuestions(questions)
	if err != nil {
		return assessment.TestDefinition{}, fmt.Errorf("test %s: %w", id, err)
	}
	def.Questions = fromStoredQuestions(stored)
	return def, nil
}

func (r *testRepo) ListTests(ctx context.Context) ([]TestSummary, error) {
	b := r.s.builder()
	q := b.Select("id", "title", "type", "difficulty", "time_limit", "questions").
		From(b.Table(tableTests)).
		OrderBy("title", "id")

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	var out []TestSummary
	for rows.Next() {
		var (
			t         TestSummary
			questions []byte
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Type, &t.Difficulty, &t.TimeLimitMinutes, &questions); err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		stored, err := decodeQuestions(questions)
		if err != nil {
			return nil, fmt.Errorf("test %s: %w", t.ID, err)
		}
		t.QuestionCount = len(stored)
		out = append(out, t)
	}
	return out, rows.Err()
}

// testTypes returns the type of every test, keyed by id.
func (r *testRepo) testTypes(ctx context.Context) (map[string]string, error) {
	b := r.s.builder()
	rows, err := r.s.query(ctx, b.Select("id", "type").From(b.Table(tableTests)))
	if err != nil {
		return nil, fmt.Errorf("query test types: %w", err)
	}
	defer rows.Close()

	types := make(map[string]string)
	for rows.Next() {
		var id, typ string
		if err := rows.Scan(&id, &typ); err != nil {
			return nil, fmt.Errorf("scan test type: %w", err)
		}
		types[id] = typ
	}
	return types, rows.Err()
}

func decodeQuestions(raw []byte) ([]schema.StoredQuestion, error) {
	var stored []schema.StoredQuestion
	if len(raw) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return stored, nil
}

func toStoredQuestions(qs []assessment.Question) []schema.StoredQuestion {
	out := make([]schema.StoredQuestion, len(qs))
	for i, q := range qs {
		out[i] = schema.StoredQuestion{Question: q.Prompt, Options: q.Options, Answer: q.CorrectIndex}
	}
	return out
}

func fromStoredQuestions(stored []schema.StoredQuestion) []assessment.Question {
	out := make([]assessment.Question, len(stored))
	for i, q := range stored {
		out[i] = assessment.Question{Prompt: q.Question, Options: q.Options, CorrectIndex: q.Answer}
	}
	return out
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
