package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/placeprep/internal/assessment"
)

type attemptRepo struct {
	s *Store
}

func (r *attemptRepo) StartAttempt(ctx context.Context, testID, userID string) (string, error) {
	def, err := r.s.TestRepo().GetDefinition(ctx, testID)
	if err != nil {
		return "", err
	}
	if len(def.Questions) == 0 {
		return "", fmt.Errorf("test %s: %w", testID, assessment.ErrNoQuestions)
	}

	id := uuid.New().String()
	q := r.s.builder().Insert(tableTestAttempts).
		Columns("id", "test_id", "user_id", "total_questions", "started_at").
		Values(id, testID, userID, len(def.Questions), time.Now().UTC())
	if _, err := r.s.exec(ctx, q); err != nil {
		return "", fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}

func (r *attemptRepo) CompleteAttempt(ctx context.Context, u assessment.AttemptUpdate) error {
	answers, err := json.Marshal(u.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	q := r.s.builder().Update(tableTestAttempts).
		Set("completed_at", u.CompletedAt.UTC()).
		Set("score", u.Score).
		Set("answers", string(answers)).
		Where(entsql.And(
			entsql.EQ("id", u.AttemptID),
			entsql.IsNull("completed_at"),
		))
	res, err := r.s.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("complete attempt %s: %w", u.AttemptID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete attempt %s: %w", u.AttemptID, err)
	}
	if n > 0 {
		return nil
	}

	// Nothing updated: either unknown or already completed.
	if _, err := r.GetAttempt(ctx, u.AttemptID); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrAttemptCompleted, u.AttemptID)
}

func (r *attemptRepo) GetAttempt(ctx context.Context, id string) (*Attempt, error) {
	b := r.s.builder()
	q := b.Select("id", "test_id", "user_id", "total_questions", "started_at", "completed_at", "score", "answers").
		From(b.Table(tableTestAttempts)).
		Where(entsql.EQ("id", id))

	query, args := q.Query()
	var (
		a         Attempt
		completed sql.NullTime
		score     sql.NullInt64
		answers   []byte
	)
	err := r.s.db.QueryRowContext(ctx, query, args...).
		Scan(&a.ID, &a.TestID, &a.UserID, &a.TotalQuestions, &a.StartedAt, &completed, &score, &answers)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", ErrAttemptNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt %s: %w", id, err)
	}

	a.CompletedAt = nullTime(completed)
	a.Score = nullInt(score)
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers for %s: %w", id, err)
		}
	}
	return &a, nil
}

// completedAttempts returns userID's completed attempts as (test id, score).
func (r *attemptRepo) completedAttempts(ctx context.Context, userID string) ([]Attempt, error) {
	b := r.s.builder()
	q := b.Select("id", "test_id", "score").
		From(b.Table(tableTestAttempts)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.NotNull("completed_at"),
		)).
		OrderBy("started_at")

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var (
			a     Attempt
			score sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.TestID, &score); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.UserID = userID
		a.Score = nullInt(score)
		out = append(out, a)
	}
	return out, rows.Err()
}
