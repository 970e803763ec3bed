package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/placeprep/ent/schema"
	"github.com/abhisek/placeprep/internal/readiness"
)

type activityRepo struct {
	s *Store
}

func (r *activityRepo) UpsertProblem(ctx context.Context, p Problem) error {
	if p.ID == "" || p.Title == "" {
		return fmt.Errorf("problem needs an id and a title")
	}
	cases := p.TestCases
	if cases == nil {
		cases = []schema.TestCase{}
	}
	tc, err := json.Marshal(cases)
	if err != nil {
		return fmt.Errorf("encode test cases: %w", err)
	}

	q := r.s.builder().Insert(tableCodingProblems).
		Columns("id", "title", "description", "topic", "difficulty", "test_cases", "created_at").
		Values(p.ID, p.Title, p.Description, p.Topic, p.Difficulty, string(tc), time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range []string{"title", "description", "topic", "difficulty", "test_cases"} {
					u.SetExcluded(c)
				}
			}),
		)
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("upsert problem %s: %w", p.ID, err)
	}
	return nil
}

func (r *activityRepo) RecordSubmission(ctx context.Context, s Submission) (string, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now()
	}
	if s.Language == "" {
		s.Language = "python"
	}
	if s.Status == "" {
		s.Status = "pending"
	}

	var score any
	if s.Score != nil {
		score = *s.Score
	}
	q := r.s.builder().Insert(tableCodingSubmissions).
		Columns("id", "user_id", "problem_id", "code", "language", "status", "score", "submitted_at").
		Values(s.ID, s.UserID, s.ProblemID, s.Code, s.Language, s.Status, score, s.SubmittedAt.UTC())
	if _, err := r.s.exec(ctx, q); err != nil {
		return "", fmt.Errorf("insert submission: %w", err)
	}
	return s.ID, nil
}

func (r *activityRepo) Catalog(ctx context.Context) (readiness.Catalog, error) {
	b := r.s.builder()
	q := b.Select("id", "topic", "difficulty").
		From(b.Table(tableCodingProblems)).
		OrderBy("created_at", "id")

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return readiness.Catalog{}, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var cat readiness.Catalog
	for rows.Next() {
		var p readiness.Problem
		if err := rows.Scan(&p.ID, &p.Topic, &p.Difficulty); err != nil {
			return readiness.Catalog{}, fmt.Errorf("scan problem: %w", err)
		}
		cat.Problems = append(cat.Problems, p)
	}
	return cat, rows.Err()
}

func (r *activityRepo) Snapshot(ctx context.Context, userID string) (readiness.Snapshot, error) {
	var snap readiness.Snapshot

	subs, err := r.submissions(ctx, userID)
	if err != nil {
		return snap, err
	}
	snap.Submissions = subs

	attempts, err := (&attemptRepo{r.s}).completedAttempts(ctx, userID)
	if err != nil {
		return snap, err
	}
	if len(attempts) > 0 {
		types, err := (&testRepo{r.s}).testTypes(ctx)
		if err != nil {
			return snap, err
		}
		for _, a := range attempts {
			score := 0
			if a.Score != nil {
				score = *a.Score
			}
			snap.Attempts = append(snap.Attempts, readiness.Attempt{
				TestID:   a.TestID,
				Score:    score,
				TestType: types[a.TestID],
			})
		}
	}

	speech, err := r.speechScores(ctx, userID)
	if err != nil {
		return snap, err
	}
	snap.SpeechSessions = speech
	return snap, nil
}

func (r *activityRepo) submissions(ctx context.Context, userID string) ([]readiness.Submission, error) {
	b := r.s.builder()
	q := b.Select("problem_id", "status").
		From(b.Table(tableCodingSubmissions)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("submitted_at")

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []readiness.Submission
	for rows.Next() {
		var s readiness.Submission
		if err := rows.Scan(&s.ProblemID, &s.Status); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *activityRepo) speechScores(ctx context.Context, userID string) ([]readiness.SpeechSession, error) {
	b := r.s.builder()
	q := b.Select("fluency_score", "grammar_score", "confidence_score").
		From(b.Table(tableSpeechSessions)).
		Where(entsql.EQ("user_id", userID))

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query speech sessions: %w", err)
	}
	defer rows.Close()

	var out []readiness.SpeechSession
	for rows.Next() {
		var f, g, c sql.NullInt64
		if err := rows.Scan(&f, &g, &c); err != nil {
			return nil, fmt.Errorf("scan speech session: %w", err)
		}
		out = append(out, readiness.SpeechSession{
			Fluency:    nullInt(f),
			Grammar:    nullInt(g),
			Confidence: nullInt(c),
		})
	}
	return out, rows.Err()
}
