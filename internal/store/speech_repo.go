package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type speechRepo struct {
	s *Store
}

func (r *speechRepo) SaveSession(ctx context.Context, sess SpeechSession) (string, error) {
	if sess.UserID == "" {
		return "", fmt.Errorf("speech session needs a user")
	}
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	q := r.s.builder().Insert(tableSpeechSessions).
		Columns("id", "user_id", "question", "transcript", "fluency_score", "grammar_score",
			"confidence_score", "filler_count", "wpm", "ai_feedback", "created_at").
		Values(sess.ID, sess.UserID, sess.Question, sess.Transcript, sess.FluencyScore, sess.GrammarScore,
			sess.ConfidenceScore, sess.FillerCount, sess.WPM, sess.Feedback, sess.CreatedAt.UTC())
	if _, err := r.s.exec(ctx, q); err != nil {
		return "", fmt.Errorf("insert speech session: %w", err)
	}
	return sess.ID, nil
}

func (r *speechRepo) ListSessions(ctx context.Context, userID string) ([]SpeechSession, error) {
	b := r.s.builder()
	q := b.Select("id", "question", "transcript", "fluency_score", "grammar_score",
		"confidence_score", "filler_count", "wpm", "ai_feedback", "created_at").
		From(b.Table(tableSpeechSessions)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"))

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list speech sessions: %w", err)
	}
	defer rows.Close()

	var out []SpeechSession
	for rows.Next() {
		var (
			sess                  SpeechSession
			transcript, feedback  sql.NullString
			fl, gr, co, fill, wpm sql.NullInt64
		)
		if err := rows.Scan(&sess.ID, &sess.Question, &transcript, &fl, &gr, &co, &fill, &wpm, &feedback, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan speech session: %w", err)
		}
		sess.UserID = userID
		sess.Transcript = transcript.String
		sess.Feedback = feedback.String
		sess.FluencyScore = int(fl.Int64)
		sess.GrammarScore = int(gr.Int64)
		sess.ConfidenceScore = int(co.Int64)
		sess.FillerCount = int(fill.Int64)
		sess.WPM = int(wpm.Int64)
		out = append(out, sess)
	}
	return out, rows.Err()
}
