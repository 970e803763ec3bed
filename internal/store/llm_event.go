package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type eventRepo struct {
	s *Store
}

var llmEventColumns = []string{
	"id", "timestamp", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	q := r.s.builder().Insert(tableLLMRequestEvents).
		Columns(llmEventColumns[1:]...).
		Values(time.Now().UTC(), data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
			data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody)
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	b := r.s.builder()
	q := b.Select(llmEventColumns...).
		From(b.Table(tableLLMRequestEvents)).
		OrderBy(entsql.Desc("id"))

	var preds []*entsql.Predicate
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC()))
	}
	if len(preds) > 0 {
		q.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error) {
	b := r.s.builder()
	q := b.Select(llmEventColumns...).
		From(b.Table(tableLLMRequestEvents)).
		Where(entsql.EQ("id", id))

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanLLMEvent(rows)
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usageBy(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usageBy(ctx, "model")
}

func (r *eventRepo) usageBy(ctx context.Context, column string) ([]LLMUsage, error) {
	b := r.s.builder()
	q := b.Select(
		column,
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		entsql.As(entsql.Sum("latency_ms"), "latency_ms"),
	).
		From(b.Table(tableLLMRequestEvents)).
		GroupBy(column).
		OrderBy(column)

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var (
			u                 LLMUsage
			calls, in, outTok int64
			latency           sql.NullInt64
		)
		if err := rows.Scan(&u.Key, &calls, &in, &outTok, &latency); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.Calls = int(calls)
		u.InputTokens = int(in)
		u.OutputTokens = int(outTok)
		if calls > 0 {
			u.AvgLatencyMs = latency.Int64 / calls
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanLLMEvent(rows *sql.Rows) (*LLMRequestEvent, error) {
	var e LLMRequestEvent
	err := rows.Scan(&e.ID, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose, &e.InputTokens, &e.OutputTokens,
		&e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	if err != nil {
		return nil, fmt.Errorf("scan LLM event: %w", err)
	}
	return &e, nil
}
