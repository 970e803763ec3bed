package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/placeprep/ent/schema"
	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/readiness"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func intp(v int) *int { return &v }

func sampleTest(id, typ string) Test {
	return Test{
		Definition: assessment.TestDefinition{
			ID:               id,
			Title:            "Quant " + id,
			Type:             typ,
			TimeLimitMinutes: 10,
			Questions: []assessment.Question{
				{Prompt: "2+2?", Options: []string{"3", "4"}, CorrectIndex: 1},
				{Prompt: "3*3?", Options: []string{"6", "9", "12"}, CorrectIndex: 1},
			},
		},
		Difficulty: "easy",
	}
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
	if s.Dialect() != "sqlite3" {
		t.Errorf("dialect = %q, want sqlite3", s.Dialect())
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestTablesFromSchema(t *testing.T) {
	tables := Tables()
	if len(tables) != 6 {
		t.Fatalf("got %d tables, want 6", len(tables))
	}
	for _, tbl := range tables {
		if len(tbl.PrimaryKey) != 1 || tbl.PrimaryKey[0].Name != "id" {
			t.Errorf("table %s: primary key not id", tbl.Name)
		}
	}

	events := tables[5]
	if !events.HasColumn("timestamp") {
		t.Error("llm_request_events missing mixin column timestamp")
	}
	id, _ := events.Column("id")
	if !id.Increment {
		t.Error("llm_request_events id should auto-increment")
	}

	attempts := tables[1]
	completed, ok := attempts.Column("completed_at")
	if !ok || !completed.Nullable {
		t.Error("test_attempts.completed_at should be nullable")
	}
}

func TestIsPostgresDSN(t *testing.T) {
	cases := map[string]bool{
		"postgres://u:p@localhost/db":   true,
		"postgresql://localhost/db":     true,
		"/home/me/placeprep.db":         false,
		"file::memory:?cache=shared":    false,
	}
	for dsn, want := range cases {
		if got := IsPostgresDSN(dsn); got != want {
			t.Errorf("IsPostgresDSN(%q) = %v, want %v", dsn, got, want)
		}
	}
}

func TestTestRepo_UpsertAndGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.TestRepo()
	ctx := context.Background()

	if err := repo.UpsertTest(ctx, sampleTest("t1", "aptitude")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	def, err := repo.GetDefinition(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if def.Title != "Quant t1" || def.Type != "aptitude" || def.TimeLimitMinutes != 10 {
		t.Errorf("unexpected definition: %+v", def)
	}
	if len(def.Questions) != 2 || def.Questions[1].CorrectIndex != 1 || def.Questions[1].Options[2] != "12" {
		t.Errorf("questions round-trip mismatch: %+v", def.Questions)
	}

	// Replace keeps a single row.
	updated := sampleTest("t1", "verbal")
	updated.Definition.Title = "Renamed"
	if err := repo.UpsertTest(ctx, updated); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	list, err := repo.ListTests(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Renamed" || list[0].Type != "verbal" || list[0].QuestionCount != 2 {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestTestRepo_RejectsInvalid(t *testing.T) {
	s := openTestStore(t)
	bad := sampleTest("t1", "aptitude")
	bad.Definition.Questions = nil

	err := s.TestRepo().UpsertTest(context.Background(), bad)
	if !errors.Is(err, assessment.ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
}

func TestTestRepo_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.TestRepo().GetDefinition(context.Background(), "missing")
	if !errors.Is(err, ErrTestNotFound) {
		t.Fatalf("err = %v, want ErrTestNotFound", err)
	}
}

func TestAttemptRepo_Lifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.TestRepo().UpsertTest(ctx, sampleTest("t1", "aptitude")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	repo := s.AttemptRepo()

	id, err := repo.StartAttempt(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	a, err := repo.GetAttempt(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.Completed() || a.TotalQuestions != 2 || a.UserID != "u1" {
		t.Fatalf("unexpected new attempt: %+v", a)
	}

	done := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	update := assessment.AttemptUpdate{
		AttemptID:   id,
		CompletedAt: done,
		Score:       50,
		Answers:     []assessment.Answer{intp(1), nil},
	}
	if err := repo.CompleteAttempt(ctx, update); err != nil {
		t.Fatalf("complete: %v", err)
	}

	a, err = repo.GetAttempt(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !a.Completed() || !a.CompletedAt.Equal(done) {
		t.Errorf("completed_at = %v, want %v", a.CompletedAt, done)
	}
	if a.Score == nil || *a.Score != 50 {
		t.Errorf("score = %v, want 50", a.Score)
	}
	if len(a.Answers) != 2 || a.Answers[0] == nil || *a.Answers[0] != 1 || a.Answers[1] != nil {
		t.Errorf("answers = %v", a.Answers)
	}

	// A second completion writes nothing and says so.
	update.Score = 100
	if err := repo.CompleteAttempt(ctx, update); !errors.Is(err, ErrAttemptCompleted) {
		t.Fatalf("second complete err = %v, want ErrAttemptCompleted", err)
	}
	if !errors.Is(ErrAttemptCompleted, assessment.ErrAttemptCompleted) {
		t.Fatal("store and assessment must share the completed sentinel")
	}
	a, _ = repo.GetAttempt(ctx, id)
	if *a.Score != 50 {
		t.Errorf("score changed on second completion: %d", *a.Score)
	}
}

func TestAttemptRepo_UnknownAttempt(t *testing.T) {
	s := openTestStore(t)
	err := s.AttemptRepo().CompleteAttempt(context.Background(), assessment.AttemptUpdate{
		AttemptID:   "nope",
		CompletedAt: time.Now(),
	})
	if !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("err = %v, want ErrAttemptNotFound", err)
	}
}

func TestAttemptRepo_StartUnknownTest(t *testing.T) {
	s := openTestStore(t)
	_, err := s.AttemptRepo().StartAttempt(context.Background(), "missing", "u1")
	if !errors.Is(err, ErrTestNotFound) {
		t.Fatalf("err = %v, want ErrTestNotFound", err)
	}
}

func TestAttemptRepo_IsPersister(t *testing.T) {
	s := openTestStore(t)
	var _ assessment.Persister = s.AttemptRepo()
}

func TestActivityRepo_Snapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	act := s.ActivityRepo()

	for _, p := range []Problem{
		{ID: "p1", Title: "Two Sum", Topic: "Arrays", Difficulty: "easy",
			TestCases: []schema.TestCase{{Input: "[2,7,11,15], 9", Expected: "[0,1]"}}},
		{ID: "p2", Title: "BFS", Topic: "Graphs", Difficulty: "medium"},
	} {
		if err := act.UpsertProblem(ctx, p); err != nil {
			t.Fatalf("upsert problem: %v", err)
		}
	}
	if _, err := act.RecordSubmission(ctx, Submission{UserID: "u1", ProblemID: "p1", Status: readiness.StatusAccepted}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := act.RecordSubmission(ctx, Submission{UserID: "u2", ProblemID: "p2", Status: readiness.StatusAccepted}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := s.TestRepo().UpsertTest(ctx, sampleTest("t1", "aptitude")); err != nil {
		t.Fatalf("upsert test: %v", err)
	}
	attempts := s.AttemptRepo()
	done, _ := attempts.StartAttempt(ctx, "t1", "u1")
	if _, err := attempts.StartAttempt(ctx, "t1", "u1"); err != nil { // left open
		t.Fatalf("start: %v", err)
	}
	if err := attempts.CompleteAttempt(ctx, assessment.AttemptUpdate{AttemptID: done, CompletedAt: time.Now(), Score: 80}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := s.SpeechRepo().SaveSession(ctx, SpeechSession{
		UserID: "u1", Question: "Tell me about yourself", FluencyScore: 60, GrammarScore: 70, ConfidenceScore: 80,
	}); err != nil {
		t.Fatalf("save speech: %v", err)
	}

	catalog, err := act.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(catalog.Problems) != 2 {
		t.Fatalf("catalog size = %d, want 2", len(catalog.Problems))
	}

	snap, err := act.Snapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Submissions) != 1 || snap.Submissions[0].ProblemID != "p1" {
		t.Errorf("submissions = %+v", snap.Submissions)
	}
	if len(snap.Attempts) != 1 || snap.Attempts[0].Score != 80 || snap.Attempts[0].TestType != "aptitude" {
		t.Errorf("attempts = %+v", snap.Attempts)
	}
	if len(snap.SpeechSessions) != 1 || *snap.SpeechSessions[0].Fluency != 60 {
		t.Errorf("speech = %+v", snap.SpeechSessions)
	}

	report := readiness.Aggregate(snap, catalog)
	if report.Axis(readiness.AxisCoding) != 50 {
		t.Errorf("coding = %d, want 50", report.Axis(readiness.AxisCoding))
	}
}

func TestSpeechRepo_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.SpeechRepo()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, q := range []string{"first", "second"} {
		if _, err := repo.SaveSession(ctx, SpeechSession{
			UserID: "u1", Question: q, Transcript: "um hello", FillerCount: 1, WPM: 110,
			Feedback: "ok", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	sessions, err := repo.ListSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 || sessions[0].Question != "second" {
		t.Fatalf("sessions = %+v", sessions)
	}
	if sessions[1].Transcript != "um hello" || sessions[1].WPM != 110 {
		t.Errorf("round-trip mismatch: %+v", sessions[1])
	}

	if _, err := repo.SaveSession(ctx, SpeechSession{Question: "x"}); err == nil {
		t.Error("expected error for session without user")
	}
}

func TestEventRepo_LLMEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	events := []LLMRequestEventData{
		{Provider: "mock", Model: "mock", Purpose: "speech-analysis", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Provider: "mock", Model: "mock", Purpose: "speech-analysis", InputTokens: 300, OutputTokens: 70, LatencyMs: 400, Success: true},
		{Provider: "mock", Model: "other", Purpose: "bank-check", LatencyMs: 10, Success: false, ErrorMessage: "boom"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 || all[0].Purpose != "bank-check" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	filtered, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "speech-analysis", Limit: 1})
	if err != nil {
		t.Fatalf("query filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].InputTokens != 300 {
		t.Errorf("filtered = %+v", filtered)
	}

	e, err := repo.GetLLMEvent(ctx, all[0].ID)
	if err != nil || e == nil {
		t.Fatalf("get: %v %v", e, err)
	}
	if e.Success || e.ErrorMessage != "boom" {
		t.Errorf("event = %+v", e)
	}
	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("missing event = %v, %v", missing, err)
	}

	usage, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(usage) != 2 || usage[1].Key != "speech-analysis" {
		t.Fatalf("usage = %+v", usage)
	}
	sp := usage[1]
	if sp.Calls != 2 || sp.InputTokens != 400 || sp.OutputTokens != 120 || sp.AvgLatencyMs != 300 {
		t.Errorf("speech usage = %+v", sp)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 {
		t.Errorf("by model = %+v", byModel)
	}
}
