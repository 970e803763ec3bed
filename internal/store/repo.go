package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/placeprep/ent/schema"
	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/readiness"
)

// Errors returned by repositories.
var (
	ErrTestNotFound    = errors.New("test not found")
	ErrAttemptNotFound = errors.New("attempt not found")

	// ErrAttemptCompleted is assessment.ErrAttemptCompleted.
	ErrAttemptCompleted = assessment.ErrAttemptCompleted
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match
	From    time.Time // timestamp >= From
}

// Test is a stored assessment with its catalog metadata.
type Test struct {
	Definition  assessment.TestDefinition
	Description string
	Difficulty  string
	CreatedAt   time.Time
}

// TestSummary is a list row for a test.
type TestSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Type             string `json:"type"`
	Difficulty       string `json:"difficulty"`
	TimeLimitMinutes int    `json:"time_limit"`
	QuestionCount    int    `json:"question_count"`
}

// TestRepo reads and writes test definitions.
type TestRepo interface {
	// UpsertTest inserts or replaces a test. The definition must validate.
	UpsertTest(ctx context.Context, t Test) error

	// GetDefinition returns the validated definition, or ErrTestNotFound.
	GetDefinition(ctx context.Context, id string) (assessment.TestDefinition, error)

	// ListTests returns all tests ordered by title.
	ListTests(ctx context.Context) ([]TestSummary, error)
}

// Attempt is a stored test attempt row.
type Attempt struct {
	ID             string
	TestID         string
	UserID         string
	TotalQuestions int
	StartedAt      time.Time
	CompletedAt    *time.Time
	Score          *int
	Answers        []assessment.Answer
}

// Completed reports whether the final update has been applied.
func (a *Attempt) Completed() bool {
	return a.CompletedAt != nil
}

// AttemptRepo allocates and completes attempts. It satisfies
// assessment.Persister.
type AttemptRepo interface {
	// StartAttempt allocates an attempt row for userID on testID. It fails
	// with assessment.ErrNoQuestions for an empty test.
	StartAttempt(ctx context.Context, testID, userID string) (string, error)

	// CompleteAttempt applies the final update at most once. Completing an
	// already completed attempt writes nothing and returns
	// ErrAttemptCompleted; an unknown id is ErrAttemptNotFound.
	CompleteAttempt(ctx context.Context, u assessment.AttemptUpdate) error

	// GetAttempt returns the attempt or ErrAttemptNotFound.
	GetAttempt(ctx context.Context, id string) (*Attempt, error)
}

// Problem is a coding catalog entry.
type Problem struct {
	ID          string
	Title       string
	Description string
	Topic       string
	Difficulty  string
	TestCases   []schema.TestCase
}

// Submission is a coding submission row.
type Submission struct {
	ID          string
	UserID      string
	ProblemID   string
	Code        string
	Language    string
	Status      string
	Score       *int
	SubmittedAt time.Time
}

// ActivityRepo serves the readiness aggregator's inputs.
type ActivityRepo interface {
	UpsertProblem(ctx context.Context, p Problem) error

	// RecordSubmission stores a submission and returns its id.
	RecordSubmission(ctx context.Context, s Submission) (string, error)

	// Catalog returns every coding problem in insertion order.
	Catalog(ctx context.Context) (readiness.Catalog, error)

	// Snapshot assembles userID's activity: submissions, completed
	// attempts joined with their test type, and speech scores.
	Snapshot(ctx context.Context, userID string) (readiness.Snapshot, error)
}

// SpeechSession is an analyzed speech answer.
type SpeechSession struct {
	ID              string
	UserID          string
	Question        string
	Transcript      string
	FluencyScore    int
	GrammarScore    int
	ConfidenceScore int
	FillerCount     int
	WPM             int
	Feedback        string
	CreatedAt       time.Time
}

// SpeechRepo stores speech sessions.
type SpeechRepo interface {
	// SaveSession stores the session and returns its id.
	SaveSession(ctx context.Context, s SpeechSession) (string, error)

	// ListSessions returns userID's sessions, newest first.
	ListSessions(ctx context.Context, userID string) ([]SpeechSession, error)
}

// LLMRequestEventData captures the data for a single AI request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored AI request event.
type LLMRequestEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates events for one purpose or model.
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo records and queries AI request events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns the event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
