package assessment

import (
	"errors"
	"fmt"
	"time"
)

// Question is a single multiple-choice item. It is immutable once a
// session starts.
type Question struct {
	Prompt       string
	Options      []string
	CorrectIndex int
}

// Validate checks the question shape.
func (q Question) Validate() error {
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: need at least 2 options, got %d", ErrInvalidQuestion, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d outside %d options", ErrInvalidQuestion, q.CorrectIndex, len(q.Options))
	}
	return nil
}

// TestDefinition is the test as supplied by the store. Question order is
// the display and navigation order.
type TestDefinition struct {
	ID               string
	Title            string
	Type             string
	TimeLimitMinutes int
	Questions        []Question
}

// Validate checks the definition is startable: positive time limit, at
// least one question, and every question well formed.
func (d TestDefinition) Validate() error {
	if d.TimeLimitMinutes <= 0 {
		return fmt.Errorf("%w: time limit must be positive, got %d", ErrInvalidDefinition, d.TimeLimitMinutes)
	}
	if len(d.Questions) == 0 {
		return ErrNoQuestions
	}
	for i, q := range d.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// TimeLimit returns the total allowed duration.
func (d TestDefinition) TimeLimit() time.Duration {
	return time.Duration(d.TimeLimitMinutes) * time.Minute
}

// Phase is the lifecycle phase of an attempt.
type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseSubmitted  Phase = "submitted"
)

// Trigger records what caused the submission.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerTimer  Trigger = "timer"
)

// Answer is a selected option index, or nil when unanswered.
type Answer = *int

// AttemptState is a copy of the controller's mutable state.
type AttemptState struct {
	AttemptID        string
	CurrentIndex     int
	Answers          []Answer
	RemainingSeconds int
	Phase            Phase
}

// AnsweredCount returns how many slots hold a selection.
func (s AttemptState) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if a != nil {
			n++
		}
	}
	return n
}

// AttemptUpdate is the single write issued to the store on submission.
type AttemptUpdate struct {
	AttemptID   string
	CompletedAt time.Time
	Score       int
	Answers     []Answer
}

// Errors returned by the controller and definition validation.
var (
	ErrNoQuestions       = errors.New("test has no questions")
	ErrInvalidDefinition = errors.New("invalid test definition")
	ErrInvalidQuestion   = errors.New("invalid question")
	ErrIndexOutOfRange   = errors.New("question index out of range")
	ErrOptionOutOfRange  = errors.New("option index out of range")
)

// ErrAttemptCompleted is returned by a Persister when the attempt already
// holds its final update. Nothing was written.
var ErrAttemptCompleted = errors.New("attempt already completed")
