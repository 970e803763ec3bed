package assessment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/placeprep/internal/identity"
)

// Persister writes the final attempt update to the external store. It
// returns ErrAttemptCompleted, and writes nothing, when the attempt was
// already completed.
type Persister interface {
	CompleteAttempt(ctx context.Context, update AttemptUpdate) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, update AttemptUpdate) error

func (f PersisterFunc) CompleteAttempt(ctx context.Context, update AttemptUpdate) error {
	return f(ctx, update)
}

// Options configures a Controller.
type Options struct {
	// Clock supplies the completion timestamp. Defaults to SystemClock.
	Clock Clock

	// PersistTimeout bounds the asynchronous write. Zero means no bound
	// beyond the context passed to Submit.
	PersistTimeout time.Duration

	// OnSubmit, if set, is called once with the submission after the
	// phase flips. It runs on the submitting goroutine with the controller
	// unlocked, so it may read the controller.
	OnSubmit func(*Submission)
}

// Controller owns one timed attempt. All entry points are serialized; once
// the attempt is submitted every mutating call is a no-op.
type Controller struct {
	mu        sync.Mutex
	def       TestDefinition
	user      identity.User
	persister Persister
	opts      Options

	state      AttemptState
	submission *Submission
	done       chan struct{}
}

// New starts a session for def under the pre-allocated attemptID. A
// definition with zero questions is rejected; callers are expected to have
// checked def.Validate() before allocating the attempt.
func New(def TestDefinition, attemptID string, user identity.User, persister Persister, opts Options) (*Controller, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if attemptID == "" {
		return nil, fmt.Errorf("%w: empty attempt id", ErrInvalidDefinition)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}

	return &Controller{
		def:       def,
		user:      user,
		persister: persister,
		opts:      opts,
		state: AttemptState{
			AttemptID:        attemptID,
			CurrentIndex:     0,
			Answers:          make([]Answer, len(def.Questions)),
			RemainingSeconds: def.TimeLimitMinutes * 60,
			Phase:            PhaseInProgress,
		},
		done: make(chan struct{}),
	}, nil
}

// Definition returns the test being taken.
func (c *Controller) Definition() TestDefinition {
	return c.def
}

// User returns the identity the attempt belongs to.
func (c *Controller) User() identity.User {
	return c.user
}

// Done is closed when the attempt is submitted.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Snapshot returns a copy of the current attempt state.
func (c *Controller) Snapshot() AttemptState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Answers = copyAnswers(c.state.Answers)
	return s
}

// CurrentQuestion returns the question at the current index.
func (c *Controller) CurrentQuestion() Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.def.Questions[c.state.CurrentIndex]
}

// SelectAnswer records option for the current question, overwriting any
// previous choice.
func (c *Controller) SelectAnswer(option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != PhaseInProgress {
		return nil
	}
	q := c.def.Questions[c.state.CurrentIndex]
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOptionOutOfRange, option, len(q.Options))
	}
	v := option
	c.state.Answers[c.state.CurrentIndex] = &v
	return nil
}

// ClearAnswer resets the current question to unanswered.
func (c *Controller) ClearAnswer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != PhaseInProgress {
		return
	}
	c.state.Answers[c.state.CurrentIndex] = nil
}

// Navigate moves to target. Any question may be visited in any order.
func (c *Controller) Navigate(target int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != PhaseInProgress {
		return nil
	}
	if target < 0 || target >= len(c.def.Questions) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, target, len(c.def.Questions))
	}
	c.state.CurrentIndex = target
	return nil
}

// Next moves forward one question, staying put on the last.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseInProgress && c.state.CurrentIndex < len(c.def.Questions)-1 {
		c.state.CurrentIndex++
	}
}

// Prev moves back one question, staying put on the first.
func (c *Controller) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseInProgress && c.state.CurrentIndex > 0 {
		c.state.CurrentIndex--
	}
}

// Tick accounts for one elapsed second. When the countdown reaches zero
// the attempt is submitted with TriggerTimer before Tick returns. The
// returned Submission is nil unless this tick caused the submission.
func (c *Controller) Tick(ctx context.Context) *Submission {
	c.mu.Lock()
	if c.state.Phase != PhaseInProgress {
		c.mu.Unlock()
		return nil
	}
	if c.state.RemainingSeconds > 0 {
		c.state.RemainingSeconds--
	}
	var sub *Submission
	if c.state.RemainingSeconds == 0 {
		sub = c.submitLocked(ctx, TriggerTimer)
	}
	c.mu.Unlock()

	c.notify(sub)
	return sub
}

// Submit finishes the attempt. The first call scores it and starts the
// single persistence write; every later call returns the same Submission.
func (c *Controller) Submit(ctx context.Context) *Submission {
	c.mu.Lock()
	first := c.submission == nil
	sub := c.submitLocked(ctx, TriggerManual)
	c.mu.Unlock()

	if first {
		c.notify(sub)
	}
	return sub
}

// Submission returns the submission, or nil while still in progress.
func (c *Controller) Submission() *Submission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submission
}

func (c *Controller) submitLocked(ctx context.Context, trigger Trigger) *Submission {
	if c.submission != nil {
		return c.submission
	}

	c.state.Phase = PhaseSubmitted
	answers := copyAnswers(c.state.Answers)
	result := Score(c.def.Questions, answers)

	sub := &Submission{
		Trigger: trigger,
		Result:  result,
		Update: AttemptUpdate{
			AttemptID:   c.state.AttemptID,
			CompletedAt: c.opts.Clock.Now().UTC(),
			Score:       result.Percentage,
			Answers:     answers,
		},
		persister: c.persister,
		timeout:   c.opts.PersistTimeout,
		done:      make(chan struct{}),
	}
	c.submission = sub
	close(c.done)

	go sub.persist(context.WithoutCancel(ctx))
	return sub
}

// notify hands a fresh submission to OnSubmit. c.mu must not be held.
func (c *Controller) notify(sub *Submission) {
	if sub != nil && c.opts.OnSubmit != nil {
		c.opts.OnSubmit(sub)
	}
}

// Run drives the countdown from clock, one Tick per second, until the
// attempt is submitted or ctx ends. The ticker is stopped on return.
func (c *Controller) Run(ctx context.Context, clock Clock) {
	if clock == nil {
		clock = SystemClock{}
	}
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.Tick(ctx)
		}
	}
}
