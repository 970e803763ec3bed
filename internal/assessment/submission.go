package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// PersistWarning reports that the final attempt write failed. The score is
// still valid; the host may call Submission.Retry or tell the user their
// result may not be saved.
type PersistWarning struct {
	AttemptID string
	Err       error
}

func (w *PersistWarning) Error() string {
	return fmt.Sprintf("attempt %s not saved: %v", w.AttemptID, w.Err)
}

func (w *PersistWarning) Unwrap() error { return w.Err }

// Submission is the outcome of submitting an attempt. Result is available
// immediately; the persistence write completes in the background.
type Submission struct {
	Trigger Trigger
	Result  *ScoredResult
	Update  AttemptUpdate

	persister Persister
	timeout   time.Duration

	retryMu sync.Mutex
	mu      sync.Mutex
	done    chan struct{}
	err     error
	writes  int
}

// Done is closed once the first write attempt finishes.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the write finishes or ctx ends. It returns a
// *PersistWarning when the write failed.
func (s *Submission) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the current write outcome. It is nil while the write is
// still pending.
func (s *Submission) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Saved reports whether the update is known to be persisted.
func (s *Submission) Saved() bool {
	select {
	case <-s.done:
	default:
		return false
	}
	return s.Err() == nil
}

// Writes returns how many times the update was sent to the persister.
func (s *Submission) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Retry re-sends the same update after a failed write. It is a no-op
// returning nil when the update is already saved, and blocks until the
// first write has finished.
func (s *Submission) Retry(ctx context.Context) error {
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	if s.Err() == nil {
		return nil
	}
	err := s.write(ctx)
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	return err
}

func (s *Submission) persist(ctx context.Context) {
	err := s.write(ctx)
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

func (s *Submission) write(ctx context.Context) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	err := s.persister.CompleteAttempt(ctx, s.Update)
	switch {
	case err == nil, errors.Is(err, ErrAttemptCompleted):
		// A completed row means an earlier write of this update landed.
		return nil
	default:
		return &PersistWarning{AttemptID: s.Update.AttemptID, Err: err}
	}
}
