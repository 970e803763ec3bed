package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/identity"
	"github.com/abhisek/placeprep/internal/store"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	err = s.TestRepo().UpsertTest(context.Background(), store.Test{
		Definition: assessment.TestDefinition{
			ID:               "apt-1",
			Title:            "Aptitude 1",
			Type:             "aptitude",
			TimeLimitMinutes: 5,
			Questions: []assessment.Question{
				{Prompt: "1+1?", Options: []string{"1", "2"}, CorrectIndex: 1},
				{Prompt: "2+2?", Options: []string{"4", "5"}, CorrectIndex: 0},
			},
		},
	})
	require.NoError(t, err)
	return s
}

func TestPublishingPersister_PublishesAfterWrite(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	id, err := s.AttemptRepo().StartAttempt(ctx, "apt-1", "u1")
	require.NoError(t, err)

	pub := &fakePublisher{}
	p := NewPublishingPersister(s.AttemptRepo(), pub)

	completed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	one := 1
	err = p.CompleteAttempt(ctx, assessment.AttemptUpdate{
		AttemptID:   id,
		CompletedAt: completed,
		Score:       50,
		Answers:     []assessment.Answer{&one, nil},
	})
	require.NoError(t, err)

	a, err := s.AttemptRepo().GetAttempt(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.Completed())

	require.Len(t, pub.msgs, 1)
	got := pub.msgs[0]
	assert.Equal(t, Exchange, got.exchange)
	assert.Equal(t, RoutingAttemptCompleted, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var ev AttemptCompleted
	require.NoError(t, json.Unmarshal(got.msg.Body, &ev))
	assert.Equal(t, AttemptCompleted{
		AttemptID:      id,
		TestID:         "apt-1",
		UserID:         "u1",
		Score:          50,
		TotalQuestions: 2,
		CompletedAt:    completed,
	}, ev)
}

func TestPublishingPersister_PublishFailureIsNotAWriteFailure(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	id, err := s.AttemptRepo().StartAttempt(ctx, "apt-1", "u1")
	require.NoError(t, err)

	var reported []error
	p := NewPublishingPersister(s.AttemptRepo(), &fakePublisher{err: errors.New("channel closed")})
	p.OnError = func(err error) { reported = append(reported, err) }

	err = p.CompleteAttempt(ctx, assessment.AttemptUpdate{AttemptID: id, CompletedAt: time.Now(), Score: 0})
	require.NoError(t, err)
	require.Len(t, reported, 1)
	assert.Contains(t, reported[0].Error(), "channel closed")

	a, err := s.AttemptRepo().GetAttempt(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.Completed())
}

func TestPublishingPersister_WriteFailureSkipsPublish(t *testing.T) {
	s := openStore(t)
	pub := &fakePublisher{}
	p := NewPublishingPersister(s.AttemptRepo(), pub)

	err := p.CompleteAttempt(context.Background(), assessment.AttemptUpdate{AttemptID: "missing", CompletedAt: time.Now()})
	require.ErrorIs(t, err, store.ErrAttemptNotFound)
	assert.Empty(t, pub.msgs)
}

func TestPublishingPersister_RepeatCompletionIsNotAnnounced(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	id, err := s.AttemptRepo().StartAttempt(ctx, "apt-1", "u1")
	require.NoError(t, err)

	pub := &fakePublisher{}
	p := NewPublishingPersister(s.AttemptRepo(), pub)

	require.NoError(t, p.CompleteAttempt(ctx, assessment.AttemptUpdate{AttemptID: id, CompletedAt: time.Now(), Score: 100}))
	err = p.CompleteAttempt(ctx, assessment.AttemptUpdate{AttemptID: id, CompletedAt: time.Now(), Score: 0})
	require.ErrorIs(t, err, store.ErrAttemptCompleted)

	require.Len(t, pub.msgs, 1)
	var ev AttemptCompleted
	require.NoError(t, json.Unmarshal(pub.msgs[0].msg.Body, &ev))
	assert.Equal(t, 100, ev.Score)

	a, err := s.AttemptRepo().GetAttempt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 100, *a.Score)
}

func TestPublishingPersister_EventCarriesStoredRow(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	id, err := s.AttemptRepo().StartAttempt(ctx, "apt-1", "u1")
	require.NoError(t, err)

	// The event reports the stored row, not the caller's update.
	repo := &rewritingRepo{AttemptRepo: s.AttemptRepo()}
	pub := &fakePublisher{}
	p := NewPublishingPersister(repo, pub)

	require.NoError(t, p.CompleteAttempt(ctx, assessment.AttemptUpdate{AttemptID: id, CompletedAt: time.Now(), Score: 0}))
	require.Len(t, pub.msgs, 1)
	var ev AttemptCompleted
	require.NoError(t, json.Unmarshal(pub.msgs[0].msg.Body, &ev))
	assert.Equal(t, 50, ev.Score)
}

// rewritingRepo stores a score of 50 whatever the update says.
type rewritingRepo struct {
	store.AttemptRepo
}

func (r *rewritingRepo) CompleteAttempt(ctx context.Context, u assessment.AttemptUpdate) error {
	u.Score = 50
	return r.AttemptRepo.CompleteAttempt(ctx, u)
}

func TestPublishingPersister_NilPublisher(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	id, err := s.AttemptRepo().StartAttempt(ctx, "apt-1", "u2")
	require.NoError(t, err)

	p := NewPublishingPersister(s.AttemptRepo(), nil)
	require.NoError(t, p.CompleteAttempt(ctx, assessment.AttemptUpdate{AttemptID: id, CompletedAt: time.Now(), Score: 100}))
}

func TestPersisterDrivesController(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	id, err := s.AttemptRepo().StartAttempt(ctx, "apt-1", "u3")
	require.NoError(t, err)
	def, err := s.TestRepo().GetDefinition(ctx, "apt-1")
	require.NoError(t, err)

	pub := &fakePublisher{}
	c, err := assessment.New(def, id, identityUser("u3"), NewPublishingPersister(s.AttemptRepo(), pub), assessment.Options{})
	require.NoError(t, err)
	require.NoError(t, c.SelectAnswer(1))

	sub := c.Submit(ctx)
	require.NoError(t, sub.Wait(ctx))
	assert.Equal(t, 50, sub.Result.Percentage)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.msgs, 1)
}

func identityUser(id string) identity.User {
	return identity.User{ID: id, Role: identity.RoleStudent}
}
