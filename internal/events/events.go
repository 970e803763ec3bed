// Package events publishes attempt lifecycle events to an AMQP topic
// exchange so downstream services (leaderboards, mail digests) can react
// without polling the store.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/store"
)

// Exchange is the topic exchange all placeprep events go to.
const Exchange = "placeprep.events"

// RoutingAttemptCompleted is the routing key for AttemptCompleted.
const RoutingAttemptCompleted = "attempt.completed"

const publishTimeout = 5 * time.Second

// Publisher is the subset of *amqp.Channel used for publishing.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Client owns an AMQP connection and the channel events are published on.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects to url, opens a channel and declares the durable topic
// exchange.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Client{conn: conn, channel: channel}, nil
}

// Channel returns the publishing channel.
func (c *Client) Channel() Publisher {
	return c.channel
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// AttemptCompleted is published once an attempt's final update is stored.
type AttemptCompleted struct {
	AttemptID      string    `json:"attempt_id"`
	TestID         string    `json:"test_id"`
	UserID         string    `json:"user_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Publish marshals event as JSON and publishes it under key.
func Publish(ctx context.Context, pub Publisher, key string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = pub.PublishWithContext(ctx, Exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// PublishingPersister stores attempt updates through an AttemptRepo and
// announces each write that completed an attempt. A repeat completion
// (store.ErrAttemptCompleted) is returned unannounced. Publishing is best
// effort: a failure is reported to OnError and never fails the write.
type PublishingPersister struct {
	repo store.AttemptRepo
	pub  Publisher

	// OnError receives publish failures. Defaults to a warning on stderr.
	OnError func(error)
}

var _ assessment.Persister = (*PublishingPersister)(nil)

// NewPublishingPersister wraps repo. A nil pub disables publishing.
func NewPublishingPersister(repo store.AttemptRepo, pub Publisher) *PublishingPersister {
	return &PublishingPersister{repo: repo, pub: pub}
}

func (p *PublishingPersister) CompleteAttempt(ctx context.Context, u assessment.AttemptUpdate) error {
	if err := p.repo.CompleteAttempt(ctx, u); err != nil {
		return err
	}
	if p.pub == nil {
		return nil
	}
	if err := p.announce(ctx, u); err != nil {
		p.report(err)
	}
	return nil
}

// announce publishes the attempt as stored.
func (p *PublishingPersister) announce(ctx context.Context, u assessment.AttemptUpdate) error {
	a, err := p.repo.GetAttempt(ctx, u.AttemptID)
	if err != nil {
		return fmt.Errorf("load attempt for event: %w", err)
	}
	if !a.Completed() || a.Score == nil {
		return fmt.Errorf("attempt %s is not completed after write", u.AttemptID)
	}
	return Publish(ctx, p.pub, RoutingAttemptCompleted, AttemptCompleted{
		AttemptID:      a.ID,
		TestID:         a.TestID,
		UserID:         a.UserID,
		Score:          *a.Score,
		TotalQuestions: a.TotalQuestions,
		CompletedAt:    a.CompletedAt.UTC(),
	})
}

func (p *PublishingPersister) report(err error) {
	if p.OnError != nil {
		p.OnError(err)
		return
	}
	fmt.Fprintf(os.Stderr, "warning: %v\n", err)
}
