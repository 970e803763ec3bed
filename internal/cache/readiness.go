// Package cache keeps computed readiness reports in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/placeprep/internal/readiness"
)

// DefaultTTL bounds how stale a cached report can get when no write
// invalidates it.
const DefaultTTL = 5 * time.Minute

const keyPrefix = "placeprep:readiness:"

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// ReadinessCache stores one report per user.
type ReadinessCache struct {
	client *redis.Client
	ttl    time.Duration

	// OnResult, if set, is told "hit", "miss" or "error" for every
	// GetOrCompute lookup.
	OnResult func(result string)
}

// NewReadinessCache returns a cache over client. A non-positive ttl uses
// DefaultTTL.
func NewReadinessCache(client *redis.Client, ttl time.Duration) *ReadinessCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReadinessCache{client: client, ttl: ttl}
}

func key(userID string) string {
	return keyPrefix + userID
}

// Get returns the cached report for userID. ok is false on a miss.
func (c *ReadinessCache) Get(ctx context.Context, userID string) (report readiness.Report, ok bool, err error) {
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return readiness.Report{}, false, nil
	}
	if err != nil {
		return readiness.Report{}, false, fmt.Errorf("get readiness %s: %w", userID, err)
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		return readiness.Report{}, false, fmt.Errorf("decode readiness %s: %w", userID, err)
	}
	return report, true, nil
}

// Set stores report for userID.
func (c *ReadinessCache) Set(ctx context.Context, userID string, report readiness.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode readiness: %w", err)
	}
	if err := c.client.Set(ctx, key(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set readiness %s: %w", userID, err)
	}
	return nil
}

// Invalidate drops userID's cached report. Call it after any write that
// feeds the aggregator.
func (c *ReadinessCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate readiness %s: %w", userID, err)
	}
	return nil
}

// GetOrCompute returns the cached report, or computes and stores it. A
// cache failure degrades to computing; only compute errors are returned.
func (c *ReadinessCache) GetOrCompute(ctx context.Context, userID string, compute func(context.Context) (readiness.Report, error)) (readiness.Report, error) {
	report, ok, err := c.Get(ctx, userID)
	switch {
	case err != nil:
		c.result("error")
	case ok:
		c.result("hit")
		return report, nil
	default:
		c.result("miss")
	}

	report, err = compute(ctx)
	if err != nil {
		return readiness.Report{}, err
	}
	// A failed store only costs the next lookup a recompute.
	_ = c.Set(ctx, userID, report)
	return report, nil
}

func (c *ReadinessCache) result(r string) {
	if c.OnResult != nil {
		c.OnResult(r)
	}
}
