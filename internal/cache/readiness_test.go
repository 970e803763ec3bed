package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/placeprep/internal/readiness"
)

func newTestCache(t *testing.T) (*ReadinessCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewReadinessCache(client, time.Minute), mr
}

func sampleReport() readiness.Report {
	return readiness.Report{
		ProblemsSolved: 3,
		TestsTaken:     2,
		AvgTestScore:   70,
		Readiness:      72,
		SkillProfile: []readiness.SkillAxis{
			{Subject: readiness.AxisCoding, Score: 80},
		},
	}
}

func TestSetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "u1", sampleReport()))
	assert.Equal(t, time.Minute, mr.TTL("placeprep:readiness:u1"))

	got, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 72, got.Readiness)
	assert.Equal(t, 80, got.Axis(readiness.AxisCoding))
}

func TestExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "u1", sampleReport()))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "u1", sampleReport()))
	require.NoError(t, c.Set(ctx, "u2", sampleReport()))
	require.NoError(t, c.Invalidate(ctx, "u1"))

	assert.False(t, mr.Exists("placeprep:readiness:u1"))
	assert.True(t, mr.Exists("placeprep:readiness:u2"))
}

func TestGetOrCompute(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var results []string
	c.OnResult = func(r string) { results = append(results, r) }

	calls := 0
	compute := func(context.Context) (readiness.Report, error) {
		calls++
		return sampleReport(), nil
	}

	first, err := c.GetOrCompute(ctx, "u1", compute)
	require.NoError(t, err)
	second, err := c.GetOrCompute(ctx, "u1", compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Readiness, second.Readiness)
	assert.Equal(t, []string{"miss", "hit"}, results)
}

func TestGetOrCompute_ComputeError(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("store down")

	_, err := c.GetOrCompute(context.Background(), "u1", func(context.Context) (readiness.Report, error) {
		return readiness.Report{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("placeprep:readiness:u1"))
}

func TestGetOrCompute_RedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var results []string
	c.OnResult = func(r string) { results = append(results, r) }

	got, err := c.GetOrCompute(context.Background(), "u1", func(context.Context) (readiness.Report, error) {
		return sampleReport(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 72, got.Readiness)
	assert.Equal(t, []string{"error"}, results)
}

func TestCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("placeprep:readiness:u1", "not json"))

	_, ok, err := c.Get(context.Background(), "u1")
	assert.Error(t, err)
	assert.False(t, ok)
}
