package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	l := New(nil, NewMemory(clock), testLogger())
	ctx := context.Background()

	r1 := l.Allow(ctx, "1.2.3.4", "generate-quiz", 2, time.Second)
	assert.True(t, r1.Allowed)
	assert.Equal(t, 1, r1.Remaining)
	assert.Equal(t, now.Add(time.Second), r1.Reset)

	r2 := l.Allow(ctx, "1.2.3.4", "generate-quiz", 2, time.Second)
	assert.True(t, r2.Allowed)
	assert.Equal(t, 0, r2.Remaining)

	r3 := l.Allow(ctx, "1.2.3.4", "generate-quiz", 2, time.Second)
	assert.False(t, r3.Allowed)
	assert.Equal(t, 0, r3.Remaining)
	assert.Equal(t, r1.Reset, r3.Reset, "window does not slide")

	now = now.Add(time.Second)
	r4 := l.Allow(ctx, "1.2.3.4", "generate-quiz", 2, time.Second)
	assert.True(t, r4.Allowed, "an elapsed window resets the count")
	assert.Equal(t, 1, r4.Remaining)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(nil, nil, testLogger())
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "a", "generate-quiz", 1, time.Minute).Allowed)
	assert.False(t, l.Allow(ctx, "a", "generate-quiz", 1, time.Minute).Allowed)
	assert.True(t, l.Allow(ctx, "b", "generate-quiz", 1, time.Minute).Allowed)
	assert.True(t, l.Allow(ctx, "a", "other", 1, time.Minute).Allowed)
}

func TestMemory_SweepsExpiredCounters(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		_, _, err := m.Incr(ctx, Key("generate-quiz", ip), time.Second)
		require.NoError(t, err)
	}
	_, _, err := m.Incr(ctx, Key("generate-quiz", "10.0.0.9"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())

	now = now.Add(sweepInterval)
	count, _, err := m.Incr(ctx, Key("generate-quiz", "10.0.0.4"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 2, m.Len(), "clients seen once do not stay tracked")

	count, _, err = m.Incr(ctx, Key("generate-quiz", "10.0.0.9"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "live windows survive the sweep")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "qg:rl:generate-quiz:10.0.0.1", Key("generate-quiz", "10.0.0.1"))
	assert.Equal(t, "qg:rl:generate-quiz:unknown", Key("generate-quiz", ""))
}

func TestResult_RetryAfter(t *testing.T) {
	now := time.Unix(100, 0)
	r := Result{Reset: now.Add(1500 * time.Millisecond)}
	assert.Equal(t, 2*time.Second, r.RetryAfter(now))

	r = Result{Reset: now}
	assert.Equal(t, time.Second, r.RetryAfter(now))
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l := New(NewRedis(client), nil, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "ip", "generate-quiz", 3, time.Minute).Allowed, "request %d", i+1)
	}
	denied := l.Allow(ctx, "ip", "generate-quiz", 3, time.Minute)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.True(t, denied.Reset.After(time.Now()))

	got, err := mr.Get("qg:rl:generate-quiz:ip")
	require.NoError(t, err)
	assert.Equal(t, "4", got)
	assert.Greater(t, mr.TTL("qg:rl:generate-quiz:ip"), time.Duration(0))

	mr.FastForward(time.Minute)
	assert.True(t, l.Allow(ctx, "ip", "generate-quiz", 3, time.Minute).Allowed)
}

func TestLimiter_FallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	l := New(NewRedis(client), NewMemory(nil), testLogger())
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "ip", "generate-quiz", 1, time.Minute).Allowed)
	assert.False(t, l.Allow(ctx, "ip", "generate-quiz", 1, time.Minute).Allowed, "local backend keeps counting")
}
