package cache

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type payload struct {
	Topic string   `json:"topic"`
	Items []string `json:"items"`
}

func TestMemoryCache_RoundTripAndExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New(nil, NewMemory(clock.Now), testLogger())
	ctx := context.Background()

	c.Set(ctx, "k", payload{Topic: "Mercury", Items: []string{"a", "b"}}, 100*time.Millisecond)

	clock.Advance(50 * time.Millisecond)
	var got payload
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, payload{Topic: "Mercury", Items: []string{"a", "b"}}, got)

	clock.Advance(60 * time.Millisecond)
	assert.False(t, c.Get(ctx, "k", &got), "entry should expire after its TTL")
}

func TestMemory_LazyEviction(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := NewMemory(clock.Now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Hour))
	clock.Advance(2 * time.Second)

	assert.Equal(t, 2, m.Len(), "expired entries stay until read")
	_, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_SweepDropsUnreadKeys(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := NewMemory(clock.Now)
	ctx := context.Background()

	for _, k := range []string{"wiki:summary:owls", "wiki:summary:bats", "quiz:Easy:owls"} {
		require.NoError(t, m.Set(ctx, k, []byte("{}"), time.Second))
	}
	require.NoError(t, m.Set(ctx, "keep", []byte("{}"), time.Hour))
	assert.Equal(t, 4, m.Len())

	clock.Advance(sweepInterval)
	require.NoError(t, m.Set(ctx, "fresh", []byte("{}"), time.Second))
	assert.Equal(t, 2, m.Len(), "expired keys are swept on write")

	_, ok, err := m.Get(ctx, "keep")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCache_DelAndUndecodable(t *testing.T) {
	c := New(nil, nil, testLogger())
	ctx := context.Background()

	c.Set(ctx, "quiz", payload{Topic: "x"}, time.Hour)
	c.Del(ctx, "quiz")
	var got payload
	assert.False(t, c.Get(ctx, "quiz", &got))

	c.Set(ctx, "n", 42, time.Hour)
	assert.False(t, c.Get(ctx, "n", &got), "a value of another shape reads as a miss")
}

func TestRedisCache_RoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	local := NewMemory(nil)
	c := New(NewRedis(client), local, testLogger())
	ctx := context.Background()

	c.Set(ctx, "quiz:Easy:mercury", payload{Topic: "Mercury"}, time.Hour)
	assert.True(t, mr.Exists(KeyPrefix+"quiz:Easy:mercury"), "keys are namespaced")
	assert.Equal(t, 0, local.Len(), "local backend untouched while redis is healthy")

	var got payload
	require.True(t, c.Get(ctx, "quiz:Easy:mercury", &got))
	assert.Equal(t, "Mercury", got.Topic)

	mr.FastForward(time.Hour + time.Second)
	assert.False(t, c.Get(ctx, "quiz:Easy:mercury", &got))
}

func TestCache_FallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	local := NewMemory(nil)
	c := New(NewRedis(client), local, testLogger())
	ctx := context.Background()

	c.Set(ctx, "k", payload{Topic: "fallback"}, time.Minute)
	assert.Equal(t, 1, local.Len())

	var got payload
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "fallback", got.Topic)

	c.Del(ctx, "k")
	assert.False(t, c.Get(ctx, "k", &got))
}
