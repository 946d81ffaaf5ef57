// Package ratelimit implements fixed-window request counting with a
// shared (Redis) backend and an in-process fallback.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backend counts hits per key within a fixed window.
type Backend interface {
	// Incr records a hit on key and returns the hit count in the current
	// window and when that window resets. The first hit opens a window of
	// length window.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, reset time.Time, err error)
}

// Result is the outcome of a rate-limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter is the time until the window resets, rounded up to whole
// seconds and never below one second.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.Reset.Sub(now)
	secs := (d + time.Second - 1) / time.Second
	return max(secs, 1) * time.Second
}

// Limiter checks requests against a shared backend, answering from a
// local backend when the shared one fails. Fallback counts are per
// process.
type Limiter struct {
	shared Backend
	local  Backend
	logger *slog.Logger
}

// New returns a Limiter. shared may be nil; a nil local gets a fresh
// Memory.
func New(shared Backend, local Backend, logger *slog.Logger) *Limiter {
	if local == nil {
		local = NewMemory(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{shared: shared, local: local, logger: logger}
}

// Key returns the counter key for identifier in bucket.
func Key(bucket, identifier string) string {
	if identifier == "" {
		identifier = "unknown"
	}
	return fmt.Sprintf("qg:rl:%s:%s", bucket, identifier)
}

// Allow records a request from identifier in bucket and reports whether it
// fits within limit requests per window.
func (l *Limiter) Allow(ctx context.Context, identifier, bucket string, limit int, window time.Duration) Result {
	key := Key(bucket, identifier)

	count, reset, err := l.incr(ctx, key, window)
	if err != nil {
		// Both backends failed; fail open.
		l.logger.WarnContext(ctx, "rate limiter unavailable", "key", key, "error", err)
		return Result{Allowed: true, Limit: limit, Remaining: limit, Reset: time.Now().Add(window)}
	}

	return Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: max(limit-int(count), 0),
		Reset:     reset,
	}
}

func (l *Limiter) incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	if l.shared != nil {
		count, reset, err := l.shared.Incr(ctx, key, window)
		if err == nil {
			return count, reset, nil
		}
		l.logger.DebugContext(ctx, "shared rate limiter failed, using local", "key", key, "error", err)
	}
	return l.local.Incr(ctx, key, window)
}
