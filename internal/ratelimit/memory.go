package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often Incr scans for expired counters.
const sweepInterval = time.Minute

type counter struct {
	count   int64
	resetAt time.Time
}

// Memory is an in-process Backend. Expired counters are dropped by a sweep
// that runs inside Incr at most once per sweepInterval.
type Memory struct {
	mu        sync.Mutex
	counters  map[string]counter
	now       func() time.Time
	nextSweep time.Time
}

// NewMemory returns an empty Memory. now defaults to time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{counters: make(map[string]counter), now: now}
}

func (m *Memory) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	c, ok := m.counters[key]
	if !ok || !now.Before(c.resetAt) {
		c = counter{count: 1, resetAt: now.Add(window)}
	} else {
		c.count++
	}
	m.counters[key] = c
	return c.count, c.resetAt, nil
}

// Len returns the number of tracked counters.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.counters)
}

// sweep deletes counters whose window has ended. Callers hold mu.
func (m *Memory) sweep(now time.Time) {
	if now.Before(m.nextSweep) {
		return
	}
	m.nextSweep = now.Add(sweepInterval)
	for k, c := range m.counters {
		if !now.Before(c.resetAt) {
			delete(m.counters, k)
		}
	}
}
