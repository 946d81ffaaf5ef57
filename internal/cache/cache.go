// Package cache stores JSON-encoded values with a TTL in a shared backend
// (Redis) with an in-process fallback.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// KeyPrefix namespaces every key written by this service.
const KeyPrefix = "qg:"

// Backend is a byte-oriented key/value store with per-key expiry.
type Backend interface {
	// Get returns the value for key. ok is false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Cache reads and writes JSON values. It prefers the shared backend and
// falls back to the local one whenever the shared backend fails, so
// callers never see an error.
type Cache struct {
	shared Backend
	local  Backend
	logger *slog.Logger
}

// New returns a Cache over shared (may be nil) and local. A nil local
// gets a fresh Memory.
func New(shared Backend, local Backend, logger *slog.Logger) *Cache {
	if local == nil {
		local = NewMemory(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{shared: shared, local: local, logger: logger}
}

// Get decodes the value stored under key into dst. It reports false on a
// miss or when the stored value does not decode into dst.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	raw, ok := c.get(ctx, KeyPrefix+key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.DebugContext(ctx, "cache value does not decode", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores v under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.WarnContext(ctx, "cache value does not encode", "key", key, "error", err)
		return
	}

	key = KeyPrefix + key
	if c.shared != nil {
		err := c.shared.Set(ctx, key, raw, ttl)
		if err == nil {
			return
		}
		c.logger.DebugContext(ctx, "shared cache set failed, using local", "key", key, "error", err)
	}
	if err := c.local.Set(ctx, key, raw, ttl); err != nil {
		c.logger.WarnContext(ctx, "local cache set failed", "key", key, "error", err)
	}
}

// Del removes key from both backends.
func (c *Cache) Del(ctx context.Context, key string) {
	key = KeyPrefix + key
	if c.shared != nil {
		if err := c.shared.Del(ctx, key); err != nil {
			c.logger.DebugContext(ctx, "shared cache del failed", "key", key, "error", err)
		}
	}
	_ = c.local.Del(ctx, key)
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	if c.shared != nil {
		raw, ok, err := c.shared.Get(ctx, key)
		if err == nil {
			return raw, ok
		}
		c.logger.DebugContext(ctx, "shared cache get failed, using local", "key", key, "error", err)
	}
	raw, ok, err := c.local.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return raw, ok
}
