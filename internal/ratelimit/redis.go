package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Backend over a Redis server. Counters are atomic across
// processes sharing the server.
type Redis struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedis returns a Backend using client.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client, now: time.Now}
}

func (r *Redis) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("incr %s: %w", key, err)
	}

	if count == 1 {
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("expire %s: %w", key, err)
		}
		return count, r.now().Add(window), nil
	}

	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ttl %s: %w", key, err)
	}
	if ttl < 0 {
		// The key lost its expiry; start the window over.
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("expire %s: %w", key, err)
		}
		ttl = window
	}
	return count, r.now().Add(ttl), nil
}
