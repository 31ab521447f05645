package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in fixed windows with INCR + EXPIRE. Counters
// live in Redis so every instance behind the load balancer shares them.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, now func() time.Time) *RedisLimiter {
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{client: client, limit: limit, window: window, now: now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowSecs := int64(l.window.Seconds())
	if windowSecs <= 0 {
		windowSecs = 1
	}
	bucket := l.now().Unix() / windowSecs
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", redisKey, err)
	}

	// First hit creates the counter; give it a TTL so stale windows clean
	// themselves up.
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", redisKey, err)
		}
	}

	return count <= int64(l.limit), nil
}
