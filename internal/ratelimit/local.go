package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter keeps one token bucket per key in memory. Good enough for a
// single instance; deployments with several instances want RedisLimiter.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	limit  rate.Limit
	burst  int
	idle   time.Duration
	now    func() time.Time
	sweeps int
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter admits roughly limit requests per window per key.
func NewLocalLimiter(limit int, window time.Duration, now func() time.Time) *LocalLimiter {
	if now == nil {
		now = time.Now
	}
	if limit < 1 {
		limit = 1
	}
	return &LocalLimiter{
		buckets: map[string]*bucket{},
		limit:   rate.Limit(float64(limit) / window.Seconds()),
		burst:   limit,
		idle:    3 * window,
		now:     now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	// Prune idle keys every so often so the map doesn't grow with every
	// client that ever connected.
	l.sweeps++
	if l.sweeps >= 1024 {
		l.sweeps = 0
		for k, v := range l.buckets {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.buckets, k)
			}
		}
	}

	return b.lim.AllowN(now, 1), nil
}
