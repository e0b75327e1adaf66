package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	throttleTTL     = 10 * time.Minute
	throttleMaxIdle = 1024
)

// throttle is a per-username token bucket guarding Authenticate against
// password guessing. Buckets idle past throttleTTL are pruned inline once the
// map grows beyond throttleMaxIdle entries. The clock is injected so refill
// and pruning follow the engine's time source.
type throttle struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	now     func() time.Time
	buckets map[string]*throttleBucket
}

type throttleBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newThrottle(perMinute float64, burst int) *throttle {
	return &throttle{
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		now:     time.Now,
		buckets: make(map[string]*throttleBucket),
	}
}

func (t *throttle) allow(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if len(t.buckets) > throttleMaxIdle {
		for k, b := range t.buckets {
			if now.Sub(b.seen) > throttleTTL {
				delete(t.buckets, k)
			}
		}
	}
	b, ok := t.buckets[username]
	if !ok {
		b = &throttleBucket{lim: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[username] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}
