package auth

import (
	"context"
	"sync"
)

type userCacheKey struct{}

// userCache memoizes loaded user profiles for the lifetime of one calling
// context, keyed by session token. A re-authentication produces a new token
// and therefore a fresh cache slot.
type userCache struct {
	mu sync.Mutex
	m  map[string]*User
}

// WithUserCache installs a per-context user cache; GetUser consults it when
// present. Typical hosts install one cache per request.
func WithUserCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, userCacheKey{}, &userCache{m: make(map[string]*User)})
}

func userCacheFrom(ctx context.Context) *userCache {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(userCacheKey{}).(*userCache)
	return c
}

func (c *userCache) get(token string) (*User, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.m[token]
	return u, ok
}

func (c *userCache) put(token string, u *User) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[token] = u
}
