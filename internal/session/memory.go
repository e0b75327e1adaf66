package session

import (
	"context"
	"sync"
	"time"
)

const createAttempts = 4

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu   sync.Mutex
	recs map[string]*Record
	now  func() time.Time
	gen  func(username, passwordHash string) string
}

var _ Store = (*InMemory)(nil)

// Option configures InMemory behavior.
type Option func(*InMemory)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *InMemory) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewInMemory creates an empty in-memory session store.
func NewInMemory(opts ...Option) *InMemory {
	s := &InMemory{
		recs: make(map[string]*Record),
		now:  time.Now,
	}
	ts := NewTokenSource()
	s.gen = ts.Next
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) Create(ctx context.Context, userID, username, passwordHash, ip string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for attempt := 0; attempt < createAttempts; attempt++ {
		token := s.gen(username, passwordHash)
		if _, exists := s.recs[token]; exists {
			continue
		}
		now := s.now().UTC()
		last := now
		s.recs[token] = &Record{
			Token:          token,
			UserID:         userID,
			BoundIP:        ip,
			CreatedAt:      now,
			LastActivityAt: &last,
		}
		return token, nil
	}
	return "", ErrDuplicateToken
}

func (s *InMemory) Get(ctx context.Context, token string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[token]
	if !ok {
		return Record{}, ErrNotFound
	}
	out := *rec
	if rec.LastActivityAt != nil {
		last := *rec.LastActivityAt
		out.LastActivityAt = &last
	}
	return out, nil
}

func (s *InMemory) Touch(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[token]
	if !ok {
		return ErrNotFound
	}
	now := s.now().UTC()
	rec.LastActivityAt = &now
	return nil
}

func (s *InMemory) ActivityAge(ctx context.Context, token string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[token]
	if !ok {
		return 0, ErrNotFound
	}
	if rec.LastActivityAt == nil {
		return 0, ErrAgePending
	}
	age := s.now().UTC().Sub(*rec.LastActivityAt)
	if age < 0 {
		age = 0
	}
	return age, nil
}

func (s *InMemory) BoundIP(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[token]
	if !ok {
		return "", ErrNotFound
	}
	return rec.BoundIP, nil
}
