package directory

import (
	"context"
	"sync"
	"time"

	"userdir.org/internal/ids"
)

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[string]Client
	byName   map[string]string
	byDomain map[string]string
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty in-memory client store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[string]Client),
		byName:   make(map[string]string),
		byDomain: make(map[string]string),
	}
}

func (s *InMemory) Create(ctx context.Context, c *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = ids.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.byID[c.ID] = *c
	if c.Name != "" {
		s.byName[c.Name] = c.ID
	}
	if c.Domain != "" {
		s.byDomain[c.Domain] = c.ID
	}
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id string) (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemory) FindByName(ctx context.Context, name string) (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return Client{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *InMemory) FindByDomain(ctx context.Context, domain string) (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byDomain[domain]
	if !ok {
		return Client{}, ErrNotFound
	}
	return s.byID[id], nil
}
