package perm

import (
	"context"
	"path"
	"sync"

	"userdir.org/internal/ids"
)

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu      sync.RWMutex
	grants  []Grant
	groups  map[string]Group
	members map[string]map[string]struct{} // groupID -> userIDs
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty in-memory grant store.
func NewInMemory() *InMemory {
	return &InMemory{
		groups:  make(map[string]Group),
		members: make(map[string]map[string]struct{}),
	}
}

func (s *InMemory) Insert(ctx context.Context, g *Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = ids.New()
	}
	s.grants = append(s.grants, *g)
	return nil
}

func (s *InMemory) UserGrantExists(ctx context.Context, clientID, userID, resource, matchKey string, mask Mask) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.grants {
		if g.UserID == "" {
			continue
		}
		if g.UserID == userID && covers(g, clientID, resource, matchKey, mask) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) GroupGrantExists(ctx context.Context, clientID string, groupIDs []string, resource, matchKey string, mask Mask) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := make(map[string]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		in[id] = struct{}{}
	}
	for _, g := range s.grants {
		if g.GroupID == "" {
			continue
		}
		if _, ok := in[g.GroupID]; !ok {
			continue
		}
		if covers(g, clientID, resource, matchKey, mask) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) CreateGroup(ctx context.Context, g *Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = ids.New()
	}
	s.groups[g.ID] = *g
	return nil
}

func (s *InMemory) AddMember(ctx context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.members[groupID]
	if !ok {
		set = make(map[string]struct{})
		s.members[groupID] = set
	}
	set[userID] = struct{}{}
	return nil
}

func (s *InMemory) GroupsOf(ctx context.Context, clientID, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for groupID, set := range s.members {
		if _, ok := set[userID]; !ok {
			continue
		}
		if g, ok := s.groups[groupID]; ok && g.ClientID == clientID {
			out = append(out, groupID)
		}
	}
	return out, nil
}

func covers(g Grant, clientID, resource, matchKey string, mask Mask) bool {
	if g.ClientID != clientID || g.Resource != resource {
		return false
	}
	if !g.Mask.Contains(mask) {
		return false
	}
	return matchGlob(g.MatchKey, matchKey)
}

func matchGlob(pattern, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}
