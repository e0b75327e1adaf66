package perm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MatchAny is the default match key pattern; it matches every requested key.
const MatchAny = "*"

var (
	ErrInvalidGrant = errors.New("perm: invalid grant")
	ErrNoGroups     = errors.New("perm: user belongs to no groups")
)

// Grant allows a user or a group to act on a resource within one client's
// scope. Exactly one of UserID and GroupID is set. MatchKey is a glob-style
// pattern evaluated against the requested match key.
type Grant struct {
	ID       string
	ClientID string
	UserID   string
	GroupID  string
	Resource string
	MatchKey string
	Mask     Mask
}

// Group is a named permission subject scoped to one client.
type Group struct {
	ID       string
	ClientID string
}

// Store describes persistence operations for grants and group membership.
type Store interface {
	Insert(ctx context.Context, g *Grant) error
	// UserGrantExists reports whether a user-level grant covers the request:
	// same client, same resource, match key pattern matching the requested
	// key, and a stored mask containing every requested bit.
	UserGrantExists(ctx context.Context, clientID, userID, resource, matchKey string, mask Mask) (bool, error)
	// GroupGrantExists is the same check scoped to any of the given groups.
	GroupGrantExists(ctx context.Context, clientID string, groupIDs []string, resource, matchKey string, mask Mask) (bool, error)

	CreateGroup(ctx context.Context, g *Group) error
	AddMember(ctx context.Context, groupID, userID string) error
	GroupsOf(ctx context.Context, clientID, userID string) ([]string, error)
}

// Checker resolves permission requests against the grant store.
type Checker struct {
	store Store
}

// NewChecker constructs a Checker.
func NewChecker(store Store) (*Checker, error) {
	if store == nil {
		return nil, errors.New("perm store is required")
	}
	return &Checker{store: store}, nil
}

// Grant validates and persists a grant. The match key defaults to MatchAny.
func (c *Checker) Grant(ctx context.Context, g Grant) error {
	if g.ClientID == "" || g.Resource == "" {
		return fmt.Errorf("%w: client and resource are required", ErrInvalidGrant)
	}
	if (g.UserID == "") == (g.GroupID == "") {
		return fmt.Errorf("%w: exactly one of user and group must be set", ErrInvalidGrant)
	}
	if !g.Mask.Valid() {
		return fmt.Errorf("%w: mask %d out of range", ErrInvalidGrant, g.Mask)
	}
	if strings.TrimSpace(g.MatchKey) == "" {
		g.MatchKey = MatchAny
	}
	return c.store.Insert(ctx, &g)
}

// AddMember records the user's membership in a group.
func (c *Checker) AddMember(ctx context.Context, groupID, userID string) error {
	if groupID == "" || userID == "" {
		return errors.New("perm: group and user ids are required")
	}
	return c.store.AddMember(ctx, groupID, userID)
}

// Check resolves whether the user may act on the resource with the requested
// mask. User-level grants are consulted strictly before group-level grants; a
// user-level hit short-circuits before group membership is ever loaded. A user
// with no matching user grant and no groups at all is indistinguishable from a
// misconfigured tenant and surfaces as ErrNoGroups.
func (c *Checker) Check(ctx context.Context, clientID, userID, resource, matchKey string, mask Mask) (bool, error) {
	if !mask.Valid() {
		return false, fmt.Errorf("%w: mask %d out of range", ErrInvalidGrant, mask)
	}
	if strings.TrimSpace(matchKey) == "" {
		matchKey = MatchAny
	}

	granted, err := c.store.UserGrantExists(ctx, clientID, userID, resource, matchKey, mask)
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	groups, err := c.store.GroupsOf(ctx, clientID, userID)
	if err != nil {
		return false, err
	}
	if len(groups) == 0 {
		return false, ErrNoGroups
	}
	return c.store.GroupGrantExists(ctx, clientID, groups, resource, matchKey, mask)
}
