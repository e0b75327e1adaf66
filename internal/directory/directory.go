package directory

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNoSelector = errors.New("directory: no selector provided")
	ErrNotFound   = errors.New("directory: client not found")
)

// Client is a tenant of the central user directory. Each client shares the
// user base but owns its permission scope and session policy.
type Client struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Domain         string    `json:"domain"`
	DefaultGroupID string    `json:"default_group_id"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	CookieName     string    `json:"cookie_name"`
	Description    string    `json:"description,omitempty"`
	AdminUserID    string    `json:"admin_user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Selector identifies a client by exactly one of its unique attributes.
// When several are set, resolution prefers ID, then Name, then Domain.
type Selector struct {
	ID     string
	Name   string
	Domain string
}

// Store describes persistence operations required by the directory.
type Store interface {
	Create(ctx context.Context, c *Client) error
	FindByID(ctx context.Context, id string) (Client, error)
	FindByName(ctx context.Context, name string) (Client, error)
	FindByDomain(ctx context.Context, domain string) (Client, error)
}

// Directory resolves tenants and exposes their policy attributes.
type Directory struct {
	store Store
}

// New constructs a Directory backed by the given store.
func New(store Store) (*Directory, error) {
	if store == nil {
		return nil, errors.New("directory store is required")
	}
	return &Directory{store: store}, nil
}

// Resolve looks up a client by the first populated selector attribute.
// Returns ErrNoSelector when none is set and ErrNotFound for unknown clients.
func (d *Directory) Resolve(ctx context.Context, sel Selector) (Client, error) {
	switch {
	case strings.TrimSpace(sel.ID) != "":
		return d.store.FindByID(ctx, strings.TrimSpace(sel.ID))
	case strings.TrimSpace(sel.Name) != "":
		return d.store.FindByName(ctx, strings.TrimSpace(sel.Name))
	case strings.TrimSpace(sel.Domain) != "":
		return d.store.FindByDomain(ctx, strings.TrimSpace(sel.Domain))
	default:
		return Client{}, ErrNoSelector
	}
}
