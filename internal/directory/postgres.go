package directory

import (
	"context"
	"database/sql"
	"errors"

	"userdir.org/internal/ids"
)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const clientColumns = `id, name, domain, default_group_id, timeout_seconds, cookie_name, description, admin_user_id, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, c *Client) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into clients(id, name, domain, default_group_id, timeout_seconds, cookie_name, description, admin_user_id)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.Name, c.Domain, c.DefaultGroupID, c.TimeoutSeconds, c.CookieName, c.Description, c.AdminUserID,
	)
	return err
}

func (s *PGStore) FindByID(ctx context.Context, id string) (Client, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`select `+clientColumns+` from clients where id=$1`, id))
}

func (s *PGStore) FindByName(ctx context.Context, name string) (Client, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`select `+clientColumns+` from clients where name=$1`, name))
}

func (s *PGStore) FindByDomain(ctx context.Context, domain string) (Client, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`select `+clientColumns+` from clients where domain=$1`, domain))
}

func (s *PGStore) scanOne(row *sql.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Domain, &c.DefaultGroupID, &c.TimeoutSeconds,
		&c.CookieName, &c.Description, &c.AdminUserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	if err != nil {
		return Client{}, err
	}
	return c, nil
}
