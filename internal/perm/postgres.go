package perm

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"userdir.org/internal/ids"
)

// PGStore implements Store using PostgreSQL. The glob-style match key stored
// on a grant is translated into a LIKE pattern ('*' -> '%', '?' -> '_') so
// matching happens in the database.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Insert(ctx context.Context, g *Grant) error {
	if g.ID == "" {
		g.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into grants(id, client_id, user_id, group_id, resource, match_key, mask)
		 values($1,$2,nullif($3,''),nullif($4,''),$5,$6,$7)`,
		g.ID, g.ClientID, g.UserID, g.GroupID, g.Resource, g.MatchKey, int(g.Mask),
	)
	return err
}

func (s *PGStore) UserGrantExists(ctx context.Context, clientID, userID, resource, matchKey string, mask Mask) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`select 1 from grants
		 where client_id=$1 and user_id=$2 and resource=$3
		   and (mask & $4) = $4
		   and $5 like replace(replace(match_key,'*','%'),'?','_')
		 limit 1`,
		clientID, userID, resource, int(mask), matchKey,
	)
	return existsScan(row)
}

func (s *PGStore) GroupGrantExists(ctx context.Context, clientID string, groupIDs []string, resource, matchKey string, mask Mask) (bool, error) {
	if len(groupIDs) == 0 {
		return false, nil
	}
	row := s.db.QueryRowContext(ctx,
		`select 1 from grants
		 where client_id=$1 and group_id = any(string_to_array($2, ','))
		   and resource=$3
		   and (mask & $4) = $4
		   and $5 like replace(replace(match_key,'*','%'),'?','_')
		 limit 1`,
		clientID, strings.Join(groupIDs, ","), resource, int(mask), matchKey,
	)
	return existsScan(row)
}

func (s *PGStore) CreateGroup(ctx context.Context, g *Group) error {
	if g.ID == "" {
		g.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into groups(id, client_id) values($1,$2)`, g.ID, g.ClientID)
	return err
}

func (s *PGStore) AddMember(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into group_members(group_id, user_id) values($1,$2) on conflict do nothing`,
		groupID, userID)
	return err
}

func (s *PGStore) GroupsOf(ctx context.Context, clientID, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select g.id from groups g
		 join group_members m on m.group_id = g.id
		 where g.client_id=$1 and m.user_id=$2`,
		clientID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func existsScan(row *sql.Row) (bool, error) {
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
