package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGStore implements Store using PostgreSQL. All timestamps come from the
// database clock so concurrent application instances agree on session age.
type PGStore struct {
	db     *sql.DB
	tokens *TokenSource
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db, tokens: NewTokenSource()}
}

func (s *PGStore) Create(ctx context.Context, userID, username, passwordHash, ip string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		token := s.tokens.Next(username, passwordHash)
		_, err := s.db.ExecContext(ctx,
			`insert into sessions(token, user_id, bound_ip, created_at, last_activity_at)
			 values($1,$2,nullif($3,''),now(),now())`,
			token, userID, ip,
		)
		if err == nil {
			return token, nil
		}
		if !isUniqueViolation(err) {
			return "", err
		}
		lastErr = err
	}
	return "", errors.Join(ErrDuplicateToken, lastErr)
}

func (s *PGStore) Get(ctx context.Context, token string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`select token, user_id, coalesce(bound_ip,''), created_at, last_activity_at
		 from sessions where token=$1`, token)
	var (
		rec  Record
		last sql.NullTime
	)
	if err := row.Scan(&rec.Token, &rec.UserID, &rec.BoundIP, &rec.CreatedAt, &last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if last.Valid {
		rec.LastActivityAt = &last.Time
	}
	return rec, nil
}

func (s *PGStore) Touch(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx,
		`update sessions set last_activity_at=now() where token=$1`, token)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ActivityAge(ctx context.Context, token string) (time.Duration, error) {
	row := s.db.QueryRowContext(ctx,
		`select extract(epoch from (now() - last_activity_at)) from sessions where token=$1`, token)
	var seconds sql.NullFloat64
	if err := row.Scan(&seconds); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if !seconds.Valid {
		return 0, ErrAgePending
	}
	age := time.Duration(seconds.Float64 * float64(time.Second))
	if age < 0 {
		age = 0
	}
	return age, nil
}

func (s *PGStore) BoundIP(ctx context.Context, token string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`select coalesce(bound_ip,'') from sessions where token=$1`, token)
	var ip string
	if err := row.Scan(&ip); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return ip, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
