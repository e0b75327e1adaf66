package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("session: not found")
	ErrMalformedToken = errors.New("session: malformed token")
	ErrDuplicateToken = errors.New("session: duplicate token")
	ErrAgePending     = errors.New("session: activity timestamp being written")
	ErrAgeUnavailable = errors.New("session: activity timestamp unavailable")
)

// Record is one issued session. LastActivityAt is nil while a concurrent
// Touch is mid-write; readers must treat that as "try again", not as a
// liveness verdict either way.
type Record struct {
	Token          string
	UserID         string
	BoundIP        string // empty when the session is not pinned to an address
	CreatedAt      time.Time
	LastActivityAt *time.Time
}

// Store describes persistence operations for sessions. Timestamps are always
// the store's own clock, never caller-supplied.
type Store interface {
	// Create issues a fresh token for userID and persists the record.
	// The username and password hash feed token derivation.
	Create(ctx context.Context, userID, username, passwordHash, ip string) (string, error)
	Get(ctx context.Context, token string) (Record, error)
	// Touch slides the activity window forward to the store's "now".
	Touch(ctx context.Context, token string) error
	// ActivityAge returns the elapsed time since the last activity. It may
	// return ErrAgePending when the read lands mid-Touch; use Age for the
	// retrying read.
	ActivityAge(ctx context.Context, token string) (time.Duration, error)
	BoundIP(ctx context.Context, token string) (string, error)
}

const (
	ageRetries = 3
	ageBackoff = 25 * time.Millisecond
)

// Age reads the inactivity age of a token, retrying reads that land in the
// middle of a concurrent Touch. If every retry still lands mid-write the age
// is unknown and ErrAgeUnavailable is returned; callers must treat that as
// a transient denial, not as "not expired".
func Age(ctx context.Context, st Store, token string) (time.Duration, error) {
	for attempt := 0; ; attempt++ {
		age, err := st.ActivityAge(ctx, token)
		if err == nil {
			return age, nil
		}
		if !errors.Is(err, ErrAgePending) {
			return 0, err
		}
		if attempt >= ageRetries {
			return 0, ErrAgeUnavailable
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(ageBackoff):
		}
	}
}
