package auth

import "context"

// UserStore describes persistence operations for directory users.
type UserStore interface {
	// Create inserts a user with atomic username/email uniqueness; a
	// duplicate of either returns ErrConflict.
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	// SaveProfile applies a batched profile update in one write.
	SaveProfile(ctx context.Context, id string, upd ProfileUpdate) error
	SetDisabled(ctx context.Context, id string, disabled bool) error
}
