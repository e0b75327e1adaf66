package auth

import (
	"context"
	"errors"
	"fmt"
)

// Verifier validates credentials against the user store. It reports the
// account's disabled flag but never enforces it; that decision belongs to the
// engine.
type Verifier struct {
	users UserStore
}

// NewVerifier constructs a Verifier.
func NewVerifier(users UserStore) (*Verifier, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	return &Verifier{users: users}, nil
}

// Verify checks the username/password pair. ErrNotFound means the username
// does not exist; ErrBadCredentials means the password did not match under
// the stored salt.
func (v *Verifier) Verify(ctx context.Context, username, password string) (VerifyResult, error) {
	if username == "" || password == "" {
		return VerifyResult{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	u, err := v.users.FindByUsername(ctx, username)
	if err != nil {
		return VerifyResult{}, err
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		return VerifyResult{}, ErrBadCredentials
	}
	return VerifyResult{UserID: u.ID, Disabled: u.Disabled}, nil
}
