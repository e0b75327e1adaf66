package auth

import "time"

// User is an account in the central directory, shared by every client.
// Username and email are unique across the directory. Users are never hard
// deleted; administrative disable removes access while keeping history.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Disabled     bool      `json:"disabled"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser carries the fields accepted at registration.
type NewUser struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Address   string
}

// ProfileUpdate batches profile changes; nil fields are left untouched.
// Nothing is written until the update is explicitly saved.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
}

// Empty reports whether the update would change nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Email == nil && u.FirstName == nil && u.LastName == nil &&
		u.Phone == nil && u.Address == nil
}

// VerifyResult is the outcome of a credential check. The disabled flag is
// reported rather than enforced so the engine can distinguish "wrong
// password" from "disabled account".
type VerifyResult struct {
	UserID   string
	Disabled bool
}
