package auth

import "errors"

var (
	ErrNotFound       = errors.New("auth: not found")
	ErrConflict       = errors.New("auth: already exists")
	ErrBadCredentials = errors.New("auth: bad credentials")
	ErrInvalidInput   = errors.New("auth: invalid input")
)
