package identity

import "errors"

var (
	ErrNotFound           = errors.New("identity.not_found")
	ErrInvalidCredentials = errors.New("identity.invalid_credentials")
	ErrInactive           = errors.New("identity.inactive")
	ErrInvalidRecord      = errors.New("identity.invalid_record")
	ErrDuplicateEmail     = errors.New("identity.duplicate_email")
)
