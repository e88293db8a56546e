package session

import "errors"

var (
	ErrNotFound      = errors.New("session.not_found")
	ErrExpired       = errors.New("session.expired")
	ErrInvalidRecord = errors.New("session.invalid")
)
