package reset

import "errors"

var (
	ErrInvalidAction      = errors.New("reset.invalid_action")
	ErrMissingRequester   = errors.New("reset.missing_requester")
	ErrNoAdministrators   = errors.New("reset.no_administrators")
	ErrNotificationFailed = errors.New("reset.notification_failed")
)
