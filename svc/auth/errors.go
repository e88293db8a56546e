package auth

import "errors"

var (
	// ErrAuthenticationFailed covers bad passwords, unknown or inactive ids,
	// id pattern mismatches and role mismatches.
	ErrAuthenticationFailed    = errors.New("auth.authentication_failed")
	ErrInvalidSecondFactorCode = errors.New("auth.invalid_or_expired_code")
	ErrAttemptNotFound         = errors.New("auth.attempt_not_found")
	ErrSecondFactorEnabled     = errors.New("auth.second_factor_enabled")
	ErrSecondFactorDisabled    = errors.New("auth.second_factor_not_enabled")
	ErrNotAuthenticated        = errors.New("auth.not_authenticated")
	ErrInvalidSecret           = errors.New("auth.invalid_secret")
)
