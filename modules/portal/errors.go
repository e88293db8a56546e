package portal

import (
	"context"
	"errors"
	"net/http"

	"github.com/jrmsu/libraryid/handler"
	"github.com/jrmsu/libraryid/pkg/envelope"
	"github.com/jrmsu/libraryid/pkg/resetlimit"
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/svc/auth"
	"github.com/jrmsu/libraryid/svc/identity"
	"github.com/jrmsu/libraryid/svc/reset"
)

var (
	errUnauthenticated = httpErr(http.StatusUnauthorized, "auth.not_authenticated", "Sign in to continue.")
	errForbidden       = httpErr(http.StatusForbidden, "auth.forbidden", "Administrator access required.")
	errUnknownFormat   = httpErr(http.StatusBadRequest, "bad_request", "Unsupported format, use json or png.")
)

func httpErr(code int, key, msg string) handler.HTTPError {
	return handler.NewHTTPError(code, key).WithMessage(msg)
}

// Order matters: the first matching sentinel wins.
var mappings = []struct {
	target error
	resp   handler.HTTPError
}{
	{auth.ErrAuthenticationFailed, httpErr(http.StatusUnauthorized, "auth.authentication_failed", "Invalid credentials.")},
	{auth.ErrInvalidSecondFactorCode, httpErr(http.StatusUnauthorized, "auth.invalid_or_expired_code", "Invalid or expired code.")},
	{auth.ErrNotAuthenticated, errUnauthenticated},
	{session.ErrNotFound, errUnauthenticated},
	{session.ErrExpired, errUnauthenticated},
	{auth.ErrAttemptNotFound, httpErr(http.StatusNotFound, "auth.attempt_not_found", "Sign-in attempt not found or expired.")},
	{auth.ErrSecondFactorEnabled, httpErr(http.StatusConflict, "auth.second_factor_enabled", "Two-factor authentication is already enabled.")},
	{auth.ErrSecondFactorDisabled, httpErr(http.StatusConflict, "auth.second_factor_not_enabled", "Two-factor authentication is not enabled.")},
	{auth.ErrInvalidSecret, httpErr(http.StatusUnprocessableEntity, "auth.invalid_secret", "The secret is not a valid base32 key.")},

	{envelope.ErrMalformed, httpErr(http.StatusBadRequest, "qr.malformed", "The QR code is not a library identity code.")},
	{envelope.ErrMissingFields, httpErr(http.StatusBadRequest, "qr.missing_fields", "The QR code is missing required fields.")},
	{envelope.ErrUnrecognizedSystem, httpErr(http.StatusBadRequest, "qr.unrecognized_system", "The QR code was issued by another system.")},
	{envelope.ErrInvalidRole, httpErr(http.StatusBadRequest, "qr.invalid_user_type", "The QR code has an unknown user type.")},
	{envelope.ErrRoleTagMismatch, httpErr(http.StatusBadRequest, "qr.tag_role_mismatch", "The QR code's system tag does not match its user type.")},

	{identity.ErrNotFound, httpErr(http.StatusNotFound, "identity.not_found", "No account matches that id or email.")},
	{resetlimit.ErrBlocked, httpErr(http.StatusTooManyRequests, "reset.blocked", "Too many reset requests, try again later.")},
	{resetlimit.ErrInvalidEmail, httpErr(http.StatusUnprocessableEntity, "reset.invalid_email", "The account has no email address on file.")},
	{reset.ErrMissingRequester, httpErr(http.StatusUnprocessableEntity, "reset.missing_requester", "A library id or email is required.")},
	{reset.ErrInvalidAction, httpErr(http.StatusUnprocessableEntity, "reset.invalid_action", "Action must be grant or decline.")},
	{reset.ErrNoAdministrators, httpErr(http.StatusServiceUnavailable, "reset.no_administrators", "No administrator is available to handle the request.")},
	{reset.ErrNotificationFailed, httpErr(http.StatusBadGateway, "reset.notification_failed", "Administrators could not be notified, try again.")},
}

// classify maps service errors to client errors.
func classify(err error) (handler.HTTPError, bool) {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.resp, true
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return handler.ErrGatewayTimeout, true
	}
	return handler.HTTPError{}, false
}
