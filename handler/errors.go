package handler

import (
	"errors"
	"net/http"
)

// ErrNilResponse indicates a handler returned nil instead of a Response.
var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError is an error with a status code and a stable key clients can
// switch on. Message overrides the default status text.
type HTTPError struct {
	Code    int
	Key     string
	Message string
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Key
}

// Text returns Message or, when empty, the status text.
func (e HTTPError) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

// WithMessage returns a copy of e with msg as its client message.
func (e HTTPError) WithMessage(msg string) HTTPError {
	e.Message = msg
	return e
}

// NewHTTPError creates an HTTPError with the given status code and key.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

var (
	ErrBadRequest           = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized         = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden            = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrNotFound             = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrConflict             = HTTPError{Code: http.StatusConflict, Key: "conflict"}
	ErrRequestTooLarge      = HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "request_entity_too_large"}
	ErrUnsupportedMediaType = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrUnprocessableEntity  = HTTPError{Code: http.StatusUnprocessableEntity, Key: "unprocessable_entity"}
	ErrTooManyRequests      = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}

	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
	ErrBadGateway          = HTTPError{Code: http.StatusBadGateway, Key: "bad_gateway"}
	ErrServiceUnavailable  = HTTPError{Code: http.StatusServiceUnavailable, Key: "service_unavailable"}
	ErrGatewayTimeout      = HTTPError{Code: http.StatusGatewayTimeout, Key: "gateway_timeout"}
)

type failResponse struct{ err error }

func (f failResponse) Render(http.ResponseWriter, *http.Request) error { return f.err }

// Fail hands err to the ErrorHandler configured on Wrap. Headers already set
// on the writer, such as Retry-After, are kept.
func Fail(err error) Response {
	return failResponse{err: err}
}
