package envelope

import (
	"errors"
	"strings"
)

// Hard failures.
var (
	ErrMalformed          = errors.New("malformed payload")
	ErrMissingFields      = errors.New("missing required fields")
	ErrUnrecognizedSystem = errors.New("unrecognized system")
	ErrInvalidRole        = errors.New("invalid user type")
	ErrRoleTagMismatch    = errors.New("tag/role mismatch")
	ErrInvalidIdentity    = errors.New("identity cannot be encoded")
)

// Soft failures, carried as warnings.
var (
	ErrIDFormat = errors.New("user id does not match role pattern")
	ErrStale    = errors.New("envelope is stale")
)

// MissingFieldsError lists the canonical names of absent required fields.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return ErrMissingFields.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}

// Warning is a non-blocking validation finding.
type Warning struct {
	Kind    error // ErrIDFormat or ErrStale
	Message string
}

func (w Warning) Error() string { return w.Message }
func (w Warning) Unwrap() error { return w.Kind }
