package handler

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ValidationError collects per-field messages. It renders as 422 with the
// fields under error.details.
type ValidationError url.Values

// NewValidationError creates an empty ValidationError.
func NewValidationError() ValidationError {
	return make(ValidationError)
}

// Error summarises the first message of each field in field order.
func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if msgs := e[f]; len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", f, msgs[0]))
		}
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// Add appends message for field.
func (e ValidationError) Add(field, message string) {
	url.Values(e).Add(field, message)
}

// Require adds "is required" for field when value is blank.
func (e ValidationError) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "is required")
	}
}

// Has reports whether field has messages.
func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

// Err returns e when it holds messages, nil otherwise.
func (e ValidationError) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
