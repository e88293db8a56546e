// Package binder decodes HTTP request bodies into typed request values.
//
// JSON returns a binder that accepts only application/json, caps the body
// size, rejects unknown fields and rejects trailing data after the object:
//
//	bind := binder.JSON()
//	var req loginRequest
//	if err := bind(r, &req); err != nil {
//		// errors.Is(err, binder.ErrFailedToParseJSON) etc.
//	}
//
// String fields are decoded verbatim; passwords and envelope payloads must
// reach the services unchanged.
package binder
