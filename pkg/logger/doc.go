// Package logger builds *slog.Logger values for the portal and provides
// attribute helpers with stable key names.
//
// New applies functional options over production defaults (JSON, INFO,
// stdout). WithEnvironment switches to text output and DEBUG level outside
// production. Context extractors add request-scoped attributes, such as the
// request id, at log time.
package logger
