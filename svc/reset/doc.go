// Package reset implements the admin-mediated password reset: a user asks
// the administrators for a reset, subject to the resetlimit lockout, and an
// administrator later grants or declines.
//
// Request reads and then updates the attempt record without a lock, so two
// concurrent requests for the same email can both pass the lockout check.
package reset
