// Package session persists the authenticated session of a portal user.
//
// A Record holds the role, an identity snapshot and the second-factor state of
// the signed-in user. Records are keyed by an opaque session key carried to the
// browser in a cookie. Absence of a record means the caller is unauthenticated.
//
// Manager layers the idle timeout over a Store: a record whose last activity is
// older than the timeout is deleted on read and reported as ErrExpired, and
// every successful read refreshes the activity time.
//
// Stores do not lock across processes. Two concurrent writers for the same key
// race and the last Save wins.
package session
