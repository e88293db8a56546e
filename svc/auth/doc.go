// Package auth sequences library sign-in.
//
// Each attempt runs on its own state machine:
//
//	unauthenticated -> credentials_accepted ------------+
//	unauthenticated -> qr_presented -> qr_validated ----+-> awaiting_second_factor -> authenticated
//	                                                    +-> authenticated
//
// The password path requires the id to match the claimed role's pattern. The
// QR path accepts any envelope that decodes and whose user id names an active
// identity of the same role; the envelope's auth code and token are not
// verified. Attempts waiting for a second factor are held in memory for
// Config.AttemptTTL and accept unlimited retries. A session is written only
// when an attempt enters authenticated.
//
// When a RemoteVerifier is configured, every submitted code is also sent to
// it in the background with the narrow window. The answer is logged and never
// changes the local result.
package auth
