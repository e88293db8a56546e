// Package totp implements RFC 6238 time-based one-time passwords with the fixed
// parameters used across the library: HMAC-SHA1, six digits and a 30 second step.
//
// Secrets are 32 Base32 symbols (160 bits). Input secrets are normalized by
// stripping whitespace and uppercasing before decoding.
//
// Verification accepts a code when it matches any step inside a Window around
// the reference time. Two windows are predefined: NarrowWindow (±2 steps) for
// the advisory remote check and WideWindow (±5 steps) for the authoritative
// local check.
//
//	secret, _ := totp.GenerateSecretKey()
//	uri, _ := totp.BuildURI(secret, "KC-21-A-00123", "JRMSU-LIBRARY")
//	ok, err := totp.Verify(secret, "123456", time.Now(), totp.WideWindow)
//
// Sealer wraps AES-256-GCM for keeping secrets encrypted at rest.
package totp
