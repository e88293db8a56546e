// Package totpremote implements the advisory second-factor check: a JSON
// endpoint that answers {secret, token, window} with {valid}, and a client
// for it.
//
// The endpoint validates with github.com/pquerna/otp, an engine independent
// of pkg/totp, so the advisory result is a genuine second opinion. Callers
// treat the client's answer as advisory only: failures to reach the endpoint
// are logged and never change a local verification result.
package totpremote
