// Package portal is the HTTP surface of the library identity service.
//
// Router mounts four groups of JSON endpoints on a chi router:
//
//	/auth      sign-in by password or QR, second factor, sign-out, current user
//	/account   second-factor enrollment and the profile QR envelope
//	/password  admin-mediated password reset requests and decisions
//	/2fa       the advisory TOTP verification endpoint
//
// Every JSON body is wrapped in the handler package's envelope. Errors
// carry a stable key under error.code, e.g. "auth.authentication_failed" or
// "reset.blocked". Signed-in requests are identified by the session cookie
// set on a successful sign-in.
package portal
