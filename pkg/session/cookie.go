package session

import (
	"net/http"
	"time"
)

// CookieTransport carries the session key in an HttpOnly cookie.
type CookieTransport struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// NewCookieTransport builds a transport from config.
func NewCookieTransport(cfg Config) CookieTransport {
	return CookieTransport{Name: cfg.CookieName, Secure: cfg.SecureCookies, MaxAge: cfg.IdleTimeout}
}

// Key returns the session key from the request, or "".
func (t CookieTransport) Key(r *http.Request) string {
	c, err := r.Cookie(t.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Set writes the session key.
func (t CookieTransport) Set(w http.ResponseWriter, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.Name,
		Value:    key,
		Path:     "/",
		MaxAge:   int(t.MaxAge.Seconds()),
		Secure:   t.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie.
func (t CookieTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   t.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
