package portal

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jrmsu/libraryid/handler"
	"github.com/jrmsu/libraryid/pkg/clientip"
	"github.com/jrmsu/libraryid/pkg/envelope"
	"github.com/jrmsu/libraryid/pkg/logger"
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/svc/auth"
)

// Guard resolves the session cookie into a session record.
type Guard struct {
	auth    *auth.Service
	cookies session.CookieTransport
	errors  handler.ErrorHandler
}

// NewGuard creates a Guard.
func NewGuard(svc *auth.Service, cookies session.CookieTransport, log *slog.Logger) *Guard {
	return &Guard{auth: svc, cookies: cookies, errors: handler.JSONErrorHandler(log, classify)}
}

// RequireSession rejects requests without a live session with 401. The
// record is put into the request context and the cookie expiry slides.
func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := g.cookies.Key(r)
		if key == "" {
			g.errors(handler.NewContext(w, r), auth.ErrNotAuthenticated)
			return
		}
		rec, err := g.auth.Current(r.Context(), key)
		if err != nil {
			if _, ok := classify(err); ok {
				g.cookies.Clear(w)
			}
			g.errors(handler.NewContext(w, r), err)
			return
		}
		g.cookies.Set(w, key)
		next.ServeHTTP(w, r.WithContext(session.WithRecord(r.Context(), rec)))
	})
}

// RequireRole admits only sessions of role. It must run after
// RequireSession.
func (g *Guard) RequireRole(role envelope.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, ok := session.FromContext(r.Context())
			switch {
			case !ok:
				g.errors(handler.NewContext(w, r), auth.ErrNotAuthenticated)
			case rec.Role != string(role):
				g.errors(handler.NewContext(w, r), errForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// accessLog writes one record per request.
func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAttrs(r.Context(), slog.LevelInfo, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("client_ip", clientip.FromContext(r.Context())),
			)
		})
	}
}

// RequestIDExtractor adds chi's request id to log records.
func RequestIDExtractor() logger.ContextExtractor {
	return logger.ContextValue("request_id", middleware.RequestIDKey)
}
