package portal

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jrmsu/libraryid/handler"
	"github.com/jrmsu/libraryid/pkg/clientip"
	"github.com/jrmsu/libraryid/pkg/httpserver"
	"github.com/jrmsu/libraryid/pkg/logger"
)

// Mountable is a group of routes.
type Mountable interface {
	Handle() http.Handler
}

// RouterOptions selects what Router mounts under /auth, /account,
// /password and POST /2fa/verify. Nil groups are skipped.
type RouterOptions struct {
	Auth     Mountable
	Account  Mountable
	Password Mountable
	Verify   http.Handler
	Checks   []httpserver.Check
	ClientIP clientip.Resolver
	Logger   *slog.Logger
}

// Router builds the portal router with request ids, client address
// resolution, access logging, panic recovery, and /healthz and /readyz
// probes.
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(opts.ClientIP.Middleware)
	r.Use(accessLog(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, opts.Checks...))

	if opts.Auth != nil {
		r.Mount("/auth", opts.Auth.Handle())
	}
	if opts.Account != nil {
		r.Mount("/account", opts.Account.Handle())
	}
	if opts.Password != nil {
		r.Mount("/password", opts.Password.Handle())
	}
	if opts.Verify != nil {
		r.Method(http.MethodPost, "/2fa/verify", opts.Verify)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		_ = handler.JSONError(handler.ErrNotFound).Render(w, req)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		_ = handler.JSONError(handler.NewHTTPError(http.StatusMethodNotAllowed, "method_not_allowed")).Render(w, req)
	})

	return r
}
