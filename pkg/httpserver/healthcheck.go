package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jrmsu/libraryid/pkg/logger"
)

// Check is a named readiness probe, such as pg.Healthcheck or redis.Healthcheck.
type Check struct {
	Name  string
	Probe func(context.Context) error
}

// LivenessHandler always answers 200 ALIVE.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// ReadinessHandler runs every check with the request context and answers
// 503 NOT_READY on the first failure.
func ReadinessHandler(log *slog.Logger, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		for _, c := range checks {
			if err := c.Probe(r.Context()); err != nil {
				log.WarnContext(r.Context(), "readiness check failed",
					logger.Component(c.Name), logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
