package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jrmsu/libraryid/pkg/binder"
	"github.com/jrmsu/libraryid/pkg/logger"
)

// Classifier maps a domain error to the HTTPError shown to clients. It
// returns false for errors it does not know.
type Classifier func(err error) (HTTPError, bool)

// Classify runs classifiers in order and falls back to the built-in
// mapping: HTTPError passes through, binder failures become 4xx, anything
// else is a 500.
func Classify(err error, classifiers ...Classifier) HTTPError {
	for _, c := range classifiers {
		if herr, ok := c(err); ok {
			return herr
		}
	}

	var herr HTTPError
	switch {
	case errors.As(err, &herr):
		return herr
	case errors.Is(err, binder.ErrBodyTooLarge):
		return ErrRequestTooLarge
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return ErrUnsupportedMediaType
	case errors.Is(err, binder.ErrFailedToParseJSON):
		return ErrBadRequest.WithMessage("request body is not valid JSON for this endpoint")
	default:
		return ErrInternalServerError
	}
}

// LogLevel is warn for 4xx and error for everything else.
func LogLevel(code int) slog.Level {
	if code >= http.StatusBadRequest && code < http.StatusInternalServerError {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// JSONErrorHandler logs err and renders it as a JSON error envelope.
// ValidationError keeps its field details.
func JSONErrorHandler(log *slog.Logger, classifiers ...Classifier) ErrorHandler {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx Context, err error) {
		var verr ValidationError
		var resp Response
		code := http.StatusUnprocessableEntity
		if errors.As(err, &verr) {
			resp = JSONError(verr)
		} else {
			herr := Classify(err, classifiers...)
			code = herr.Code
			resp = JSONError(herr)
		}

		r := ctx.Request()
		log.Log(ctx, LogLevel(code), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", code),
			logger.Error(err),
		)
		if rerr := resp.Render(ctx.ResponseWriter(), r); rerr != nil {
			log.ErrorContext(ctx, "failed to write error response", logger.Error(rerr))
		}
	}
}
