package totpremote

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/jrmsu/libraryid/handler"
	"github.com/jrmsu/libraryid/pkg/binder"
	"github.com/jrmsu/libraryid/pkg/logger"
)

// maxRequestSize caps the verify request body.
const maxRequestSize = 4 << 10

// Handler serves the verify endpoint.
type Handler struct {
	logger *slog.Logger
	now    func() time.Time
	serve  http.HandlerFunc
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

func NewHandler(opts ...HandlerOption) *Handler {
	h := &Handler{
		logger: logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.serve = handler.Wrap(h.verify,
		handler.WithBinders[Request](binder.JSON(binder.WithMaxSize(maxRequestSize))),
		handler.WithErrorHandler[Request](h.reject),
	)
	return h
}

// Check validates one request. Invalid secrets and malformed tokens are reported as not valid.
func (h *Handler) Check(req Request) bool {
	secret := strings.ToUpper(strings.Join(strings.Fields(req.Secret), ""))
	token := strings.ReplaceAll(strings.TrimSpace(req.Token), " ", "")
	if secret == "" || token == "" {
		return false
	}

	ok, err := totp.ValidateCustom(token, secret, h.now(), totp.ValidateOpts{
		Period:    30,
		Skew:      uint(clampWindow(req.Window)),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		h.logger.Debug("remote totp validation error", logger.Error(err))
		return false
	}
	return ok
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r)
}

func (h *Handler) verify(_ handler.Context, req Request) handler.Response {
	return verdict{status: http.StatusOK, valid: h.Check(req)}
}

// reject answers a request that could not be bound with its 4xx status and
// {"valid":false}. Render failures are only logged since the status line is
// already out.
func (h *Handler) reject(ctx handler.Context, err error) {
	herr := handler.Classify(err)
	if herr.Code >= http.StatusInternalServerError {
		h.logger.WarnContext(ctx, "remote totp response failed", logger.Error(err))
		return
	}
	h.logger.DebugContext(ctx, "remote totp request rejected", logger.Error(err))
	_ = verdict{status: herr.Code}.Render(ctx.ResponseWriter(), ctx.Request())
}

// verdict renders the bare {"valid":bool} body Client reads. It is not
// wrapped in the portal's data envelope.
type verdict struct {
	status int
	valid  bool
}

func (v verdict) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(v.status)
	return json.NewEncoder(w).Encode(Response{Valid: v.valid})
}
