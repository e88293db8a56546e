package portal

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jrmsu/libraryid/handler"
	"github.com/jrmsu/libraryid/pkg/binder"
	"github.com/jrmsu/libraryid/pkg/envelope"
	"github.com/jrmsu/libraryid/pkg/resetlimit"
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/svc/reset"
)

// PasswordService serves the admin-mediated reset flow.
type PasswordService struct {
	reset  *reset.Service
	guard  *Guard
	errors handler.ErrorHandler
	now    func() time.Time
}

// NewPasswordService creates a PasswordService. now computes Retry-After
// and defaults to time.Now.
func NewPasswordService(svc *reset.Service, guard *Guard, log *slog.Logger, now func() time.Time) *PasswordService {
	if now == nil {
		now = time.Now
	}
	return &PasswordService{
		reset:  svc,
		guard:  guard,
		errors: handler.JSONErrorHandler(log, classify),
		now:    now,
	}
}

// Handle returns the /password routes. Responding to a request is limited
// to administrators.
func (s *PasswordService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/admin-request", handler.Wrap(s.adminRequest,
		handler.WithBinders[AdminResetRequest](binder.JSON()),
		handler.WithErrorHandler[AdminResetRequest](s.errors),
	))
	r.With(s.guard.RequireSession, s.guard.RequireRole(envelope.Admin)).
		Post("/admin-respond", handler.Wrap(s.adminRespond,
			handler.WithBinders[AdminResetResponse](binder.JSON()),
			handler.WithErrorHandler[AdminResetResponse](s.errors),
		))

	return r
}

// AdminResetRequest names the account by email or library id.
type AdminResetRequest struct {
	Email string `json:"email"`
	ID    string `json:"id"`
}

// ResetReceiptView answers an accepted reset request.
type ResetReceiptView struct {
	RequesterID  string     `json:"requester_id"`
	Attempts     int        `json:"attempts"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
	Message      string     `json:"message"`
}

func (s *PasswordService) adminRequest(ctx handler.Context, req AdminResetRequest) handler.Response {
	rcpt, err := s.reset.Request(ctx, reset.Requester{UserID: req.ID, Email: req.Email})
	if err != nil {
		var blocked *resetlimit.BlockedError
		if errors.As(err, &blocked) {
			ctx.ResponseWriter().Header().Set("Retry-After", retryAfter(blocked.RetryAfter(s.now())))
		}
		return handler.Fail(err)
	}

	view := ResetReceiptView{
		RequesterID: rcpt.RequesterID,
		Attempts:    rcpt.Attempts,
		Message:     "Your request was sent to the library administrators.",
	}
	if !rcpt.BlockedUntil.IsZero() {
		until := rcpt.BlockedUntil.UTC()
		view.BlockedUntil = &until
	}
	return handler.JSON(view, handler.WithJSONStatus(http.StatusAccepted))
}

// AdminResetResponse is an administrator's decision.
type AdminResetResponse struct {
	RequesterID string `json:"requester_id"`
	Action      string `json:"action"`
}

// DecisionView echoes the recorded decision.
type DecisionView struct {
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
	Action        string `json:"action"`
	AdminID       string `json:"admin_id"`
	Message       string `json:"message"`
}

func (s *PasswordService) adminRespond(ctx handler.Context, req AdminResetResponse) handler.Response {
	rec, _ := session.FromContext(ctx)
	adminID := ""
	if rec != nil {
		adminID = rec.Identity.ID
	}

	d, err := s.reset.Respond(ctx, req.RequesterID, reset.Action(req.Action), adminID)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(DecisionView{
		RequesterID:   d.RequesterID,
		RequesterName: d.RequesterName,
		Action:        string(d.Action),
		AdminID:       d.AdminID,
		Message:       d.Message,
	})
}

// retryAfter formats d as whole seconds, rounded up, at least 1.
func retryAfter(d time.Duration) string {
	return strconv.Itoa(max(int(math.Ceil(d.Seconds())), 1))
}
