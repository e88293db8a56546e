package portal

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jrmsu/libraryid/handler"
	"github.com/jrmsu/libraryid/pkg/binder"
	"github.com/jrmsu/libraryid/pkg/envelope"
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/svc/auth"
)

// AuthService serves the sign-in endpoints.
type AuthService struct {
	auth    *auth.Service
	guard   *Guard
	cookies session.CookieTransport
	errors  handler.ErrorHandler
}

// NewAuthService creates an AuthService.
func NewAuthService(svc *auth.Service, guard *Guard, cookies session.CookieTransport, log *slog.Logger) *AuthService {
	return &AuthService{
		auth:    svc,
		guard:   guard,
		cookies: cookies,
		errors:  handler.JSONErrorHandler(log, classify),
	}
}

// Handle returns the /auth routes.
func (s *AuthService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/login", handler.Wrap(s.login,
		handler.WithBinders[LoginRequest](binder.JSON()),
		handler.WithErrorHandler[LoginRequest](s.errors),
	))
	r.Post("/qr", handler.Wrap(s.qr,
		handler.WithBinders[QRRequest](binder.JSON()),
		handler.WithErrorHandler[QRRequest](s.errors),
	))
	r.Post("/2fa", handler.Wrap(s.secondFactor,
		handler.WithBinders[SecondFactorRequest](binder.JSON()),
		handler.WithErrorHandler[SecondFactorRequest](s.errors),
	))
	r.Post("/2fa/cancel", handler.Wrap(s.cancel,
		handler.WithBinders[CancelRequest](binder.JSON()),
		handler.WithErrorHandler[CancelRequest](s.errors),
	))
	r.Post("/logout", handler.Wrap(s.logout,
		handler.WithErrorHandler[struct{}](s.errors),
	))
	r.With(s.guard.RequireSession).Get("/me", handler.Wrap(s.me,
		handler.WithErrorHandler[struct{}](s.errors),
	))

	return r
}

// LoginRequest is the password sign-in body.
type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *AuthService) login(ctx handler.Context, req LoginRequest) handler.Response {
	verr := handler.NewValidationError()
	verr.Require("id", req.ID)
	verr.Require("password", req.Password)
	role := envelope.UserType(strings.ToLower(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		verr.Add("role", "must be admin or student")
	}
	if err := verr.Err(); err != nil {
		return handler.Fail(err)
	}

	out, err := s.auth.SubmitPassword(ctx, req.ID, req.Password, role)
	if err != nil {
		return handler.Fail(err)
	}
	return s.signIn(ctx, out)
}

// QRRequest carries the scanned envelope text.
type QRRequest struct {
	Payload string `json:"payload"`
}

func (s *AuthService) qr(ctx handler.Context, req QRRequest) handler.Response {
	if strings.TrimSpace(req.Payload) == "" {
		verr := handler.NewValidationError()
		verr.Add("payload", "is required")
		return handler.Fail(verr)
	}
	out, err := s.auth.PresentQR(ctx, req.Payload)
	if err != nil {
		return handler.Fail(err)
	}
	return s.signIn(ctx, out)
}

// SecondFactorRequest completes a parked attempt.
type SecondFactorRequest struct {
	AttemptID string `json:"attempt_id"`
	Code      string `json:"code"`
}

func (s *AuthService) secondFactor(ctx handler.Context, req SecondFactorRequest) handler.Response {
	verr := handler.NewValidationError()
	verr.Require("attempt_id", req.AttemptID)
	verr.Require("code", req.Code)
	if err := verr.Err(); err != nil {
		return handler.Fail(err)
	}

	out, err := s.auth.SubmitSecondFactor(ctx, req.AttemptID, strings.TrimSpace(req.Code))
	if err != nil {
		return handler.Fail(err)
	}
	return s.signIn(ctx, out)
}

// CancelRequest abandons a parked attempt.
type CancelRequest struct {
	AttemptID string `json:"attempt_id"`
}

func (s *AuthService) cancel(ctx handler.Context, req CancelRequest) handler.Response {
	s.auth.CancelAttempt(ctx, req.AttemptID)
	return handler.Empty()
}

func (s *AuthService) logout(ctx handler.Context, _ struct{}) handler.Response {
	if key := s.cookies.Key(ctx.Request()); key != "" {
		if err := s.auth.SignOut(ctx, key); err != nil && !errors.Is(err, session.ErrNotFound) {
			return handler.Fail(err)
		}
	}
	s.cookies.Clear(ctx.ResponseWriter())
	return handler.Empty()
}

func (s *AuthService) me(ctx handler.Context, _ struct{}) handler.Response {
	rec, ok := session.FromContext(ctx)
	if !ok {
		return handler.Fail(auth.ErrNotAuthenticated)
	}
	return handler.JSON(userView(rec))
}

// signIn sets the cookie on success and answers 202 while a second factor
// is pending.
func (s *AuthService) signIn(ctx handler.Context, out auth.Outcome) handler.Response {
	switch out.State {
	case auth.Authenticated:
		s.cookies.Set(ctx.ResponseWriter(), out.Session.Key)
		return handler.JSON(signInView(out))
	case auth.AwaitingSecondFactor:
		return handler.JSON(signInView(out), handler.WithJSONStatus(http.StatusAccepted))
	default:
		return handler.Fail(auth.ErrAuthenticationFailed)
	}
}
