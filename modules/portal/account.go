package portal

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jrmsu/libraryid/handler"
	"github.com/jrmsu/libraryid/pkg/binder"
	"github.com/jrmsu/libraryid/pkg/qrcode"
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/svc/auth"
)

// AccountService serves second-factor enrollment and the profile QR for
// the signed-in user.
type AccountService struct {
	auth   *auth.Service
	guard  *Guard
	qr     qrcode.Renderer
	errors handler.ErrorHandler
}

// NewAccountService creates an AccountService rendering codes with qr.
func NewAccountService(svc *auth.Service, guard *Guard, qr qrcode.Renderer, log *slog.Logger) *AccountService {
	return &AccountService{
		auth:   svc,
		guard:  guard,
		qr:     qr,
		errors: handler.JSONErrorHandler(log, classify),
	}
}

// Handle returns the /account routes. All of them require a session.
func (s *AccountService) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(s.guard.RequireSession)

	r.Route("/2fa", func(r chi.Router) {
		r.Post("/setup", handler.Wrap(s.setup, handler.WithErrorHandler[struct{}](s.errors)))
		r.Post("/regenerate", handler.Wrap(s.regenerate, handler.WithErrorHandler[struct{}](s.errors)))
		r.Post("/enable", handler.Wrap(s.enable,
			handler.WithBinders[EnableRequest](binder.JSON()),
			handler.WithErrorHandler[EnableRequest](s.errors),
		))
		r.Post("/disable", handler.Wrap(s.disable, handler.WithErrorHandler[struct{}](s.errors)))
	})
	r.Get("/qr", handler.Wrap(s.profileQR, handler.WithErrorHandler[struct{}](s.errors)))

	return r
}

// EnrollmentView is what the enrollment screen shows.
type EnrollmentView struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"` // PNG data URI of URI
}

// SecondFactorStatus reports the enabled flag after a change.
type SecondFactorStatus struct {
	SecondFactorEnabled bool `json:"second_factor_enabled"`
}

// ProfileQRView is the JSON form of GET /account/qr.
type ProfileQRView struct {
	Payload string `json:"payload"`
	QRCode  string `json:"qr_code"`
}

func (s *AccountService) setup(ctx handler.Context, _ struct{}) handler.Response {
	rec, _ := session.FromContext(ctx)
	enr, err := s.auth.SetupSecondFactor(ctx, rec)
	if err != nil {
		return handler.Fail(err)
	}
	return s.enrollment(enr)
}

func (s *AccountService) regenerate(ctx handler.Context, _ struct{}) handler.Response {
	rec, _ := session.FromContext(ctx)
	enr, err := s.auth.RegenerateSecret(ctx, rec)
	if err != nil {
		return handler.Fail(err)
	}
	return s.enrollment(enr)
}

// EnableRequest confirms enrollment with a code from the authenticator.
type EnableRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

func (s *AccountService) enable(ctx handler.Context, req EnableRequest) handler.Response {
	verr := handler.NewValidationError()
	verr.Require("secret", req.Secret)
	verr.Require("code", req.Code)
	if err := verr.Err(); err != nil {
		return handler.Fail(err)
	}

	rec, _ := session.FromContext(ctx)
	if err := s.auth.EnableSecondFactor(ctx, rec, req.Secret, req.Code); err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(SecondFactorStatus{SecondFactorEnabled: true})
}

func (s *AccountService) disable(ctx handler.Context, _ struct{}) handler.Response {
	rec, _ := session.FromContext(ctx)
	if err := s.auth.DisableSecondFactor(ctx, rec); err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(SecondFactorStatus{SecondFactorEnabled: false})
}

func (s *AccountService) profileQR(ctx handler.Context, _ struct{}) handler.Response {
	format := ctx.Request().URL.Query().Get("format")
	if format != "" && format != "json" && format != "png" {
		return handler.Fail(errUnknownFormat)
	}

	rec, _ := session.FromContext(ctx)
	payload, err := s.auth.ProfileEnvelope(ctx, rec)
	if err != nil {
		return handler.Fail(err)
	}

	if format == "png" {
		png, err := s.qr.PNG(payload)
		if err != nil {
			return handler.Fail(err)
		}
		return handler.Blob("image/png", png)
	}
	uri, err := s.qr.DataURI(payload)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(ProfileQRView{Payload: payload, QRCode: uri})
}

func (s *AccountService) enrollment(enr auth.Enrollment) handler.Response {
	uri, err := s.qr.DataURI(enr.URI)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(EnrollmentView{Secret: enr.Secret, URI: enr.URI, QRCode: uri})
}
