package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jrmsu/libraryid/pkg/async"
	"github.com/jrmsu/libraryid/pkg/envelope"
	"github.com/jrmsu/libraryid/pkg/logger"
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/pkg/statemachine"
	"github.com/jrmsu/libraryid/pkg/totp"
	"github.com/jrmsu/libraryid/pkg/totpremote"
	"github.com/jrmsu/libraryid/svc/identity"
)

// RemoteVerifier is the advisory second-opinion check, satisfied by
// *totpremote.Client.
type RemoteVerifier interface {
	Verify(ctx context.Context, req totpremote.Request) (bool, error)
}

// Outcome is the result of a sign-in step that did not fail.
type Outcome struct {
	State     State
	Session   *session.Record // set when State is Authenticated
	AttemptID string          // set when State is AwaitingSecondFactor
	Warnings  []string        // soft envelope findings on the QR path
}

// Service sequences password or QR sign-in with the optional second factor
// and manages second-factor enrollment for signed-in users.
type Service struct {
	cfg      Config
	store    identity.Store
	sessions *session.Manager
	codec    *envelope.Codec
	remote   RemoteVerifier
	attempts *attempts
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the time source used for TOTP steps and attempt expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRemoteVerifier enables the advisory remote check.
func WithRemoteVerifier(v RemoteVerifier) Option {
	return func(s *Service) { s.remote = v }
}

// New creates a Service.
func New(store identity.Store, sessions *session.Manager, codec *envelope.Codec, opts ...Option) *Service {
	s := &Service{
		cfg:      DefaultConfig(),
		store:    store,
		sessions: sessions,
		codec:    codec,
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.attempts = newAttempts(s.cfg.AttemptTTL)
	s.log = s.log.With(logger.Component("auth"))
	return s
}

// SubmitPassword checks id against the claimed role's pattern, authenticates
// with the identity store and confirms the stored role.
func (s *Service) SubmitPassword(ctx context.Context, id, password string, role envelope.UserType) (Outcome, error) {
	id = strings.TrimSpace(id)
	if !role.Valid() || !envelope.ValidID(role, id) {
		s.log.InfoContext(ctx, "sign-in rejected: id does not match role", logger.UserID(id), logger.Role(string(role)))
		return Outcome{State: Unauthenticated}, ErrAuthenticationFailed
	}

	sctx, cancel := s.storeContext(ctx)
	rec, err := s.store.Authenticate(sctx, id, password)
	cancel()
	if err != nil {
		return Outcome{State: Unauthenticated}, s.authError(ctx, id, err)
	}
	if rec.Role != role {
		s.log.InfoContext(ctx, "sign-in rejected: role mismatch", logger.UserID(id), logger.Role(string(role)))
		return Outcome{State: Unauthenticated}, ErrAuthenticationFailed
	}

	a := s.newAttempt(MethodPassword)
	a.Identity = rec
	if err := a.fsm.Fire(ctx, EventCredentialsAccepted, nil); err != nil {
		return Outcome{State: Unauthenticated}, err
	}
	return s.continueAfterFirstFactor(ctx, a)
}

// PresentQR signs in with scanned envelope text. The envelope's auth code and
// token are not checked against the identity store.
func (s *Service) PresentQR(ctx context.Context, text string) (Outcome, error) {
	a := s.newAttempt(MethodQR)
	if err := a.fsm.Fire(ctx, EventPresentQR, nil); err != nil {
		return Outcome{State: Unauthenticated}, err
	}

	res, err := s.codec.Decode(text)
	if err != nil {
		s.reject(ctx, a)
		s.log.InfoContext(ctx, "qr sign-in rejected", logger.AttemptID(a.ID), logger.Error(err))
		return Outcome{State: Unauthenticated}, err
	}
	a.Warnings = res.WarningMessages()
	if len(a.Warnings) > 0 {
		s.log.WarnContext(ctx, "envelope accepted with warnings",
			logger.AttemptID(a.ID), logger.UserID(res.Envelope.UserID), logger.Warnings(a.Warnings))
	}
	if err := a.fsm.Fire(ctx, EventEnvelopeValid, nil); err != nil {
		return Outcome{State: Unauthenticated}, err
	}

	sctx, cancel := s.storeContext(ctx)
	rec, err := s.store.GetByID(sctx, res.Envelope.UserID)
	cancel()
	switch {
	case errors.Is(err, identity.ErrNotFound):
		s.reject(ctx, a)
		return Outcome{State: Unauthenticated, Warnings: a.Warnings}, ErrAuthenticationFailed
	case err != nil:
		s.reject(ctx, a)
		return Outcome{State: Unauthenticated, Warnings: a.Warnings}, fmt.Errorf("lookup identity: %w", err)
	case !rec.Active || rec.Role != res.Envelope.UserType:
		s.reject(ctx, a)
		s.log.InfoContext(ctx, "qr sign-in rejected: inactive or role mismatch", logger.UserID(rec.ID))
		return Outcome{State: Unauthenticated, Warnings: a.Warnings}, ErrAuthenticationFailed
	}

	a.Identity = rec
	out, err := s.continueAfterFirstFactor(ctx, a)
	out.Warnings = a.Warnings
	return out, err
}

// SubmitSecondFactor verifies code for a parked attempt with the local
// window. A wrong code leaves the attempt waiting; there is no retry cap.
func (s *Service) SubmitSecondFactor(ctx context.Context, attemptID, code string) (Outcome, error) {
	a, ok := s.attempts.get(attemptID, s.now())
	if !ok {
		return Outcome{State: Unauthenticated}, ErrAttemptNotFound
	}
	waiting := Outcome{State: AwaitingSecondFactor, AttemptID: a.ID, Warnings: a.Warnings}

	secret := a.Identity.TOTPSecret
	valid, err := totp.Verify(secret, code, s.now(), totp.Symmetric(s.cfg.LocalWindow))
	switch {
	case errors.Is(err, totp.ErrInvalidOTP):
		valid = false
	case err != nil:
		s.log.ErrorContext(ctx, "stored TOTP secret is unusable", logger.UserID(a.Identity.ID), logger.Error(err))
		return waiting, fmt.Errorf("verify second factor: %w", err)
	}
	s.adviseRemote(ctx, a, secret, code, valid)

	if err := a.fsm.Fire(ctx, EventSubmitCode, codeCheck{valid: valid}); err != nil {
		if errors.Is(err, statemachine.ErrRejected) {
			return waiting, ErrInvalidSecondFactorCode
		}
		if errors.Is(err, statemachine.ErrNoTransition) {
			return Outcome{State: a.State()}, ErrAttemptNotFound
		}
		return waiting, err
	}

	s.attempts.remove(a.ID)
	return Outcome{State: Authenticated, Session: a.session, Warnings: a.Warnings}, nil
}

// CancelAttempt drops a parked attempt.
func (s *Service) CancelAttempt(ctx context.Context, attemptID string) {
	if a, ok := s.attempts.get(attemptID, s.now()); ok {
		s.reject(ctx, a)
		s.attempts.remove(attemptID)
	}
}

// SignOut destroys the session for key.
func (s *Service) SignOut(ctx context.Context, key string) error {
	return s.sessions.Destroy(ctx, key)
}

// Current returns the live session for key, touching it.
func (s *Service) Current(ctx context.Context, key string) (*session.Record, error) {
	rec, err := s.sessions.Current(ctx, key)
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		return nil, errors.Join(ErrNotAuthenticated, err)
	}
	return rec, err
}

func (s *Service) newAttempt(m Method) *Attempt {
	a := &Attempt{ID: newAttemptID(), Method: m, CreatedAt: s.now()}
	a.fsm = newMachine(a, s.grant(a))
	return a
}

// continueAfterFirstFactor either parks the attempt for a second factor or
// grants the session.
func (s *Service) continueAfterFirstFactor(ctx context.Context, a *Attempt) (Outcome, error) {
	if a.fsm.CanFire(ctx, EventRequireSecondFactor, nil) {
		if err := a.fsm.Fire(ctx, EventRequireSecondFactor, nil); err != nil {
			return Outcome{State: Unauthenticated}, err
		}
		s.attempts.put(a, s.now())
		s.log.InfoContext(ctx, "second factor required", logger.AttemptID(a.ID), logger.UserID(a.Identity.ID))
		return Outcome{State: AwaitingSecondFactor, AttemptID: a.ID}, nil
	}

	if err := a.fsm.Fire(ctx, EventGrant, nil); err != nil {
		s.reject(ctx, a)
		return Outcome{State: Unauthenticated}, err
	}
	return Outcome{State: Authenticated, Session: a.session}, nil
}

func (s *Service) grant(a *Attempt) statemachine.Action[State, Event] {
	return func(ctx context.Context, _, _ State, _ Event, _ any) error {
		rec, err := s.sessions.Create(ctx, sessionRecord(a.Identity))
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		a.session = rec
		s.log.InfoContext(ctx, "signed in",
			logger.UserID(a.Identity.ID), logger.Role(string(a.Identity.Role)), slog.String("method", string(a.Method)))
		return nil
	}
}

func (s *Service) reject(ctx context.Context, a *Attempt) {
	if a.fsm.CanFire(ctx, EventReject, nil) {
		_ = a.fsm.Fire(ctx, EventReject, nil)
	}
}

// adviseRemote runs the remote check detached from the request. Its result
// is only logged.
func (s *Service) adviseRemote(ctx context.Context, a *Attempt, secret, code string, local bool) {
	if s.remote == nil || secret == "" {
		return
	}
	req := totpremote.Request{Secret: secret, Token: code, Window: s.cfg.RemoteWindow}
	log := s.log.With(logger.AttemptID(a.ID), logger.UserID(a.Identity.ID))
	async.Detach(ctx, s.cfg.RemoteTimeout, req, s.remote.Verify, func(remote bool, err error) {
		switch {
		case err != nil:
			log.Debug("advisory TOTP check unavailable", logger.Error(err))
		case remote != local:
			log.Warn("advisory TOTP check disagrees", slog.Bool("local", local), slog.Bool("remote", remote))
		default:
			log.Debug("advisory TOTP check agrees", slog.Bool("valid", remote))
		}
	})
}

func (s *Service) authError(ctx context.Context, id string, err error) error {
	if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrInactive) {
		s.log.InfoContext(ctx, "sign-in rejected", logger.UserID(id), logger.Error(err))
		return ErrAuthenticationFailed
	}
	return fmt.Errorf("authenticate: %w", err)
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func sessionRecord(rec identity.Record) session.Record {
	return session.Record{
		Role: string(rec.Role),
		Identity: session.Snapshot{
			ID:         rec.ID,
			FullName:   rec.FullName,
			Email:      rec.Email,
			Department: rec.Department,
			Course:     rec.Course,
			Year:       rec.Year,
			Section:    rec.Section,
			Position:   rec.Position,
		},
		TOTPSecret:          rec.TOTPSecret,
		SecondFactorEnabled: rec.SecondFactorEnabled,
	}
}
