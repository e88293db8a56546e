package reset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jrmsu/libraryid/pkg/logger"
	"github.com/jrmsu/libraryid/pkg/resetlimit"
	"github.com/jrmsu/libraryid/svc/identity"
)

// Action is an administrator's answer to a reset request.
type Action string

const (
	Grant   Action = "grant"
	Decline Action = "decline"
)

// Valid reports whether a is grant or decline.
func (a Action) Valid() bool { return a == Grant || a == Decline }

// Requester names the account asking for a reset, by id or by email.
type Requester struct {
	UserID string
	Email  string
}

// Receipt describes an accepted request.
type Receipt struct {
	RequesterID  string
	Attempts     int
	BlockedUntil time.Time // set when this request started the lockout
}

// Decision is the recorded answer to a request.
type Decision struct {
	RequesterID   string
	RequesterName string
	Action        Action
	AdminID       string
	Message       string
}

// Service runs the admin-mediated password reset flow.
type Service struct {
	store    identity.Store
	limiter  *resetlimit.Limiter
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the time source for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service.
func New(store identity.Store, limiter *resetlimit.Limiter, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		limiter:  limiter,
		notifier: notifier,
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("reset"))
	return s
}

// Request asks every active administrator to reset the requester's
// password. A blocked email fails with *resetlimit.BlockedError and is not
// counted. The attempt is counted only after the administrators were
// notified.
func (s *Service) Request(ctx context.Context, who Requester) (Receipt, error) {
	requester, err := s.lookup(ctx, who)
	if err != nil {
		return Receipt{}, err
	}
	if requester.Email == "" {
		return Receipt{}, fmt.Errorf("%w: %s has no email on file", resetlimit.ErrInvalidEmail, requester.ID)
	}

	status, err := s.limiter.Status(ctx, requester.Email)
	if err != nil {
		return Receipt{}, fmt.Errorf("load reset attempts: %w", err)
	}
	if until, blocked := status.BlockedAt(s.now()); blocked {
		return Receipt{}, &resetlimit.BlockedError{Until: until}
	}

	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("list administrators: %w", err)
	}
	if len(admins) == 0 {
		return Receipt{}, ErrNoAdministrators
	}

	if err := s.notifier.ResetRequested(ctx, admins, requester, status.Count+1, s.now()); err != nil {
		s.log.ErrorContext(ctx, "reset request notification failed", logger.UserID(requester.ID), logger.Error(err))
		return Receipt{}, errors.Join(ErrNotificationFailed, err)
	}

	res, err := s.limiter.Request(ctx, requester.Email)
	if err != nil {
		return Receipt{}, err
	}

	s.log.InfoContext(ctx, "password reset requested",
		logger.UserID(requester.ID), slog.Int("attempt", res.Attempts), slog.Bool("blocked", res.Blocked()))
	return Receipt{RequesterID: requester.ID, Attempts: res.Attempts, BlockedUntil: res.BlockedUntil}, nil
}

// Respond records an administrator's grant or decline and notifies the
// requester and all administrators. Granting clears the requester's attempt
// counter.
func (s *Service) Respond(ctx context.Context, requesterID string, action Action, adminID string) (Decision, error) {
	if strings.TrimSpace(requesterID) == "" {
		return Decision{}, ErrMissingRequester
	}
	if !action.Valid() {
		return Decision{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if adminID == "" {
		adminID = "Admin"
	}

	requester, err := s.store.GetByID(ctx, requesterID)
	if err != nil {
		return Decision{}, err
	}

	past := "declined"
	if action == Grant {
		past = "granted"
		if requester.Email != "" {
			if err := s.limiter.Clear(ctx, requester.Email); err != nil {
				return Decision{}, fmt.Errorf("clear reset attempts: %w", err)
			}
		}
	}
	d := Decision{
		RequesterID:   requester.ID,
		RequesterName: requester.FullName,
		Action:        action,
		AdminID:       adminID,
		Message:       fmt.Sprintf("Password reset request for %s (%s) has been %s.", requester.FullName, requester.ID, past),
	}

	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("list administrators: %w", err)
	}
	// The decision stands even when a notification bounces.
	if err := s.notifier.ResetDecided(ctx, admins, requester, d); err != nil {
		s.log.WarnContext(ctx, "reset decision notification failed", logger.UserID(requester.ID), logger.Error(err))
	}

	s.log.InfoContext(ctx, "password reset "+past, logger.UserID(requester.ID), slog.String("admin_id", adminID))
	return d, nil
}

func (s *Service) lookup(ctx context.Context, who Requester) (identity.Record, error) {
	switch {
	case strings.TrimSpace(who.UserID) != "":
		return s.store.GetByID(ctx, who.UserID)
	case strings.TrimSpace(who.Email) != "":
		return s.store.GetByEmail(ctx, who.Email)
	default:
		return identity.Record{}, ErrMissingRequester
	}
}
