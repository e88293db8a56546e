package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrmsu/libraryid/pkg/logger"
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/pkg/totp"
)

// Enrollment is what an authenticator app needs to add an account.
type Enrollment struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

// SetupSecondFactor returns the pending secret held in the session, creating
// one if there is none. It fails while the second factor is enabled.
func (s *Service) SetupSecondFactor(ctx context.Context, sess *session.Record) (Enrollment, error) {
	if sess == nil {
		return Enrollment{}, ErrNotAuthenticated
	}
	if sess.SecondFactorEnabled {
		return Enrollment{}, ErrSecondFactorEnabled
	}
	if sess.TOTPSecret != "" {
		return s.enrollment(sess.Identity.ID, sess.TOTPSecret)
	}
	return s.rotatePending(ctx, sess)
}

// RegenerateSecret replaces the pending secret. Disable the second factor
// before rotating an active one.
func (s *Service) RegenerateSecret(ctx context.Context, sess *session.Record) (Enrollment, error) {
	if sess == nil {
		return Enrollment{}, ErrNotAuthenticated
	}
	if sess.SecondFactorEnabled {
		return Enrollment{}, ErrSecondFactorEnabled
	}
	return s.rotatePending(ctx, sess)
}

// EnableSecondFactor confirms that code matches secret, then stores the
// normalized secret with the enabled flag and rewrites the session. An
// enabled second factor must be disabled before another secret is stored.
func (s *Service) EnableSecondFactor(ctx context.Context, sess *session.Record, secret, code string) error {
	if sess == nil {
		return ErrNotAuthenticated
	}
	if sess.SecondFactorEnabled {
		return ErrSecondFactorEnabled
	}
	secret = totp.NormalizeSecret(secret)
	if _, err := totp.DecodeSecret(secret); err != nil {
		return errors.Join(ErrInvalidSecret, err)
	}

	ok, err := totp.Verify(secret, code, s.now(), totp.Symmetric(s.cfg.LocalWindow))
	if err != nil && !errors.Is(err, totp.ErrInvalidOTP) {
		return fmt.Errorf("verify confirmation code: %w", err)
	}
	if !ok {
		return ErrInvalidSecondFactorCode
	}

	sctx, cancel := s.storeContext(ctx)
	err = s.store.UpdateSecondFactor(sctx, sess.Identity.ID, secret, true)
	cancel()
	if err != nil {
		return fmt.Errorf("enable second factor: %w", err)
	}

	sess.TOTPSecret = secret
	sess.SecondFactorEnabled = true
	if err := s.sessions.Replace(ctx, sess); err != nil {
		return fmt.Errorf("rewrite session: %w", err)
	}
	s.log.InfoContext(ctx, "second factor enabled", logger.UserID(sess.Identity.ID))
	return nil
}

// DisableSecondFactor clears the secret and the enabled flag.
func (s *Service) DisableSecondFactor(ctx context.Context, sess *session.Record) error {
	if sess == nil {
		return ErrNotAuthenticated
	}
	if !sess.SecondFactorEnabled {
		return ErrSecondFactorDisabled
	}

	sctx, cancel := s.storeContext(ctx)
	err := s.store.UpdateSecondFactor(sctx, sess.Identity.ID, "", false)
	cancel()
	if err != nil {
		return fmt.Errorf("disable second factor: %w", err)
	}

	sess.TOTPSecret = ""
	sess.SecondFactorEnabled = false
	if err := s.sessions.Replace(ctx, sess); err != nil {
		return fmt.Errorf("rewrite session: %w", err)
	}
	s.log.InfoContext(ctx, "second factor disabled", logger.UserID(sess.Identity.ID))
	return nil
}

// ProfileEnvelope encodes a fresh envelope for the signed-in identity. The
// identity is reloaded so profile edits show up.
func (s *Service) ProfileEnvelope(ctx context.Context, sess *session.Record) (string, error) {
	if sess == nil {
		return "", ErrNotAuthenticated
	}
	sctx, cancel := s.storeContext(ctx)
	rec, err := s.store.GetByID(sctx, sess.Identity.ID)
	cancel()
	if err != nil {
		return "", fmt.Errorf("load identity: %w", err)
	}
	return s.codec.Encode(rec.EnvelopeIdentity())
}

func (s *Service) rotatePending(ctx context.Context, sess *session.Record) (Enrollment, error) {
	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return Enrollment{}, err
	}
	enr, err := s.enrollment(sess.Identity.ID, secret)
	if err != nil {
		return Enrollment{}, err
	}
	sess.TOTPSecret = secret
	if err := s.sessions.Replace(ctx, sess); err != nil {
		return Enrollment{}, fmt.Errorf("rewrite session: %w", err)
	}
	return enr, nil
}

func (s *Service) enrollment(account, secret string) (Enrollment, error) {
	uri, err := totp.BuildURI(secret, account, s.cfg.Issuer)
	if err != nil {
		return Enrollment{}, err
	}
	return Enrollment{Secret: secret, URI: uri}, nil
}
