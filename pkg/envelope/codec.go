package envelope

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Proof is the authentication-proof pair stamped into an envelope.
type Proof struct {
	AuthCode       string
	EncryptedToken string
}

// ProofFunc produces the proof pair for an identity at issue time.
type ProofFunc func(id Identity, issuedAt time.Time) (Proof, error)

// Codec encodes identities into envelopes and validates scanned envelopes.
type Codec struct {
	now    func() time.Time
	maxAge time.Duration
	proof  ProofFunc
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock sets the time source used for stamping and the age check.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxAge overrides the stale-warning threshold.
func WithMaxAge(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithProof replaces the default proof generator.
func WithProof(fn ProofFunc) Option {
	return func(c *Codec) {
		if fn != nil {
			c.proof = fn
		}
	}
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		now:    time.Now,
		maxAge: MaxAge,
		proof:  DefaultProof,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultProof issues a random six-digit auth code and a token of
// base64("<userId>-<epoch ms>").
func DefaultProof(id Identity, issuedAt time.Time) (Proof, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return Proof{}, err
	}
	token := id.UserID + "-" + strconv.FormatInt(issuedAt.UnixMilli(), 10)
	return Proof{
		AuthCode:       fmt.Sprintf("%06d", n.Int64()),
		EncryptedToken: base64.StdEncoding.EncodeToString([]byte(token)),
	}, nil
}

// Build stamps an Envelope for id at the current time.
func (c *Codec) Build(id Identity) (Envelope, error) {
	if !id.UserType.Valid() {
		return Envelope{}, errors.Join(ErrInvalidIdentity, ErrInvalidRole)
	}
	name := norm.NFC.String(strings.TrimSpace(id.FullName))
	if name == "" || strings.TrimSpace(id.UserID) == "" {
		return Envelope{}, fmt.Errorf("%w: full name and user id are required", ErrInvalidIdentity)
	}

	now := c.now()
	proof, err := c.proof(id, now)
	if err != nil {
		return Envelope{}, errors.Join(ErrInvalidIdentity, err)
	}

	role := id.RoleDescription
	if role == "" {
		role = id.UserType.Description()
	}

	return Envelope{
		FullName:       name,
		UserID:         id.UserID,
		UserType:       id.UserType,
		SystemID:       SystemID,
		SystemTag:      id.UserType.Tag(),
		Timestamp:      now.UnixMilli(),
		AuthCode:       proof.AuthCode,
		EncryptedToken: proof.EncryptedToken,
		TwoFactorKey:   id.TwoFactorKey,
		Department:     id.Department,
		Course:         id.Course,
		Year:           id.Year,
		Section:        id.Section,
		Position:       id.Position,
		Role:           role,
	}, nil
}

// Encode returns the envelope text for id.
func (c *Codec) Encode(id Identity) (string, error) {
	env, err := c.Build(id)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return "", errors.Join(ErrInvalidIdentity, err)
	}
	return string(b), nil
}

// Decode parses and validates scanned envelope text.
func (c *Codec) Decode(text string) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(text))))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return Result{}, ErrMalformed
	}
	if dec.More() {
		return Result{}, ErrMalformed
	}

	env, missing := resolve(raw)
	if len(missing) > 0 {
		return Result{}, &MissingFieldsError{Fields: missing}
	}
	return c.Validate(env)
}

// Validate checks an already canonical envelope.
func (c *Codec) Validate(env Envelope) (Result, error) {
	if env.SystemID != SystemID {
		return Result{}, ErrUnrecognizedSystem
	}
	if !env.UserType.Valid() {
		return Result{}, ErrInvalidRole
	}
	if env.SystemTag != env.UserType.Tag() {
		return Result{}, ErrRoleTagMismatch
	}

	res := Result{Envelope: env}
	if !ValidID(env.UserType, env.UserID) {
		res.Warnings = append(res.Warnings, Warning{
			Kind:    ErrIDFormat,
			Message: fmt.Sprintf("user id %q does not match the %s id format", env.UserID, env.UserType),
		})
	}
	if age := c.now().Sub(env.IssuedAt()); age > c.maxAge {
		res.Warnings = append(res.Warnings, Warning{
			Kind:    ErrStale,
			Message: fmt.Sprintf("envelope issued %s ago", age.Truncate(time.Second)),
		})
	}
	return res, nil
}
