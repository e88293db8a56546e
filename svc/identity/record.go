package identity

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jrmsu/libraryid/pkg/envelope"
)

// Record is a library account. Role reuses the envelope user types.
type Record struct {
	ID                  string
	Role                envelope.UserType
	FullName            string
	Email               string
	Department          string
	Course              string
	Year                string
	Section             string
	Position            string
	PasswordHash        string
	TOTPSecret          string
	SecondFactorEnabled bool
	Active              bool
	UpdatedAt           time.Time
}

// Validate checks the role, the id pattern for that role and that an
// enabled second factor has a secret.
func (r Record) Validate() error {
	switch {
	case !r.Role.Valid():
		return fmt.Errorf("%w: unknown role %q", ErrInvalidRecord, r.Role)
	case !envelope.ValidID(r.Role, r.ID):
		return fmt.Errorf("%w: id %q does not match the %s pattern", ErrInvalidRecord, r.ID, r.Role)
	case strings.TrimSpace(r.FullName) == "":
		return fmt.Errorf("%w: full name is required", ErrInvalidRecord)
	case r.SecondFactorEnabled && r.TOTPSecret == "":
		return fmt.Errorf("%w: second factor enabled without a secret", ErrInvalidRecord)
	}
	return nil
}

// EnvelopeIdentity returns the public fields that go into a profile QR.
// The password hash and TOTP secret are never included.
func (r Record) EnvelopeIdentity() envelope.Identity {
	return envelope.Identity{
		FullName:   r.FullName,
		UserID:     r.ID,
		UserType:   r.Role,
		Department: r.Department,
		Course:     r.Course,
		Year:       r.Year,
		Section:    r.Section,
		Position:   r.Position,
	}
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword returns a bcrypt verifier for password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// checkPassword compares password with the stored verifier. Unknown ids are
// compared against dummyHash so both branches cost one bcrypt evaluation.
func checkPassword(hash, password string) bool {
	if hash == "" {
		hash = dummyHash
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil && hash != dummyHash
}

// bcrypt of a random string at the default cost.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoO5K9vG3bZy/0lE.1S6eXbqQnZr7V7z5K"
