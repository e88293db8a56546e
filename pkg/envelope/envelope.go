package envelope

import (
	"regexp"
	"time"
)

const (
	// SystemID identifies envelopes issued by the library portal.
	SystemID = "JRMSU-LIBRARY"

	TagAdmin   = "JRMSU-KCL"
	TagStudent = "JRMSU-KCS"

	// MaxAge is the age beyond which a decoded envelope carries a stale warning.
	MaxAge = 30 * time.Minute
)

// UserType is the role an envelope was issued for.
type UserType string

const (
	Admin   UserType = "admin"
	Student UserType = "student"
)

var (
	AdminIDPattern   = regexp.MustCompile(`^KCL-\d{5}$`)
	StudentIDPattern = regexp.MustCompile(`^KC-\d{2}-[A-D]-\d{5}$`)
)

// Valid reports whether u is one of the enumerated user types.
func (u UserType) Valid() bool {
	return u == Admin || u == Student
}

// Tag returns the system tag implied by u, or "" for an unknown type.
func (u UserType) Tag() string {
	switch u {
	case Admin:
		return TagAdmin
	case Student:
		return TagStudent
	default:
		return ""
	}
}

// Description is the default human-readable role string.
func (u UserType) Description() string {
	if u == Admin {
		return "Administrator"
	}
	return "Student"
}

// ValidID reports whether id matches the pattern for u.
func ValidID(u UserType, id string) bool {
	switch u {
	case Admin:
		return AdminIDPattern.MatchString(id)
	case Student:
		return StudentIDPattern.MatchString(id)
	default:
		return false
	}
}

// Envelope is the canonical identity payload. It always serializes with the
// current field names.
type Envelope struct {
	FullName       string   `json:"fullName"`
	UserID         string   `json:"userId"`
	UserType       UserType `json:"userType"`
	SystemID       string   `json:"systemId"`
	SystemTag      string   `json:"systemTag"`
	Timestamp      int64    `json:"timestamp"`
	AuthCode       string   `json:"authCode"`
	EncryptedToken string   `json:"encryptedToken"`
	TwoFactorKey   string   `json:"twoFactorKey,omitempty"`
	Department     string   `json:"department,omitempty"`
	Course         string   `json:"course,omitempty"`
	Year           string   `json:"year,omitempty"`
	Section        string   `json:"section,omitempty"`
	Position       string   `json:"position,omitempty"`
	Role           string   `json:"role,omitempty"`
}

// IssuedAt converts the epoch-millisecond timestamp to a time.
func (e Envelope) IssuedAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Identity holds the public fields of an identity record that go into an envelope.
type Identity struct {
	FullName        string
	UserID          string
	UserType        UserType
	Department      string
	Course          string
	Year            string
	Section         string
	Position        string
	RoleDescription string
	TwoFactorKey    string
}

// Result is a successfully validated envelope with any soft findings.
type Result struct {
	Envelope Envelope
	Warnings []Warning
}

// HasWarning reports whether a warning of the given kind was raised.
func (r Result) HasWarning(kind error) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// WarningMessages returns the warning texts, for logging.
func (r Result) WarningMessages() []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.Message)
	}
	return out
}
