package session

import (
	"time"
)

// Snapshot is the identity data copied into a session at sign-in.
type Snapshot struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	Course     string `json:"course,omitempty"`
	Year       string `json:"year,omitempty"`
	Section    string `json:"section,omitempty"`
	Position   string `json:"position,omitempty"`
}

// Record is a persisted authenticated session.
type Record struct {
	Key                 string    `json:"key"`
	Role                string    `json:"role"`
	Identity            Snapshot  `json:"identity"`
	TOTPSecret          string    `json:"totp_secret,omitempty"`
	SecondFactorEnabled bool      `json:"second_factor_enabled"`
	CreatedAt           time.Time `json:"created_at"`
	LastActivityAt      time.Time `json:"last_activity_at"`
}

// IdleSince reports how long the record has been inactive at now.
func (r *Record) IdleSince(now time.Time) time.Duration {
	return now.Sub(r.LastActivityAt)
}

func (r *Record) clone() *Record {
	c := *r
	return &c
}
