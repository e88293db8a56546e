package portal

import (
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/svc/auth"
)

// UserView is the signed-in identity as returned to clients. It never
// carries the TOTP secret.
type UserView struct {
	ID                  string `json:"id"`
	Role                string `json:"role"`
	FullName            string `json:"full_name"`
	Email               string `json:"email,omitempty"`
	Department          string `json:"department,omitempty"`
	Course              string `json:"course,omitempty"`
	Year                string `json:"year,omitempty"`
	Section             string `json:"section,omitempty"`
	Position            string `json:"position,omitempty"`
	SecondFactorEnabled bool   `json:"second_factor_enabled"`
}

// SignInView is the body of every sign-in step.
type SignInView struct {
	State     auth.State `json:"state"`
	AttemptID string     `json:"attempt_id,omitempty"`
	User      *UserView  `json:"user,omitempty"`
	Warnings  []string   `json:"warnings,omitempty"`
}

func userView(rec *session.Record) *UserView {
	if rec == nil {
		return nil
	}
	return &UserView{
		ID:                  rec.Identity.ID,
		Role:                rec.Role,
		FullName:            rec.Identity.FullName,
		Email:               rec.Identity.Email,
		Department:          rec.Identity.Department,
		Course:              rec.Identity.Course,
		Year:                rec.Identity.Year,
		Section:             rec.Identity.Section,
		Position:            rec.Identity.Position,
		SecondFactorEnabled: rec.SecondFactorEnabled,
	}
}

func signInView(out auth.Outcome) SignInView {
	return SignInView{
		State:     out.State,
		AttemptID: out.AttemptID,
		User:      userView(out.Session),
		Warnings:  out.Warnings,
	}
}
