package templates

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

// ResetRequest is the data shown to administrators when a user asks for a
// password reset.
type ResetRequest struct {
	RequesterName  string
	RequesterID    string
	RequesterEmail string
	Attempt        int
	RequestedAt    time.Time
	PortalURL      string
}

// ResetRequestSubject is the subject line for ResetRequestEmail.
const ResetRequestSubject = "Password reset request"

// ResetRequestEmail renders the administrator notification body. Every
// interpolated value is HTML-escaped.
func ResetRequestEmail(d ResetRequest) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		parts := []string{
			`<div style="font-family:sans-serif">`,
			`<h2>Password reset request</h2>`,
			`<p><strong>`, templ.EscapeString(d.RequesterName), `</strong> (`,
			templ.EscapeString(d.RequesterID), `) asked for a password reset.</p>`,
			`<table>`,
			`<tr><td>Email</td><td>`, templ.EscapeString(d.RequesterEmail), `</td></tr>`,
			`<tr><td>Requested at</td><td>`, templ.EscapeString(d.RequestedAt.UTC().Format(time.RFC1123)), `</td></tr>`,
			`<tr><td>Attempt</td><td>`, strconv.Itoa(d.Attempt), `</td></tr>`,
			`</table>`,
		}
		if d.PortalURL != "" {
			parts = append(parts,
				`<p><a href="`, templ.EscapeString(d.PortalURL), `">Review the request in the library portal</a></p>`)
		}
		parts = append(parts, `</div>`)

		for _, p := range parts {
			if _, err := io.WriteString(w, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// ResetDecision is the data for the message sent back to the requester.
type ResetDecision struct {
	RequesterName string
	Granted       bool
}

// ResetDecisionSubject returns the subject for a grant or decline notice.
func ResetDecisionSubject(granted bool) string {
	if granted {
		return "Your password reset was approved"
	}
	return "Your password reset was declined"
}

// ResetDecisionEmail renders the requester notification body.
func ResetDecisionEmail(d ResetDecision) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		msg := "An administrator declined your password reset request. Contact the library desk if you still need access."
		if d.Granted {
			msg = "An administrator approved your password reset request. You may now set a new password."
		}
		_, err := io.WriteString(w, `<div style="font-family:sans-serif"><p>Hello `+
			templ.EscapeString(d.RequesterName)+`,</p><p>`+templ.EscapeString(msg)+`</p></div>`)
		return err
	})
}

// ResetDecisionNotice is the copy of a decision sent to every administrator.
type ResetDecisionNotice struct {
	AdminID       string
	RequesterName string
	RequesterID   string
	Granted       bool
}

// ResetDecisionNoticeEmail renders the administrator copy of a decision.
func ResetDecisionNoticeEmail(d ResetDecisionNotice) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		verb := "declined"
		if d.Granted {
			verb = "granted"
		}
		_, err := io.WriteString(w, `<div style="font-family:sans-serif"><p>`+
			templ.EscapeString(d.AdminID)+` `+verb+` the password reset request of <strong>`+
			templ.EscapeString(d.RequesterName)+`</strong> (`+templ.EscapeString(d.RequesterID)+`).</p></div>`)
		return err
	})
}
