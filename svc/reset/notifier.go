package reset

import (
	"context"
	"errors"
	"time"

	"github.com/jrmsu/libraryid/pkg/email"
	"github.com/jrmsu/libraryid/pkg/email/templates"
	"github.com/jrmsu/libraryid/svc/identity"
)

// Notifier tells people about reset requests and decisions.
type Notifier interface {
	ResetRequested(ctx context.Context, admins []identity.Record, requester identity.Record, attempt int, at time.Time) error
	ResetDecided(ctx context.Context, admins []identity.Record, requester identity.Record, d Decision) error
}

// EmailNotifier sends the notifications as HTML mail.
type EmailNotifier struct {
	sender    email.EmailSender
	portalURL string
}

// NewEmailNotifier links admin mails to portalURL when it is set.
func NewEmailNotifier(sender email.EmailSender, portalURL string) *EmailNotifier {
	return &EmailNotifier{sender: sender, portalURL: portalURL}
}

func (n *EmailNotifier) ResetRequested(ctx context.Context, admins []identity.Record, requester identity.Record, attempt int, at time.Time) error {
	body, err := templates.Render(ctx, templates.ResetRequestEmail(templates.ResetRequest{
		RequesterName:  requester.FullName,
		RequesterID:    requester.ID,
		RequesterEmail: requester.Email,
		Attempt:        attempt,
		RequestedAt:    at,
		PortalURL:      n.portalURL,
	}))
	if err != nil {
		return err
	}
	return email.Broadcast(ctx, n.sender, addresses(admins), templates.ResetRequestSubject, body, "password-reset-request")
}

func (n *EmailNotifier) ResetDecided(ctx context.Context, admins []identity.Record, requester identity.Record, d Decision) error {
	granted := d.Action == Grant
	subject := templates.ResetDecisionSubject(granted)

	var errs []error
	if requester.Email != "" {
		body, err := templates.Render(ctx, templates.ResetDecisionEmail(templates.ResetDecision{
			RequesterName: requester.FullName,
			Granted:       granted,
		}))
		if err != nil {
			return err
		}
		errs = append(errs, n.sender.SendEmail(ctx, email.SendEmailParams{
			SendTo: requester.Email, Subject: subject, BodyHTML: body, Tag: "password-reset-" + string(d.Action),
		}))
	}

	if to := addresses(admins); len(to) > 0 {
		body, err := templates.Render(ctx, templates.ResetDecisionNoticeEmail(templates.ResetDecisionNotice{
			AdminID:       d.AdminID,
			RequesterName: requester.FullName,
			RequesterID:   requester.ID,
			Granted:       granted,
		}))
		if err != nil {
			return err
		}
		errs = append(errs, email.Broadcast(ctx, n.sender, to, subject, body, "password-reset-"+string(d.Action)+"-admin"))
	}
	return errors.Join(errs...)
}

func addresses(recs []identity.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.Email != "" {
			out = append(out, r.Email)
		}
	}
	return out
}
