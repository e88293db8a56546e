package email

import (
	"context"

	"github.com/jrmsu/libraryid/pkg/async"
)

// Broadcast sends the same subject and body to every recipient concurrently.
// It waits for all deliveries and returns the first failure.
func Broadcast(ctx context.Context, sender EmailSender, recipients []string, subject, bodyHTML, tag string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	futures := make([]*async.Future[struct{}], 0, len(recipients))
	for _, to := range recipients {
		params := SendEmailParams{SendTo: to, Subject: subject, BodyHTML: bodyHTML, Tag: tag}
		futures = append(futures, async.Async(ctx, params, func(ctx context.Context, p SendEmailParams) (struct{}, error) {
			return struct{}{}, sender.SendEmail(ctx, p)
		}))
	}
	_, err := async.WaitAll(futures...)
	return err
}
