package emailer

import (
	"context"

	"github.com/jordan-wright/email"
	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/user"
)

// logEmailSender just logs all emails, instead of sending them.
func logEmailSender() Sender {
	return func(ctx context.Context, e *email.Email) error {
		body := string(e.Text)
		if body == "" {
			body = string(e.HTML)
		}
		user.LogWith(ctx, logging.Global()).Infof("[Email] From: %q, To: %q, Subject: %q, Body:\n%s", e.From, e.To, e.Subject, body)
		return nil
	}
}
