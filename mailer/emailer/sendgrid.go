package emailer

import (
	"context"
	"fmt"
	netmail "net/mail"
	"net/url"

	"github.com/jordan-wright/email"
	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Takes a uri of the form sendgrid://apikey@
func sendgridEmailSender(u *url.URL) (Sender, error) {
	if u.User == nil || u.User.Username() == "" {
		return nil, errors.New("sendgrid:// uri needs the API key as its user")
	}
	client := sendgrid.NewSendClient(u.User.Username())
	return func(_ context.Context, e *email.Email) error {
		resp, err := client.Send(ToSendGridMessage(e))
		if err != nil {
			return errors.Wrap(err, "sendgrid")
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("sendgrid: %d: %s", resp.StatusCode, resp.Body)
		}
		return nil
	}, nil
}

// ToSendGridMessage converts an email into a SendGrid v3 message.
func ToSendGridMessage(e *email.Email) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(toSendGridAddress(e.From))
	m.Subject = e.Subject

	p := mail.NewPersonalization()
	for _, to := range e.To {
		p.AddTos(toSendGridAddress(to))
	}
	m.AddPersonalizations(p)

	if len(e.Text) > 0 {
		m.AddContent(mail.NewContent("text/plain", string(e.Text)))
	}
	if len(e.HTML) > 0 {
		m.AddContent(mail.NewContent("text/html", string(e.HTML)))
	}
	return m
}

func toSendGridAddress(address string) *mail.Email {
	parsed, err := netmail.ParseAddress(address)
	if err != nil {
		return mail.NewEmail("", address)
	}
	return mail.NewEmail(parsed.Name, parsed.Address)
}
