package api

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/objexa/service/portal/confirm"
)

var errMissingEmail = errors.New("email is required")

func (a *API) demoConfirmation(r *http.Request) error {
	var c confirm.DemoConfirmation
	if err := decode(r, &c); err != nil {
		return errors.Wrap(err, "reading booking")
	}
	if c.Email == "" {
		return errMissingEmail
	}
	return a.emailer.DemoConfirmation(r.Context(), c)
}

func (a *API) passwordResetConfirmation(r *http.Request) error {
	var c confirm.ResetConfirmation
	if err := decode(r, &c); err != nil {
		return errors.Wrap(err, "reading reset")
	}
	if c.Email == "" {
		return errMissingEmail
	}
	return a.emailer.PasswordResetConfirmation(r.Context(), c)
}
