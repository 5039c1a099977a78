package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/objexa/service/portal"
)

// ProviderError is a non-2xx answer from the identity provider.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: %d: %s", e.Status, e.Message)
}

// NetworkError is a call that never got an answer.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("identity provider unreachable: %v", e.Err)
}

// errorResponse covers the error shapes of the auth and rest endpoints.
type errorResponse struct {
	Code             interface{} `json:"code,omitempty"`
	ErrorCode        string      `json:"error_code,omitempty"`
	Msg              string      `json:"msg,omitempty"`
	Message          string      `json:"message,omitempty"`
	ErrorDescription string      `json:"error_description,omitempty"`
	ErrorName        string      `json:"error,omitempty"`
}

func (e errorResponse) toError(status int) *ProviderError {
	pe := &ProviderError{Status: status, Code: e.ErrorCode}
	for _, m := range []string{e.Msg, e.Message, e.ErrorDescription, e.ErrorName} {
		if m != "" {
			pe.Message = m
			break
		}
	}
	if code, ok := e.Code.(string); ok && pe.Code == "" {
		pe.Code = code
	}
	if pe.Message == "" {
		pe.Message = fmt.Sprintf("request failed with status %d", status)
	}
	return pe
}

// Classify is the one place provider failures are turned into kinds. The
// provider only reports some of them in its human readable message.
func Classify(err error) portal.Kind {
	switch e := errors.Cause(err).(type) {
	case *NetworkError:
		return portal.KindNetwork
	case *ProviderError:
		switch {
		case e.Code == "invalid_credentials" || strings.Contains(e.Message, "Invalid login credentials"):
			return portal.KindInvalidCredentials
		case e.Code == "email_not_confirmed" || strings.Contains(e.Message, "Email not confirmed"):
			return portal.KindUnverified
		case e.Code == "user_already_exists" || strings.Contains(e.Message, "already registered"):
			return portal.KindAlreadyRegistered
		}
		return portal.KindOther
	}
	if errors.Cause(err) == context.DeadlineExceeded || errors.Cause(err) == context.Canceled {
		return portal.KindNetwork
	}
	return portal.KindOther
}

// Message is the provider's own text for err, or err's text for anything else.
func Message(err error) string {
	if pe, ok := errors.Cause(err).(*ProviderError); ok {
		return pe.Message
	}
	return err.Error()
}

// Translate turns a client error into the portal error shown to the visitor,
// keeping the provider's own message.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	kind := Classify(err)
	if kind == portal.KindNetwork {
		return &portal.NetworkError{Err: err}
	}
	if _, ok := errors.Cause(err).(*ProviderError); !ok {
		return err
	}
	return &portal.ProviderError{Kind: kind, Message: Message(err)}
}
