package portal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a rejection from the identity provider.
type Kind int

// The provider rejection kinds the flows distinguish.
const (
	KindOther Kind = iota
	KindInvalidCredentials
	KindUnverified
	KindAlreadyRegistered
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid-credentials"
	case KindUnverified:
		return "unverified"
	case KindAlreadyRegistered:
		return "already-registered"
	case KindNetwork:
		return "network"
	}
	return "other"
}

// ValidationError is an error of data validation, detected before any network call.
type ValidationError struct {
	s     string
	field string
}

// Error returns the text.
func (e *ValidationError) Error() string {
	return e.s
}

// Metadata implements WithMetadata
func (e *ValidationError) Metadata() map[string]interface{} {
	if e.field == "" {
		return nil
	}
	return map[string]interface{}{"field": e.field}
}

// ValidationErrorf creates a new validation error
func ValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{s: fmt.Sprintf(format, args...)}
}

// FieldErrorf creates a validation error naming the offending form field.
func FieldErrorf(field, format string, args ...interface{}) error {
	return &ValidationError{s: fmt.Sprintf(format, args...), field: field}
}

// PasswordPolicyError lists the password rules that were not met.
func PasswordPolicyError(field string, failed []string) error {
	return FieldErrorf(field, "Password must contain: %s", strings.Join(failed, ", "))
}

// ProviderError is a rejection by the identity provider, carrying the message shown to the user.
type ProviderError struct {
	Kind    Kind
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Metadata implements WithMetadata
func (e *ProviderError) Metadata() map[string]interface{} {
	return map[string]interface{}{"kind": e.Kind.String()}
}

// NetworkError is returned when a call to a collaborator could not complete.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return MessageConnection
}

// PersistenceError is returned when a lead could not be stored.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("Error submitting form: %v", e.Err)
}

// CooldownError is returned when a resend is attempted too soon.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("Please wait %d seconds before requesting another email.", e.seconds())
}

func (e *CooldownError) seconds() int {
	return int((e.RetryAfter + time.Second - 1) / time.Second)
}

// Metadata implements WithMetadata
func (e *CooldownError) Metadata() map[string]interface{} {
	return map[string]interface{}{"retryAfter": e.seconds()}
}

// WithMetadata is the interface errors should implement if they want to
// include other information when rendered via the API.
type WithMetadata interface {
	Metadata() map[string]interface{}
}

// These are specific instances of errors the portal deals with.
var (
	ErrConnection         = errors.New(MessageConnection)
	ErrSubmissionInFlight = errors.New("A submission is already in progress.")
	ErrNotAuthenticated   = errors.New("Please log in to continue.")
	ErrNoVerification     = errors.New("No verification is pending.")
	ErrEmailNotRegistered = errors.New("This email is not registered. Please check your email or create an account.")
	ErrEmailLookup        = errors.New("Error checking email. Please try again.")
	ErrAlreadyRegistered  = &ProviderError{Kind: KindAlreadyRegistered, Message: "This email is already registered. Please login instead."}
	ErrPasswordMismatch   = FieldErrorf("confirmPassword", "Passwords do not match. Please check and try again.")
	ErrInvalidPhone       = FieldErrorf("phone", "Please enter a valid phone number (10-15 digits)")
	ErrInvalidEmail       = FieldErrorf("email", "Please enter a valid email address")
	ErrInvalidFlow        = errors.New("Sign-in could not be completed. Please try again.")
)
