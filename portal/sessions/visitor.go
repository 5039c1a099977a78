package sessions

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/objexa/service/portal"
)

const (
	visitorDuration = 90 * 24 * time.Hour

	// VisitorCookieName holds what the site used to keep in browser storage.
	VisitorCookieName = "_objexa_visitor"
)

// Visitor is the state kept for a browser, signed in or not. It only lives
// on the visitor's device.
type Visitor struct {
	ID string
	// RedirectIntent is where to land once verification completes.
	RedirectIntent string
	// PendingEmail is the address waiting to be verified.
	PendingEmail string
	DemoDraft    *portal.DemoForm
	BannerShown  bool
}

// ConsumeIntent returns the redirect intent and forgets it.
func (v *Visitor) ConsumeIntent() string {
	intent := v.RedirectIntent
	v.RedirectIntent = ""
	return intent
}

// ClearPending forgets everything about an outstanding verification.
func (v *Visitor) ClearPending() {
	v.RedirectIntent = ""
	v.PendingEmail = ""
}

// TakeDraft returns the saved demo form and forgets it.
func (v *Visitor) TakeDraft() *portal.DemoForm {
	draft := v.DemoDraft
	v.DemoDraft = nil
	return draft
}

// VisitorStore reads and writes the visitor cookie.
type VisitorStore struct {
	secure  bool
	encoder *securecookie.SecureCookie
}

// MustNewVisitorStore creates a visitor store sharing the session secret.
func MustNewVisitorStore(validationSecret string, secure bool) VisitorStore {
	s := MustNewStore(validationSecret, secure)
	return VisitorStore{secure: secure, encoder: s.encoder}
}

// Get returns the visitor for this request, starting a fresh one when the
// cookie is missing or cannot be decoded.
func (s VisitorStore) Get(r *http.Request) *Visitor {
	if cookie, err := r.Cookie(VisitorCookieName); err == nil {
		v := &Visitor{}
		if err := s.encoder.Decode(VisitorCookieName, cookie.Value, v); err == nil && v.ID != "" {
			return v
		}
	}
	return &Visitor{ID: uuid.New().String()}
}

// Save writes v back to the browser.
func (s VisitorStore) Save(w http.ResponseWriter, v *Visitor) error {
	value, err := s.encoder.Encode(VisitorCookieName, v)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		Expires:  time.Now().UTC().Add(visitorDuration),
	})
	return nil
}
