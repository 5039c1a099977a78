package sessions

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/objexa/service/portal"
)

const (
	sessionDuration = 30 * 24 * time.Hour

	// CookieName is the name of the cookie we set for the session. It is exposed
	// for testing.
	CookieName = "_objexa_session"
)

// MustNewStore creates a new session store, or panics.
func MustNewStore(validationSecret string, secure bool) Store {
	secretBytes := []byte(validationSecret)
	if len(secretBytes) != 64 {
		log.Fatal("session-secret must be 64 bytes")
	}

	return Store{
		secure:  secure,
		encoder: newEncoder(secretBytes),
	}
}

func newEncoder(secret []byte) *securecookie.SecureCookie {
	return securecookie.New(secret, secret[32:]).SetSerializer(securecookie.JSONEncoder{})
}

// Store is a session store. It manages reading and writing from cookies.
type Store struct {
	secure  bool
	encoder *securecookie.SecureCookie
}

type session struct {
	UserID    string
	Token     *oauth2.Token
	CreatedAt time.Time
}

// Get fetches the current session for this request. A session is either
// fully there or it is not: anything undecodable counts as signed out.
func (s Store) Get(r *http.Request) (userID string, tok *oauth2.Token, err error) {
	cookie, err := r.Cookie(CookieName)
	if err == http.ErrNoCookie {
		return "", nil, portal.ErrNotAuthenticated
	}
	if err != nil {
		return "", nil, err
	}
	return s.Decode(cookie.Value)
}

// Decode converts an encoded session into its user ID and token.
func (s Store) Decode(encoded string) (string, *oauth2.Token, error) {
	var session session
	if err := s.encoder.Decode(CookieName, encoded, &session); err != nil {
		return "", nil, portal.ErrNotAuthenticated
	}
	if session.CreatedAt.IsZero() || time.Now().UTC().Sub(session.CreatedAt) > sessionDuration {
		return "", nil, portal.ErrNotAuthenticated
	}
	if session.Token == nil || session.Token.AccessToken == "" {
		return "", nil, portal.ErrNotAuthenticated
	}
	return session.UserID, session.Token, nil
}

// Set stores the session for the user.
func (s Store) Set(w http.ResponseWriter, userID string, tok *oauth2.Token) error {
	cookie, err := s.Cookie(userID, tok)
	if err == nil {
		http.SetCookie(w, cookie)
	}
	return err
}

// Clear deletes session data for the response
func (s Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})
}

// Cookie creates the http cookie to set for this user's session.
func (s Store) Cookie(userID string, tok *oauth2.Token) (*http.Cookie, error) {
	value, err := s.Encode(userID, tok)
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		Expires:  time.Now().UTC().Add(sessionDuration),
	}, err
}

// Encode converts the session data into a session string
func (s Store) Encode(userID string, tok *oauth2.Token) (string, error) {
	return s.encoder.Encode(CookieName, session{
		UserID:    userID,
		Token:     tok,
		CreatedAt: time.Now().UTC(),
	})
}
