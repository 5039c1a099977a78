package identity

import (
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"golang.org/x/oauth2"

	"github.com/objexa/service/portal"
)

// Session is what the provider hands out on a successful sign-in.
type Session struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         *portal.User `json:"user"`
}

// Expiry is when the access token stops being accepted.
func (s *Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	if claims, err := ParseClaims(s.AccessToken); err == nil && claims.ExpiresAt > 0 {
		return time.Unix(claims.ExpiresAt, 0)
	}
	if s.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// Token converts the session into the form we keep in the session cookie.
func (s *Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry(),
	}
}

// SessionFromToken rebuilds a session from a stored token. The user is not known.
func SessionFromToken(tok *oauth2.Token) *Session {
	if tok == nil || tok.AccessToken == "" {
		return nil
	}
	s := &Session{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		s.ExpiresAt = tok.Expiry.Unix()
	}
	return s
}

// Claims are the parts of the provider's access token we look at.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ParseClaims reads the claims of an access token without checking its
// signature. The provider checks tokens on every call; we only use the claims
// to decide when to refresh.
func ParseClaims(accessToken string) (*Claims, error) {
	claims := &Claims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
