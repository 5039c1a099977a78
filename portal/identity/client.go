package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/http/client"
	"github.com/weaveworks/common/instrument"

	"github.com/objexa/service/common"
	"github.com/objexa/service/common/tracing"
	"github.com/objexa/service/portal"
)

var clientRequestCollector = instrument.NewHistogramCollectorFromOpts(prometheus.HistogramOpts{
	Namespace: common.PrometheusNamespace,
	Subsystem: "identity_client",
	Name:      "request_duration_seconds",
	Help:      "Response time of identity provider requests.",
	Buckets:   prometheus.DefBuckets,
})

func init() {
	clientRequestCollector.Register()
}

//go:generate mockgen -destination mock_identity/mock_identity.go github.com/objexa/service/portal/identity API

// API is the set of identity provider calls the portal makes.
type API interface {
	GetUser(ctx context.Context, accessToken string) (*portal.User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*Session, error)
	SignUp(ctx context.Context, email, password string, meta portal.Metadata, redirectTo string) (*SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
	RequestPasswordReset(ctx context.Context, email, returnURL string) error
	AuthorizeURL(provider, redirectTo, codeChallenge string) string
	ResendVerification(ctx context.Context, email, returnURL string) error
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateUser(ctx context.Context, accessToken string, update UserUpdate) (*portal.User, error)
}

// SignUpResult is the answer to a sign-up. Session is only set when the
// provider does not require email confirmation.
type SignUpResult struct {
	User    *portal.User
	Session *Session
}

// UserUpdate changes the signed-in user. Empty fields are left alone.
type UserUpdate struct {
	Password string           `json:"password,omitempty"`
	Data     *portal.Metadata `json:"data,omitempty"`
}

// Client talks to a GoTrue compatible auth API and the PostgREST RPC endpoint
// next to it.
type Client struct {
	*common.JSONClient
	cfg     Config
	baseURL string
}

// NewClient returns a Client for cfg.
func NewClient(cfg Config) (*Client, error) {
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, errors.Wrap(err, "parsing identity URL")
	}
	cl := common.NewTracedHTTPClient(cfg.Timeout)
	timed := client.NewTimedClient(cl, clientRequestCollector)
	requester := common.NewHeaderRequester(common.NewTracingRequester(timed), http.Header{
		"Apikey":        {key},
		"Authorization": {"Bearer " + key},
	})
	return &Client{
		JSONClient: common.NewJSONClient(requester),
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
	}, nil
}

func (c *Client) authURL(path string, query url.Values) string {
	u := c.baseURL + "/auth/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// call does one round trip. A user token in accessToken replaces the anon
// bearer. Non-2xx answers become a *ProviderError, everything else that
// stops us from getting an answer a *NetworkError.
func (c *Client) call(ctx context.Context, operation, method, u, accessToken string, body, dest interface{}) (err error) {
	span, ctx := tracing.Start(ctx, "identity."+operation)
	defer func() { tracing.Finish(span, err) }()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	if accessToken != "" {
		ctx = common.WithBearerToken(ctx, accessToken)
	}

	var raw json.RawMessage
	switch method {
	case http.MethodGet:
		err = c.Get(ctx, operation, u, &raw)
	case http.MethodPut:
		err = c.Put(ctx, operation, u, body, &raw)
	default:
		err = c.Post(ctx, operation, u, body, &raw)
	}
	if statusErr, ok := err.(*common.StatusError); ok {
		var resp errorResponse
		if len(raw) > 0 {
			json.Unmarshal(raw, &resp)
		}
		return resp.toError(statusErr.Code)
	}
	if _, ok := err.(*json.SyntaxError); ok {
		return errors.Wrapf(err, "decoding %s response", operation)
	}
	if err != nil {
		return &NetworkError{Err: err}
	}
	if dest != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, dest); err != nil {
			return errors.Wrapf(err, "decoding %s response", operation)
		}
	}
	return nil
}

// GetUser returns the principal behind accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*portal.User, error) {
	user := &portal.User{}
	if err := c.call(ctx, "get_user", http.MethodGet, c.authURL("/user", nil), accessToken, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) token(ctx context.Context, operation, grantType string, body interface{}) (*Session, error) {
	session := &Session{}
	u := c.authURL("/token", url.Values{"grant_type": {grantType}})
	if err := c.call(ctx, operation, http.MethodPost, u, "", body, session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, &ProviderError{Status: http.StatusOK, Message: "no session returned"}
	}
	return session, nil
}

// SignIn signs in with an email and password.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "sign_in", "password", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	return c.token(ctx, "refresh", "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
}

// ExchangeCode finishes a PKCE federated sign-in.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*Session, error) {
	return c.token(ctx, "exchange_code", "pkce", map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	})
}

type signUpResponse struct {
	portal.User
	Session
}

// SignUp creates an account. Providers that hide whether an email is taken
// answer with a user that has no identities.
func (c *Client) SignUp(ctx context.Context, email, password string, meta portal.Metadata, redirectTo string) (*SignUpResult, error) {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	resp := &signUpResponse{}
	err := c.call(ctx, "sign_up", http.MethodPost, c.authURL("/signup", q), "", map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     meta,
	}, resp)
	if err != nil {
		return nil, err
	}

	result := &SignUpResult{}
	if resp.AccessToken != "" {
		result.Session = &resp.Session
		result.User = resp.Session.User
	} else {
		result.User = &resp.User
	}
	return result, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.call(ctx, "sign_out", http.MethodPost, c.authURL("/logout", nil), accessToken, nil, nil)
}

// RequestPasswordReset emails a recovery link landing on returnURL.
func (c *Client) RequestPasswordReset(ctx context.Context, email, returnURL string) error {
	u := c.authURL("/recover", url.Values{"redirect_to": {returnURL}})
	return c.call(ctx, "recover", http.MethodPost, u, "", map[string]string{"email": email}, nil)
}

// AuthorizeURL is where the browser goes to start a federated sign-in.
func (c *Client) AuthorizeURL(provider, redirectTo, codeChallenge string) string {
	q := url.Values{
		"provider":    {provider},
		"redirect_to": {redirectTo},
	}
	if codeChallenge != "" {
		q.Set("code_challenge", codeChallenge)
		q.Set("code_challenge_method", "s256")
	}
	return c.authURL("/authorize", q)
}

// ResendVerification sends the sign-up confirmation email again.
func (c *Client) ResendVerification(ctx context.Context, email, returnURL string) error {
	u := c.authURL("/resend", url.Values{"redirect_to": {returnURL}})
	return c.call(ctx, "resend", http.MethodPost, u, "", map[string]string{
		"type":  "signup",
		"email": email,
	}, nil)
}

// EmailExists asks the check_email_exists database function whether an
// account uses email.
func (c *Client) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	u := fmt.Sprintf("%s/rest/v1/rpc/check_email_exists", c.baseURL)
	if err := c.call(ctx, "check_email_exists", http.MethodPost, u, "", map[string]string{"email_to_check": email}, &exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateUser changes the password or metadata of the signed-in user.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, update UserUpdate) (*portal.User, error) {
	user := &portal.User{}
	if err := c.call(ctx, "update_user", http.MethodPut, c.authURL("/user", nil), accessToken, update, user); err != nil {
		return nil, err
	}
	return user, nil
}
