package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"github.com/weaveworks/common/logging"

	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/api"
	"github.com/objexa/service/portal/booking"
	"github.com/objexa/service/portal/flow"
	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/identity/mock_identity"
	"github.com/objexa/service/portal/leads"
	"github.com/objexa/service/portal/leads/dbtest"
	"github.com/objexa/service/portal/sessions"
	"github.com/objexa/service/portal/verify"
)

const (
	origin        = "https://objexa.test"
	sessionSecret = "Aecay0Ahhoo0ied2Ieth4aej8eeSheeh7Oos9aiquahf2ahvie2boh1ja4Aeh1gu"
)

type fixture struct {
	t        *testing.T
	ctrl     *gomock.Controller
	api      *mock_identity.MockAPI
	db       leads.DB
	registry *verify.Registry
	server   *httptest.Server
	client   *http.Client
	token    string
}

func setup(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	idp := mock_identity.NewMockAPI(ctrl)
	f := setupWith(t, idp)
	f.ctrl = ctrl
	f.api = idp
	return f
}

func setupWith(t *testing.T, idp identity.API) *fixture {
	db := dbtest.Setup(t)
	vcfg := verify.Config{
		Interval:       time.Hour,
		MaxAttempts:    60,
		ResendCooldown: 30 * time.Second,
		Probe:          verify.ProbeRelogin,
		IdleTimeout:    10 * time.Minute,
		SweepSchedule:  "@every 1m",
	}
	fcfg := flow.Config{
		Origin:           origin,
		CheckEmailExists: true,
		CacheSize:        16,
		CacheTTL:         time.Minute,
		FlowTTL:          time.Minute,
		ResendCooldown:   vcfg.ResendCooldown,
	}
	registry := verify.NewRegistry(vcfg, verify.RealClock, idp, origin+"/auth.html?verified=true", logging.Global())
	bootstrap := flow.NewBootstrapper(idp, fcfg, logging.Global())
	handler := flow.NewHandler(fcfg, idp, registry, bootstrap, nil, nil, nil, logging.Global())
	bookings := booking.NewService(db, bootstrap, registry, nil, nil, nil, nil, logging.Global())
	a := api.New(handler, bookings, sessions.MustNewStore(sessionSecret, false), sessions.MustNewVisitorStore(sessionSecret, false), origin, false)

	server := httptest.NewServer(a)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &fixture{t: t, db: db, registry: registry, server: server, client: client}
}

func (f *fixture) finish() {
	f.server.Close()
	f.registry.Stop()
	dbtest.Cleanup(f.t, f.db)
	if f.ctrl != nil {
		f.ctrl.Finish()
	}
}

func (f *fixture) csrf() string {
	if f.token == "" {
		var body struct {
			Token string `json:"token"`
		}
		f.getJSON("/api/portal/csrf", http.StatusOK, &body)
		require.NotEmpty(f.t, body.Token)
		f.token = body.Token
	}
	return f.token
}

func (f *fixture) do(method, path string, body interface{}, withToken bool) *http.Response {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(f.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.server.URL+path, r)
	require.NoError(f.t, err)
	req.Header.Set("Content-Type", "application/json")
	if withToken {
		req.Header.Set("X-CSRF-Token", f.csrf())
	}
	resp, err := f.client.Do(req)
	require.NoError(f.t, err)
	return resp
}

func (f *fixture) getJSON(path string, code int, dest interface{}) {
	resp := f.do("GET", path, nil, false)
	f.decode(resp, code, dest)
}

func (f *fixture) postJSON(path string, body interface{}, code int, dest interface{}) {
	resp := f.do("POST", path, body, true)
	f.decode(resp, code, dest)
}

func (f *fixture) decode(resp *http.Response, code int, dest interface{}) {
	defer resp.Body.Close()
	b, _ := ioutil.ReadAll(resp.Body)
	require.Equal(f.t, code, resp.StatusCode, string(b))
	if dest != nil {
		require.NoError(f.t, json.Unmarshal(b, dest), string(b))
	}
}

type errorsView struct {
	Errors []map[string]interface{} `json:"errors"`
}

func (e errorsView) message() string {
	if len(e.Errors) == 0 {
		return ""
	}
	m, _ := e.Errors[0]["message"].(string)
	return m
}

func hasCookie(f *fixture, name string) bool {
	for _, c := range f.client.Jar.Cookies(mustParse(f.server.URL)) {
		if c.Name == name && strings.TrimSpace(c.Value) != "" {
			return true
		}
	}
	return false
}

func completeUser() *portal.User {
	return &portal.User{
		ID:    "user-1",
		Email: "jane@clinic.com",
		Metadata: portal.Metadata{
			FullName:     "Jane Doe",
			PracticeName: "Bright Smiles",
			PracticeType: "dental",
		},
		Identities: []portal.Identity{{Provider: portal.ProviderEmail}},
	}
}

func newSession(token string) *identity.Session {
	return &identity.Session{
		AccessToken:  token,
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         completeUser(),
	}
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
