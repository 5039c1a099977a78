package flow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/weaveworks/common/logging"

	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/confirm"
	"github.com/objexa/service/portal/flow"
	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/identity/mock_identity"
	"github.com/objexa/service/portal/sessions"
	"github.com/objexa/service/portal/verify"
)

const origin = "https://objexa.test"

var ctx = context.Background()

func flowConfig() flow.Config {
	return flow.Config{
		Origin:           origin,
		CheckEmailExists: true,
		CacheSize:        16,
		CacheTTL:         time.Minute,
		FlowTTL:          time.Minute,
		ResendCooldown:   30 * time.Second,
	}
}

func verifyConfig(interval time.Duration) verify.Config {
	return verify.Config{
		Interval:       interval,
		MaxAttempts:    60,
		ResendCooldown: 30 * time.Second,
		Probe:          verify.ProbeRelogin,
		IdleTimeout:    10 * time.Minute,
		SweepSchedule:  "@every 1m",
	}
}

type fixture struct {
	ctrl     *gomock.Controller
	api      *mock_identity.MockAPI
	registry *verify.Registry
	handler  *flow.Handler
	sender   *recordingSender
}

func setup(t *testing.T, interval time.Duration) *fixture {
	ctrl := gomock.NewController(t)
	api := mock_identity.NewMockAPI(ctrl)
	cfg := flowConfig()
	registry := verify.NewRegistry(verifyConfig(interval), verify.RealClock, api, origin+"/auth.html?verified=true", logging.Global())
	sender := &recordingSender{}
	bootstrap := flow.NewBootstrapper(api, cfg, logging.Global())
	handler := flow.NewHandler(cfg, api, registry, bootstrap, sender, nil, nil, logging.Global())
	return &fixture{ctrl: ctrl, api: api, registry: registry, handler: handler, sender: sender}
}

func (f *fixture) finish() {
	f.registry.Stop()
	f.ctrl.Finish()
}

func newVisitor() *sessions.Visitor {
	return &sessions.Visitor{ID: "visitor-1"}
}

func newVisitorWithID(id string) *sessions.Visitor {
	return &sessions.Visitor{ID: id}
}

type recordingSender struct {
	mtx    sync.Mutex
	resets []confirm.ResetConfirmation
	demos  []confirm.DemoConfirmation
	err    error
}

func (r *recordingSender) DemoConfirmation(_ context.Context, body confirm.DemoConfirmation) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.demos = append(r.demos, body)
	return r.err
}

func (r *recordingSender) PasswordResetConfirmation(_ context.Context, body confirm.ResetConfirmation) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.resets = append(r.resets, body)
	return r.err
}

func session(token string, u *portal.User) *identity.Session {
	return &identity.Session{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         u,
	}
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

var (
	errInvalidCredentials = &identity.ProviderError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	errUnverified         = &identity.ProviderError{Status: 400, Code: "email_not_confirmed", Message: "Email not confirmed"}
	errAlreadyRegistered  = &identity.ProviderError{Status: 422, Message: "User already registered"}
)
