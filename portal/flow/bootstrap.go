package flow

import (
	"context"
	"time"

	"github.com/bluele/gcache"
	"github.com/mitchellh/copystructure"
	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/user"

	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/identity"
)

// Tokens this close to expiry are refreshed before use.
const refreshMargin = 30 * time.Second

// DecisionState is what a page should do on load.
type DecisionState string

// Decision states.
const (
	SignedOut DecisionState = "signed-out"
	Redirect  DecisionState = "redirect"
)

// Decision is the single answer of the session bootstrapper.
type Decision struct {
	State    DecisionState `json:"state"`
	Location string        `json:"location,omitempty"`

	// Refreshed is set when the access token had to be refreshed; the caller
	// stores it in place of the old one.
	Refreshed *identity.Session `json:"-"`
}

// Bootstrapper decides where a page load goes, given the visitor's session.
type Bootstrapper struct {
	api   identity.API
	cache gcache.Cache
	now   func() time.Time
	log   logging.Interface
}

// NewBootstrapper makes a bootstrapper. api may be nil, in which case every
// visitor is signed out.
func NewBootstrapper(api identity.API, cfg Config, log logging.Interface) *Bootstrapper {
	size := cfg.CacheSize
	if size <= 0 {
		size = 1
	}
	return &Bootstrapper{
		api:   api,
		cache: gcache.New(size).LRU().Expiration(cfg.CacheTTL).Build(),
		now:   time.Now,
		log:   log,
	}
}

// Decide never fails: anything that goes wrong counts as signed out.
func (b *Bootstrapper) Decide(ctx context.Context, session *identity.Session, redirect string) Decision {
	if b.api == nil || session == nil {
		return Decision{State: SignedOut}
	}
	u, refreshed, err := b.Principal(ctx, session)
	if err != nil {
		if err != portal.ErrNotAuthenticated {
			user.LogWith(ctx, b.log).Warnf("bootstrap: %v", err)
		}
		return Decision{State: SignedOut}
	}
	d := Decision{State: Redirect, Refreshed: refreshed}
	if u.NeedsProfileCompletion() {
		d.Location = portal.ProfileCompletionURL(redirect)
	} else {
		d.Location = portal.LandingURL(redirect)
	}
	return d
}

// Principal returns the user behind session, refreshing the access token
// first if it has expired. The user returned is the caller's own copy.
func (b *Bootstrapper) Principal(ctx context.Context, session *identity.Session) (*portal.User, *identity.Session, error) {
	if b.api == nil {
		return nil, nil, portal.ErrConnection
	}
	if session == nil || session.AccessToken == "" {
		return nil, nil, portal.ErrNotAuthenticated
	}

	var refreshed *identity.Session
	if expiry := session.Expiry(); !expiry.IsZero() && b.now().Add(refreshMargin).After(expiry) {
		if session.RefreshToken == "" {
			return nil, nil, portal.ErrNotAuthenticated
		}
		s, err := b.api.Refresh(ctx, session.RefreshToken)
		if err != nil {
			return nil, nil, unauthenticated(err)
		}
		b.Forget(session.AccessToken)
		refreshed, session = s, s
		if s.User != nil {
			b.remember(s.AccessToken, s.User)
		}
	}

	if cached, err := b.cache.Get(session.AccessToken); err == nil {
		u, err := copyUser(cached.(*portal.User))
		return u, refreshed, err
	}

	u, err := b.api.GetUser(ctx, session.AccessToken)
	if err != nil {
		return nil, nil, unauthenticated(err)
	}
	b.remember(session.AccessToken, u)
	u, err = copyUser(u)
	return u, refreshed, err
}

// Forget drops the cached user for an access token, after it changed or
// was signed out.
func (b *Bootstrapper) Forget(accessToken string) {
	b.cache.Remove(accessToken)
}

func (b *Bootstrapper) remember(accessToken string, u *portal.User) {
	if err := b.cache.Set(accessToken, u); err != nil {
		b.log.Warnf("caching principal: %v", err)
	}
}

func copyUser(u *portal.User) (*portal.User, error) {
	c, err := copystructure.Copy(u)
	if err != nil {
		return nil, err
	}
	return c.(*portal.User), nil
}

// unauthenticated keeps network failures and turns any provider rejection
// of the token into ErrNotAuthenticated.
func unauthenticated(err error) error {
	if identity.Classify(err) == portal.KindNetwork {
		return identity.Translate(err)
	}
	return portal.ErrNotAuthenticated
}
