package flow

import (
	"flag"
	"strings"
	"time"

	"github.com/objexa/service/portal"
)

// CallbackPath is where the identity provider sends visitors back after a
// federated sign in.
const CallbackPath = "/api/portal/oauth/callback"

// Config for the credential flows.
type Config struct {
	Origin           string
	CallbackURL      string
	CheckEmailExists bool
	CacheSize        int
	CacheTTL         time.Duration
	FlowTTL          time.Duration
	ResendCooldown   time.Duration
}

// RegisterFlags sets up config for the credential flows.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.Origin, "portal.origin", "http://localhost:8000", "Origin of the marketing site; links in emails point here")
	f.StringVar(&cfg.CallbackURL, "oauth.callback-url", "", "Where the identity provider returns federated sign ins. Defaults to the portal origin plus "+CallbackPath)
	f.BoolVar(&cfg.CheckEmailExists, "reset.check-email-exists", true, "Check the address is registered before sending a password reset link")
	f.IntVar(&cfg.CacheSize, "principal-cache.size", 1024, "Number of signed in users to cache")
	f.DurationVar(&cfg.CacheTTL, "principal-cache.ttl", 30*time.Second, "How long to cache a signed in user")
	f.DurationVar(&cfg.FlowTTL, "oauth.flow-ttl", 10*time.Minute, "How long a federated sign in may take")
}

func (cfg Config) verifiedURL() string {
	return portal.Absolute(cfg.Origin, portal.AuthPage+"?verified=true")
}

func (cfg Config) resetURL() string {
	return portal.Absolute(cfg.Origin, portal.ResetPasswordPage)
}

func (cfg Config) callbackURL() string {
	if cfg.CallbackURL != "" {
		return cfg.CallbackURL
	}
	return strings.TrimSuffix(cfg.Origin, "/") + CallbackPath
}
