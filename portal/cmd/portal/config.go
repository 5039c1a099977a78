package main

import (
	"flag"
	"fmt"

	"github.com/objexa/service/common/dbconfig"
	"github.com/objexa/service/portal/confirm"
	"github.com/objexa/service/portal/flow"
	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/verify"
)

// Config for the portal.
type Config struct {
	sessionSecret string
	secureCookie  bool

	marketoClientID string
	marketoSecret   string
	marketoEndpoint string
	marketoProgram  string
	mixpanelToken   string
	segmentKeyFile  string

	fluentHostPort string
	natsURL        string

	identity identity.Config
	confirm  confirm.Config
	flow     flow.Config
	verify   verify.Config
	db       dbconfig.Config
}

// RegisterFlags registers configuration variables with a flag set
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.sessionSecret, "session-secret", "", "Secret used to validate session and visitor cookies (64 bytes)")
	f.BoolVar(&cfg.secureCookie, "secure-cookie", false, "Set secure flag on cookies (so they only get used on HTTPS connections.)")

	f.StringVar(&cfg.marketoClientID, "marketo.client-id", "", "Client ID of Marketo account. If not supplied marketo integration will be disabled.")
	f.StringVar(&cfg.marketoSecret, "marketo.secret", "", "Secret for Marketo account.")
	f.StringVar(&cfg.marketoEndpoint, "marketo.endpoint", "", "REST API endpoint for Marketo.")
	f.StringVar(&cfg.marketoProgram, "marketo.program", "2024_00_Website_Objexa", "Program name to add prospects to (for Marketo).")
	f.StringVar(&cfg.mixpanelToken, "mixpanel.token", "", "Mixpanel project API token")
	f.StringVar(&cfg.segmentKeyFile, "segment.write-key-file", "", "File containing the segment write key. Empty logs instead of sending.")

	f.StringVar(&cfg.fluentHostPort, "fluent", "", "Hostname & port for fluent audit events")
	f.StringVar(&cfg.natsURL, "nats.url", "", "NATS server to announce new leads on. Empty disables publishing.")

	cfg.identity.RegisterFlags(f)
	cfg.confirm.RegisterFlags(f)
	cfg.flow.RegisterFlags(f)
	cfg.verify.RegisterFlags(f)
	cfg.db.RegisterFlags(f,
		"memory://",
		"URI where the leads can be found: postgres://, https:// (PostgREST) or memory://",
		"/migrations",
		"Path where the database migration files can be found")
}

// Validate checks the config once flags are parsed.
func (cfg *Config) Validate() error {
	if len(cfg.sessionSecret) != 64 {
		return fmt.Errorf("-session-secret must be 64 bytes, got %d", len(cfg.sessionSecret))
	}
	if err := cfg.verify.Validate(); err != nil {
		return err
	}
	// One cooldown for both the live and the detached resend.
	cfg.flow.ResendCooldown = cfg.verify.ResendCooldown
	return nil
}
