package verify

import (
	"flag"
	"fmt"
	"time"
)

// Probe variants.
const (
	ProbeRelogin = "relogin"
	ProbeSession = "session"
)

// Config for verification polling.
type Config struct {
	Interval       time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
	Probe          string
	IdleTimeout    time.Duration
	SweepSchedule  string
}

// RegisterFlags registers configuration variables with a flag set
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.DurationVar(&cfg.Interval, "verify.interval", 4*time.Second, "How often to check whether a new account has been verified")
	f.IntVar(&cfg.MaxAttempts, "verify.max-attempts", 60, "Checks before giving up and offering to resend the email")
	f.DurationVar(&cfg.ResendCooldown, "verify.resend-cooldown", 30*time.Second, "Minimum time between verification email resends")
	f.StringVar(&cfg.Probe, "verify.probe", ProbeRelogin, "How to check for verification: relogin (sign in with the captured password) or session (wait for a session to appear)")
	f.DurationVar(&cfg.IdleTimeout, "verify.idle-timeout", 10*time.Minute, "Drop page controllers not seen for this long")
	f.StringVar(&cfg.SweepSchedule, "verify.sweep-schedule", "@every 1m", "Cron schedule of the idle controller sweep")
}

// Validate checks the config.
func (cfg *Config) Validate() error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("verify.interval must be positive")
	}
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("verify.max-attempts must be at least 1")
	}
	if cfg.Probe != ProbeRelogin && cfg.Probe != ProbeSession {
		return fmt.Errorf("unknown verify.probe %q", cfg.Probe)
	}
	return nil
}
