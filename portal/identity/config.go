package identity

import (
	"flag"
	"io/ioutil"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Config for the identity provider client.
type Config struct {
	URL         string
	AnonKey     string
	AnonKeyFile string
	Timeout     time.Duration
}

// RegisterFlags sets up config for the identity provider client.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	name := "identity"
	f.StringVar(&cfg.URL, name+".url", "", "Base URL of the hosted backend, without the /auth/v1 path. Empty disables sign-in.")
	f.StringVar(&cfg.AnonKey, name+".anon-key", "", "Public (anon) API key sent as the apikey header")
	f.StringVar(&cfg.AnonKeyFile, name+".anon-key-file", "", "File containing the public API key")
	f.DurationVar(&cfg.Timeout, name+".timeout", 10*time.Second, "Timeout of each identity provider call")
}

// Enabled is true when enough is configured to build a client.
func (cfg *Config) Enabled() bool {
	return cfg.URL != "" && (cfg.AnonKey != "" || cfg.AnonKeyFile != "")
}

// Key returns the anon key, reading it from disk when configured that way.
func (cfg *Config) Key() (string, error) {
	if cfg.AnonKeyFile == "" {
		return cfg.AnonKey, nil
	}
	bs, err := ioutil.ReadFile(cfg.AnonKeyFile)
	if err != nil {
		return "", errors.Wrap(err, "reading anon key")
	}
	return strings.TrimSpace(string(bs)), nil
}
