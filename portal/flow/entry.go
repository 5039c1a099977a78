package flow

import (
	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/sessions"
)

// Auth page tabs.
const (
	ModeLogin    = "login"
	ModeRegister = "register"
)

// Entry is how the auth page should first render.
type Entry struct {
	Mode     string `json:"mode"`
	Redirect string `json:"redirect,omitempty"`
	Banner   string `json:"banner,omitempty"`
}

// EntryState reads the auth page's query parameters. The verified banner is
// only shown once per visitor.
func EntryState(visitor *sessions.Visitor, mode, redirect string, verified bool) Entry {
	e := Entry{Mode: ModeLogin, Redirect: redirect}
	if mode == ModeRegister {
		e.Mode = ModeRegister
	}
	if verified && !visitor.BannerShown {
		e.Banner = portal.MessageVerifiedBanner
		visitor.BannerShown = true
	}
	return e
}
