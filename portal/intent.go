package portal

import "net/url"

// Page destinations, relative to the site origin.
const (
	LandingPage           = "index.html"
	DemoAnchor            = "index.html#demo"
	ProfileCompletionPage = "complete-profile.html"
	AuthPage              = "auth.html"
	ResetPasswordPage     = "reset-password.html"
)

// IntentDemo is the reserved redirect token returning the visitor to the demo form.
const IntentDemo = "demo"

// ResolveIntent maps a stored redirect token to the page the visitor lands on.
func ResolveIntent(intent string) string {
	switch intent {
	case "":
		return LandingPage
	case IntentDemo:
		return DemoAnchor
	}
	return ProfileCompletionURL(intent)
}

// ProfileCompletionURL points at the profile form, forwarding redirect when set.
func ProfileCompletionURL(redirect string) string {
	if redirect == "" {
		return ProfileCompletionPage
	}
	return ProfileCompletionPage + "?" + url.Values{"redirect": {redirect}}.Encode()
}

// LandingURL is where a signed-in visitor with a complete profile goes.
func LandingURL(redirect string) string {
	if redirect == IntentDemo {
		return DemoAnchor
	}
	return LandingPage
}

// RegisterForDemoURL sends an anonymous visitor to sign up before booking.
const RegisterForDemoURL = AuthPage + "?mode=register&redirect=" + IntentDemo

// Absolute joins a page path onto the site origin.
func Absolute(origin, page string) string {
	if origin == "" {
		return page
	}
	if origin[len(origin)-1] == '/' {
		return origin + page
	}
	return origin + "/" + page
}
