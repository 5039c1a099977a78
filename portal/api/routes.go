package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers the portal API HTTP routes to the provided Router.
func (a *API) RegisterRoutes(r *mux.Router) {
	for _, route := range []struct {
		name, method, path string
		handler            http.HandlerFunc
	}{
		// What the auth page shows first: tab, redirect token, verified banner.
		{"api_portal_entry", "GET", "/api/portal/entry", a.withVisitor(a.entry)},

		// Every page hits this first to decide whether to stay.
		{"api_portal_bootstrap", "GET", "/api/portal/bootstrap", a.withVisitor(a.bootstrap)},
		{"api_portal_user", "GET", "/api/portal/user", a.withVisitor(a.currentUser)},
		{"api_portal_csrf", "GET", "/api/portal/csrf", a.csrfToken},

		{"api_portal_login", "POST", "/api/portal/login", a.withVisitor(a.login)},
		{"api_portal_register", "POST", "/api/portal/register", a.withVisitor(a.register)},
		{"api_portal_password_reset", "POST", "/api/portal/password/reset", a.withVisitor(a.requestPasswordReset)},
		{"api_portal_password_update", "POST", "/api/portal/password/update", a.withVisitor(a.updatePassword)},
		{"api_portal_profile", "POST", "/api/portal/profile", a.withVisitor(a.completeProfile)},
		{"api_portal_logout", "POST", "/api/portal/logout", a.withVisitor(a.logout)},

		// Google sign in. The callback is registered first so "callback" is
		// not taken for a provider name.
		{"api_portal_oauth_callback", "GET", "/api/portal/oauth/callback", a.withVisitor(a.oauthCallback)},
		{"api_portal_oauth_provider", "GET", "/api/portal/oauth/{provider}", a.withVisitor(a.oauthStart)},

		// Waiting for a new account to be verified.
		{"api_portal_verification", "GET", "/api/portal/verification", a.withVisitor(a.verification)},
		{"api_portal_verification_watch", "GET", "/api/portal/verification/watch", a.withVisitor(a.watchVerification)},
		{"api_portal_verification_resend", "POST", "/api/portal/verification/resend", a.withVisitor(a.resendVerification)},
		{"api_portal_verification_cancel", "POST", "/api/portal/verification/cancel", a.withVisitor(a.cancelVerification)},
		{"api_portal_controller_delete", "DELETE", TeardownPath, a.withVisitor(a.teardown)},
		// navigator.sendBeacon can only POST.
		{"api_portal_controller_beacon", "POST", TeardownPath, a.withVisitor(a.teardown)},

		{"api_portal_demo", "POST", "/api/portal/demo", a.withVisitor(a.bookDemo)},
		{"api_portal_demo_draft", "GET", "/api/portal/demo/draft", a.withVisitor(a.demoDraft)},

		// Internal stuff for our internal usage, internally.
		{"admin_portal_leads", "GET", "/admin/portal/leads", a.listLeads},
	} {
		r.Handle(route.path, route.handler).Methods(route.method).Name(route.name)
	}
}
