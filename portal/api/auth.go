package api

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/justinas/nosurf"

	"github.com/objexa/service/common"
	"github.com/objexa/service/common/render"
	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/flow"
	"github.com/objexa/service/portal/identity"
	portalrender "github.com/objexa/service/portal/render"
	"github.com/objexa/service/portal/sessions"
)

func (a *API) csrfToken(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, map[string]string{"token": nosurf.Token(r)})
}

func (a *API) entry(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	e := flow.EntryState(v, q.Get("mode"), q.Get("redirect"), q.Get("verified") == "true")
	a.respond(w, r, v, nil, e)
}

func (a *API) bootstrap(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	d := a.flow.Bootstrapper().Decide(r.Context(), a.session(r), r.URL.Query().Get("redirect"))
	a.respond(w, r, v, d.Refreshed, d)
}

func (a *API) currentUser(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	view, refreshed, err := a.flow.CurrentUser(r.Context(), a.session(r))
	if err != nil {
		renderError(w, r, err)
		return
	}
	a.respond(w, r, v, refreshed, view)
}

type loginView struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) login(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	var view loginView
	if err := decode(r, &view); err != nil {
		renderError(w, r, err)
		return
	}
	res, err := a.flow.Login(r.Context(), v, view.Email, view.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}
	a.respond(w, r, v, res.Session, res)
}

func (a *API) register(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	var form flow.RegisterForm
	if err := decode(r, &form); err != nil {
		renderError(w, r, err)
		return
	}
	form.Params = common.QueryParams(r.URL.Query())
	res, err := a.flow.Register(r.Context(), v, form)
	if err != nil {
		renderError(w, r, err)
		return
	}
	a.respond(w, r, v, res.Session, res)
}

type resetView struct {
	Email string `json:"email"`
}

func (a *API) requestPasswordReset(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	var view resetView
	if err := decode(r, &view); err != nil {
		renderError(w, r, err)
		return
	}
	res, err := a.flow.RequestPasswordReset(r.Context(), v, view.Email)
	if err != nil {
		renderError(w, r, err)
		return
	}
	a.respond(w, r, v, nil, res)
}

// updatePasswordView carries the recovery tokens the reset link put in the
// page's URL fragment.
type updatePasswordView struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	flow.PasswordForm
}

func (a *API) updatePassword(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	var view updatePasswordView
	if err := decode(r, &view); err != nil {
		renderError(w, r, err)
		return
	}
	recovery := &identity.Session{AccessToken: view.AccessToken, RefreshToken: view.RefreshToken}
	res, err := a.flow.UpdatePassword(r.Context(), v, recovery, view.PasswordForm)
	if err != nil {
		renderError(w, r, err)
		return
	}
	a.respond(w, r, v, nil, res)
}

func (a *API) completeProfile(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	var form flow.ProfileForm
	if err := decode(r, &form); err != nil {
		renderError(w, r, err)
		return
	}
	res, err := a.flow.CompleteProfile(r.Context(), v, a.session(r), form)
	if err != nil {
		renderError(w, r, err)
		return
	}
	a.respond(w, r, v, res.Session, res)
}

func (a *API) logout(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	a.flow.Logout(r.Context(), v, a.session(r))
	a.sessions.Clear(w)
	a.respond(w, r, v, nil, nil)
}

func (a *API) oauthStart(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	u, err := a.flow.InitiateFederatedSignIn(r.Context(), v, provider, r.URL.Query().Get("redirect"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	a.persist(w, r, v, nil)
	http.Redirect(w, r, u, http.StatusFound)
}

func (a *API) oauthCallback(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if desc := q.Get("error_description"); desc != "" {
		a.authPageError(w, r, desc)
		return
	}
	res, err := a.flow.CompleteFederatedSignIn(r.Context(), v, q.Get("flow"), q.Get("code"))
	if err != nil {
		msg := err.Error()
		if portalrender.ErrorStatusCode(err) == http.StatusInternalServerError {
			msg = portal.ErrInvalidFlow.Error()
		}
		a.authPageError(w, r, msg)
		return
	}
	a.persist(w, r, v, res.Session)
	http.Redirect(w, r, res.Location, http.StatusFound)
}

// authPageError sends the browser back to the auth page to show msg.
func (a *API) authPageError(w http.ResponseWriter, r *http.Request, msg string) {
	u := portal.Absolute(a.origin, portal.AuthPage+"?"+url.Values{"error": {msg}}.Encode())
	http.Redirect(w, r, u, http.StatusFound)
}
