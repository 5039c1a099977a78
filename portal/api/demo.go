package api

import (
	"net/http"
	"strconv"

	"github.com/objexa/service/common/render"
	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/sessions"
)

func (a *API) bookDemo(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	var form portal.DemoForm
	if err := decode(r, &form); err != nil {
		renderError(w, r, err)
		return
	}
	res, err := a.booking.Submit(r.Context(), v, a.session(r), form)
	if err != nil {
		// The draft may have been cleared or saved; keep the cookie in step.
		a.persist(w, r, v, nil)
		renderError(w, r, err)
		return
	}
	a.respond(w, r, v, res.Session, res)
}

type draftView struct {
	Draft *portal.DemoForm `json:"draft"`
}

func (a *API) demoDraft(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	draft, refreshed, err := a.booking.RestoreDraft(r.Context(), v, a.session(r))
	if err != nil {
		a.persist(w, r, v, nil)
		renderError(w, r, err)
		return
	}
	a.respond(w, r, v, refreshed, draftView{Draft: draft})
}

func (a *API) listLeads(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		var err error
		if page, err = strconv.Atoi(p); err != nil || page < 1 {
			renderError(w, r, portal.ValidationErrorf("Invalid page %q", p))
			return
		}
	}
	leads, err := a.booking.Recent(r.Context(), page)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]interface{}{
		"page":  page,
		"leads": leads,
	})
}
