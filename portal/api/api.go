package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/nosurf"
	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/user"

	"github.com/objexa/service/common/render"
	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/booking"
	"github.com/objexa/service/portal/flow"
	"github.com/objexa/service/portal/identity"
	portalrender "github.com/objexa/service/portal/render"
	"github.com/objexa/service/portal/sessions"
)

// TeardownPath takes DELETE, or POST from navigator.sendBeacon when the page
// unloads. Beacons cannot carry a CSRF token.
const TeardownPath = "/api/portal/controller"

// API implements the portal api.
type API struct {
	flow     *flow.Handler
	booking  *booking.Service
	sessions sessions.Store
	visitors sessions.VisitorStore
	origin   string
	secure   bool
	http.Handler
}

// New creates a new API
func New(handler *flow.Handler, bookings *booking.Service, store sessions.Store, visitors sessions.VisitorStore, origin string, secure bool) *API {
	a := &API{
		flow:     handler,
		booking:  bookings,
		sessions: store,
		visitors: visitors,
		origin:   origin,
		secure:   secure,
	}
	a.Handler = a.routes()
	return a
}

func (a *API) routes() http.Handler {
	r := mux.NewRouter()
	a.RegisterRoutes(r)

	csrf := nosurf.New(r)
	csrf.SetBaseCookie(http.Cookie{
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		MaxAge:   nosurf.MaxAge,
	})
	csrf.ExemptPath(TeardownPath)
	csrf.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Global().Debugf("CSRF check failed: %v", nosurf.Reason(r))
		renderError(w, r, portal.ValidationErrorf("Your session has expired. Please refresh the page."))
	}))
	return csrf
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	portalrender.Error(w, r, err)
}

// visitorHandler is a handler that works on the visitor's state.
type visitorHandler func(*sessions.Visitor, http.ResponseWriter, *http.Request)

// withVisitor loads the visitor cookie, starting a new visitor if needed.
func (a *API) withVisitor(handler visitorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := a.visitors.Get(r)
		handler(v, w, r.WithContext(user.InjectUserID(r.Context(), v.ID)))
	}
}

// session is the provider session held in the session cookie, or nil.
func (a *API) session(r *http.Request) *identity.Session {
	_, tok, err := a.sessions.Get(r)
	if err != nil {
		return nil
	}
	return identity.SessionFromToken(tok)
}

// persist writes the visitor cookie and, when s is set, the session cookie.
// It must run before anything is written to the body.
func (a *API) persist(w http.ResponseWriter, r *http.Request, v *sessions.Visitor, s *identity.Session) {
	logger := user.LogWith(r.Context(), logging.Global())
	if v != nil {
		if err := a.visitors.Save(w, v); err != nil {
			logger.Errorf("saving visitor cookie: %v", err)
		}
	}
	if s != nil {
		userID, _, _ := a.sessions.Get(r)
		if s.User != nil {
			userID = s.User.ID
		}
		if err := a.sessions.Set(w, userID, s.Token()); err != nil {
			logger.Errorf("saving session cookie: %v", err)
		}
	}
}

func (a *API) respond(w http.ResponseWriter, r *http.Request, v *sessions.Visitor, s *identity.Session, body interface{}) {
	a.persist(w, r, v, s)
	if body == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	render.JSON(w, http.StatusOK, body)
}

func decode(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return portal.ValidationErrorf("Could not read the form: %v", err)
	}
	return nil
}
