package flow

import (
	"context"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/user"

	"github.com/objexa/service/common/validation"
	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/confirm"
	"github.com/objexa/service/portal/events"
	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/marketing"
	"github.com/objexa/service/portal/sessions"
	"github.com/objexa/service/portal/verify"
)

// Form names for the in-flight guards.
const (
	FormLogin    = "login"
	FormRegister = "register"
	FormReset    = "reset"
	FormOAuth    = "oauth"
	FormProfile  = "profile"
	FormPassword = "password"
	FormResend   = "resend"
)

// Handler runs the credential flows on behalf of a visitor.
type Handler struct {
	cfg       Config
	api       identity.API
	registry  *verify.Registry
	bootstrap *Bootstrapper
	confirm   confirm.Sender
	marketing *marketing.Hub
	events    events.Logger
	log       logging.Interface

	flows   gcache.Cache
	resends gcache.Cache
	now     func() time.Time
}

// NewHandler makes a Handler. api is nil when no identity provider is
// configured; every flow then fails with portal.ErrConnection.
func NewHandler(cfg Config, api identity.API, registry *verify.Registry, bootstrap *Bootstrapper, sender confirm.Sender, hub *marketing.Hub, ev events.Logger, log logging.Interface) *Handler {
	if sender == nil {
		sender = confirm.Noop{}
	}
	if ev == nil {
		ev = events.Discard{}
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 1
	}
	return &Handler{
		cfg:       cfg,
		api:       api,
		registry:  registry,
		bootstrap: bootstrap,
		confirm:   sender,
		marketing: hub,
		events:    ev,
		log:       log,
		flows:     gcache.New(size).LRU().Expiration(cfg.FlowTTL).Build(),
		resends:   gcache.New(size).LRU().Build(),
		now:       time.Now,
	}
}

// Bootstrapper returns the handler's session bootstrapper.
func (h *Handler) Bootstrapper() *Bootstrapper {
	return h.bootstrap
}

// begin checks the provider is configured and claims the visitor's slot for form.
func (h *Handler) begin(visitor *sessions.Visitor, form string) (*verify.Controller, func(), error) {
	if h.api == nil {
		return nil, nil, portal.ErrConnection
	}
	ctrl := h.registry.Get(visitor.ID)
	done, ok := ctrl.TryBegin(form)
	if !ok {
		return nil, nil, portal.ErrSubmissionInFlight
	}
	return ctrl, done, nil
}

func (h *Handler) logEvent(ctx context.Context, ev events.Event) {
	if err := h.events.LogEvent(ev); err != nil {
		user.LogWith(ctx, h.log).Warnf("audit: %v", err)
	}
}

// Result is what a successful flow tells the page.
type Result struct {
	Message  string `json:"message,omitempty"`
	Notice   string `json:"notice,omitempty"`
	Location string `json:"location,omitempty"`
	DelayMs  int    `json:"delayMs,omitempty"`

	Verification *verify.Status `json:"verification,omitempty"`

	// Session, when set, is written to the session cookie.
	Session *identity.Session `json:"-"`
}

// Login signs the visitor in with a password.
func (h *Handler) Login(ctx context.Context, visitor *sessions.Visitor, email, password string) (*Result, error) {
	_, done, err := h.begin(visitor, FormLogin)
	if err != nil {
		return nil, err
	}
	defer done()

	email = strings.TrimSpace(email)
	session, err := h.api.SignIn(ctx, email, password)
	if err != nil {
		h.logEvent(ctx, events.Event{Name: events.Login, VisitorID: visitor.ID, Email: email, Outcome: identity.Classify(err).String()})
		return nil, loginError(err)
	}
	h.observe(visitor, session)
	h.marketing.Login(email, h.now())
	h.logEvent(ctx, events.Event{Name: events.Login, VisitorID: visitor.ID, UserID: userID(session), Email: email, Outcome: "success"})
	return &Result{
		Message:  portal.MessageLoginSuccess,
		Location: portal.LandingPage,
		DelayMs:  portal.RedirectDelayMs,
		Session:  session,
	}, nil
}

func loginError(err error) error {
	switch identity.Classify(err) {
	case portal.KindInvalidCredentials:
		return &portal.ProviderError{Kind: portal.KindInvalidCredentials, Message: portal.MessageInvalidCredentials}
	case portal.KindUnverified:
		return &portal.ProviderError{Kind: portal.KindUnverified, Message: portal.MessageUnverified}
	}
	return identity.Translate(err)
}

// observe lets a session-probing poller know the visitor signed in.
func (h *Handler) observe(visitor *sessions.Visitor, session *identity.Session) {
	if ctrl, ok := h.registry.Lookup(visitor.ID); ok {
		ctrl.ObserveSession(session)
	}
}

func userID(session *identity.Session) string {
	if session == nil || session.User == nil {
		return ""
	}
	return session.User.ID
}

// RegisterForm is the sign up form.
type RegisterForm struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	PracticeType    string `json:"practiceType"`
	OtherPractice   string `json:"otherPractice"`
	PracticeName    string `json:"practiceName"`
	Phone           string `json:"phone"`
	Redirect        string `json:"redirect"`

	// Params are the landing page's query parameters, for campaign attribution.
	Params map[string]string `json:"-"`
}

// Validate checks the form in the order the page reports problems.
func (f RegisterForm) Validate() error {
	if failed := validation.CheckPassword(f.Password); len(failed) > 0 {
		return portal.PasswordPolicyError("password", failed)
	}
	if f.Password != f.ConfirmPassword {
		return portal.ErrPasswordMismatch
	}
	if !validation.ValidatePhone(f.Phone) {
		return portal.ErrInvalidPhone
	}
	return nil
}

// Metadata is the profile stored with the new account.
func (f RegisterForm) Metadata() portal.Metadata {
	practiceType := f.PracticeType
	if practiceType == portal.PracticeTypeOther {
		practiceType = f.OtherPractice
	}
	return portal.Metadata{
		FullName:     f.FullName,
		PracticeType: practiceType,
		PracticeName: f.PracticeName,
		Phone:        f.Phone,
	}
}

// Register creates an account and starts waiting for it to be verified.
func (h *Handler) Register(ctx context.Context, visitor *sessions.Visitor, form RegisterForm) (*Result, error) {
	ctrl, done, err := h.begin(visitor, FormRegister)
	if err != nil {
		return nil, err
	}
	defer done()

	form.Email = strings.TrimSpace(form.Email)
	if err := form.Validate(); err != nil {
		return nil, err
	}

	meta := form.Metadata()
	res, err := h.api.SignUp(ctx, form.Email, form.Password, meta, h.cfg.verifiedURL())
	if err != nil {
		if identity.Classify(err) == portal.KindAlreadyRegistered {
			return nil, portal.ErrAlreadyRegistered
		}
		return nil, identity.Translate(err)
	}
	// The provider hides existing accounts behind a user with no identities.
	if res.User != nil && len(res.User.Identities) == 0 {
		return nil, portal.ErrAlreadyRegistered
	}

	h.marketing.Signup(marketing.Prospect{
		Email:        form.Email,
		Name:         meta.FullName,
		Phone:        meta.Phone,
		PracticeName: meta.PracticeName,
		PracticeType: meta.PracticeType,
		SignupSource: marketing.SignupSourceEmail,
		CreatedAt:    h.now(),
	}, form.Params)
	h.logEvent(ctx, events.Event{Name: events.Register, VisitorID: visitor.ID, Email: form.Email, Outcome: "success"})

	if res.Session != nil {
		// Verification is switched off at the provider.
		return &Result{
			Message:  portal.MessageLoginSuccess,
			Location: portal.ResolveIntent(form.Redirect),
			DelayMs:  portal.RedirectDelayMs,
			Session:  res.Session,
		}, nil
	}

	visitor.RedirectIntent = form.Redirect
	visitor.PendingEmail = form.Email
	ctrl.StartVerification(form.Email, form.Password)
	status := ctrl.Poller.Status()
	return &Result{Verification: &status}, nil
}

// RequestPasswordReset emails a reset link.
func (h *Handler) RequestPasswordReset(ctx context.Context, visitor *sessions.Visitor, email string) (*Result, error) {
	_, done, err := h.begin(visitor, FormReset)
	if err != nil {
		return nil, err
	}
	defer done()

	email = strings.TrimSpace(email)
	if !validation.ValidateEmail(email) {
		return nil, portal.ErrInvalidEmail
	}
	if h.cfg.CheckEmailExists {
		exists, err := h.api.EmailExists(ctx, email)
		if err != nil {
			user.LogWith(ctx, h.log).Warnf("checking %s exists: %v", email, err)
			return nil, portal.ErrEmailLookup
		}
		if !exists {
			return nil, portal.ErrEmailNotRegistered
		}
	}
	if err := h.api.RequestPasswordReset(ctx, email, h.cfg.resetURL()); err != nil {
		return nil, identity.Translate(err)
	}
	return &Result{Message: portal.MessageResetSent}, nil
}

// federatedFlow is what we remember between sending a visitor to the
// provider and them coming back.
type federatedFlow struct {
	VisitorID string
	Verifier  string
	Redirect  string
}

// InitiateFederatedSignIn returns the provider URL to send the visitor to.
func (h *Handler) InitiateFederatedSignIn(ctx context.Context, visitor *sessions.Visitor, provider, redirect string) (string, error) {
	_, done, err := h.begin(visitor, FormOAuth)
	if err != nil {
		return "", err
	}
	defer done()

	if provider != portal.ProviderGoogle {
		return "", portal.ErrInvalidFlow
	}
	verifier, err := identity.NewVerifier()
	if err != nil {
		return "", errors.Wrap(err, "generating code verifier")
	}
	id := uuid.New().String()
	if err := h.flows.Set(id, federatedFlow{VisitorID: visitor.ID, Verifier: verifier, Redirect: redirect}); err != nil {
		return "", err
	}
	redirectTo := h.cfg.callbackURL() + "?flow=" + id
	return h.api.AuthorizeURL(provider, redirectTo, identity.Challenge(verifier)), nil
}

// CompleteFederatedSignIn exchanges the code the provider returned for a
// session. The visitor then fills in their profile.
func (h *Handler) CompleteFederatedSignIn(ctx context.Context, visitor *sessions.Visitor, flowID, code string) (*Result, error) {
	if h.api == nil {
		return nil, portal.ErrConnection
	}
	v, err := h.flows.Get(flowID)
	if err != nil {
		return nil, portal.ErrInvalidFlow
	}
	h.flows.Remove(flowID)
	flow := v.(federatedFlow)
	if flow.VisitorID != visitor.ID || code == "" {
		return nil, portal.ErrInvalidFlow
	}

	session, err := h.api.ExchangeCode(ctx, code, flow.Verifier)
	if err != nil {
		return nil, identity.Translate(err)
	}
	h.observe(visitor, session)
	if session.User != nil {
		h.marketing.Login(session.User.Email, h.now())
		h.logEvent(ctx, events.Event{Name: events.Login, VisitorID: visitor.ID, UserID: session.User.ID, Email: session.User.Email, Outcome: "federated"})
	}
	return &Result{
		Location: portal.Absolute(h.cfg.Origin, portal.ProfileCompletionURL(flow.Redirect)),
		Session:  session,
	}, nil
}
