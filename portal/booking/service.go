package booking

import (
	"context"
	"html"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/microcosm-cc/bluemonday"
	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/user"

	"github.com/objexa/service/common"
	"github.com/objexa/service/common/validation"
	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/confirm"
	"github.com/objexa/service/portal/events"
	"github.com/objexa/service/portal/flow"
	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/leads"
	"github.com/objexa/service/portal/marketing"
	"github.com/objexa/service/portal/sessions"
	"github.com/objexa/service/portal/verify"
)

const formDemo = "demo"

// Service takes demo bookings.
type Service struct {
	DB        leads.DB
	Bootstrap *flow.Bootstrapper
	Registry  *verify.Registry
	Confirm   confirm.Sender
	Marketing *marketing.Hub
	Publisher Publisher
	Events    events.Logger
	Log       logging.Interface

	policy *bluemonday.Policy
}

// NewService makes a booking service. Publisher may be nil.
func NewService(db leads.DB, bootstrap *flow.Bootstrapper, registry *verify.Registry, sender confirm.Sender, hub *marketing.Hub, publisher Publisher, ev events.Logger, log logging.Interface) *Service {
	if sender == nil {
		sender = confirm.Noop{}
	}
	if ev == nil {
		ev = events.Discard{}
	}
	return &Service{
		DB:        db,
		Bootstrap: bootstrap,
		Registry:  registry,
		Confirm:   sender,
		Marketing: hub,
		Publisher: publisher,
		Events:    ev,
		Log:       log,
		policy:    bluemonday.StrictPolicy(),
	}
}

// ValidEmail applies the site's email check, then a stricter format check.
func ValidEmail(email string) bool {
	return validation.ValidateEmail(email) && checkmail.ValidateFormat(email) == nil
}

// Submit books a demo. Visitors who are not signed in have the form kept for
// after they register.
func (s *Service) Submit(ctx context.Context, visitor *sessions.Visitor, session *identity.Session, form portal.DemoForm) (*flow.Result, error) {
	u, refreshed, err := s.Bootstrap.Principal(ctx, session)
	switch err {
	case nil:
	case portal.ErrNotAuthenticated:
		draft := form
		visitor.DemoDraft = &draft
		return &flow.Result{Location: portal.RegisterForDemoURL}, nil
	default:
		return nil, err
	}

	done, ok := s.Registry.Get(visitor.ID).TryBegin(formDemo)
	if !ok {
		return nil, portal.ErrSubmissionInFlight
	}
	defer done()

	email := strings.TrimSpace(form.Email)
	if !ValidEmail(email) {
		return nil, portal.ErrInvalidEmail
	}
	lead := &leads.Lead{
		Name:         s.clean(form.Name),
		Email:        email,
		Phone:        s.clean(form.Phone),
		PracticeName: s.clean(form.PracticeName),
	}
	// The hosted store checks row level security against the user's token.
	token := session.AccessToken
	if refreshed != nil {
		token = refreshed.AccessToken
	}
	if err := s.DB.InsertLead(common.WithBearerToken(ctx, token), lead); err != nil {
		user.LogWith(ctx, s.Log).Errorf("storing lead for %s: %v", email, err)
		return nil, &portal.PersistenceError{Err: err}
	}

	result := &flow.Result{Message: portal.MessageDemoBooked, Session: refreshed}
	if err := s.Confirm.DemoConfirmation(ctx, confirm.DemoConfirmation{
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		PracticeName: lead.PracticeName,
	}); err != nil {
		user.LogWith(ctx, s.Log).Warnf("demo confirmation for %s: %v", email, err)
		result.Notice = portal.MessageConfirmationFailed
	}

	visitor.DemoDraft = nil
	s.Marketing.DemoBooked(marketing.Prospect{
		Email:           lead.Email,
		Name:            lead.Name,
		Phone:           lead.Phone,
		PracticeName:    lead.PracticeName,
		PracticeType:    u.Metadata.PracticeType,
		DemoRequestedAt: lead.CreatedAt,
	})
	if s.Publisher != nil {
		if err := s.Publisher.Publish(lead); err != nil {
			user.LogWith(ctx, s.Log).Warnf("publishing lead %s: %v", lead.ID, err)
		}
	}
	if err := s.Events.LogEvent(events.Event{Name: events.DemoBooked, VisitorID: visitor.ID, UserID: u.ID, Email: lead.Email, Outcome: "success"}); err != nil {
		user.LogWith(ctx, s.Log).Warnf("audit: %v", err)
	}
	return result, nil
}

func (s *Service) clean(field string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(field)))
}

// RestoreDraft returns the form a visitor filled in before signing in. The
// draft is cleared either way; only a signed in visitor gets it back.
func (s *Service) RestoreDraft(ctx context.Context, visitor *sessions.Visitor, session *identity.Session) (*portal.DemoForm, *identity.Session, error) {
	draft := visitor.TakeDraft()
	if draft == nil {
		return nil, nil, nil
	}
	_, refreshed, err := s.Bootstrap.Principal(ctx, session)
	if err == portal.ErrNotAuthenticated {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return draft, refreshed, nil
}

// Recent lists stored leads, newest first.
func (s *Service) Recent(ctx context.Context, page int) ([]*leads.Lead, error) {
	return s.DB.ListLeads(ctx, page)
}
