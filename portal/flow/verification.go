package flow

import (
	"context"
	"time"

	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/events"
	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/sessions"
	"github.com/objexa/service/portal/verify"
)

// Verification reports on the visitor's pending verification. Once it has
// succeeded, the session is handed out exactly once and the redirect intent
// is consumed.
func (h *Handler) Verification(ctx context.Context, visitor *sessions.Visitor) (verify.Status, *identity.Session) {
	ctrl, ok := h.registry.Lookup(visitor.ID)
	if !ok || ctrl.Poller.Status().State == verify.Idle {
		return h.detachedStatus(visitor), nil
	}
	status := ctrl.Poller.Status()
	if status.State != verify.Succeeded {
		return status, nil
	}
	session, ok := ctrl.Poller.Claim()
	if !ok {
		return status, nil
	}
	status.Location = portal.ResolveIntent(visitor.ConsumeIntent())
	visitor.ClearPending()
	h.logEvent(ctx, events.Event{Name: events.VerificationResult, VisitorID: visitor.ID, UserID: userID(session), Email: status.Email, Outcome: status.State.String()})
	return status, session
}

// VerificationStatus reports on the visitor's pending verification without
// claiming anything.
func (h *Handler) VerificationStatus(visitor *sessions.Visitor) verify.Status {
	ctrl, ok := h.registry.Lookup(visitor.ID)
	if !ok || ctrl.Poller.Status().State == verify.Idle {
		return h.detachedStatus(visitor)
	}
	return ctrl.Poller.Status()
}

// detachedStatus describes a verification this process is not polling for,
// e.g. after a restart. It can only be resent.
func (h *Handler) detachedStatus(visitor *sessions.Visitor) verify.Status {
	status := verify.Status{State: verify.Idle, Email: visitor.PendingEmail}
	if visitor.PendingEmail != "" {
		status.ResendEnabled = true
		if until, ok := h.cooldownUntil(visitor.PendingEmail); ok {
			status.ResendAvailableAt = &until
		}
	}
	return status
}

// Resend sends the verification email again.
func (h *Handler) Resend(ctx context.Context, visitor *sessions.Visitor) (*verify.Status, error) {
	ctrl, done, err := h.begin(visitor, FormResend)
	if err != nil {
		return nil, err
	}
	defer done()

	err = ctrl.Poller.Resend(ctx)
	if err == portal.ErrNoVerification && visitor.PendingEmail != "" {
		err = h.resendDetached(ctx, visitor.PendingEmail)
		if err != nil {
			return nil, err
		}
		status := h.detachedStatus(visitor)
		return &status, nil
	}
	if err != nil {
		return nil, err
	}
	status := ctrl.Poller.Status()
	return &status, nil
}

func (h *Handler) cooldownUntil(email string) (time.Time, bool) {
	v, err := h.resends.Get(email)
	if err != nil {
		return time.Time{}, false
	}
	until := v.(time.Time)
	if !h.now().Before(until) {
		return time.Time{}, false
	}
	return until, true
}

func (h *Handler) resendDetached(ctx context.Context, email string) error {
	if until, ok := h.cooldownUntil(email); ok {
		return &portal.CooldownError{RetryAfter: until.Sub(h.now())}
	}
	cooldown := h.cfg.ResendCooldown
	if err := h.resends.SetWithExpire(email, h.now().Add(cooldown), cooldown); err != nil {
		return err
	}
	return identity.Translate(h.api.ResendVerification(ctx, email, h.cfg.verifiedURL()))
}

// CancelVerification gives up waiting and forgets the pending registration.
func (h *Handler) CancelVerification(ctx context.Context, visitor *sessions.Visitor) verify.Status {
	if ctrl, ok := h.registry.Lookup(visitor.ID); ok {
		if ctrl.Poller.Cancel() {
			h.logEvent(ctx, events.Event{Name: events.VerificationResult, VisitorID: visitor.ID, Email: visitor.PendingEmail, Outcome: verify.Cancelled.String()})
		}
	}
	visitor.ClearPending()
	if ctrl, ok := h.registry.Lookup(visitor.ID); ok {
		return ctrl.Poller.Status()
	}
	return verify.Status{State: verify.Cancelled}
}

// Teardown drops everything held for the visitor's page, and the redirect
// intent with it. The pending email stays so a later page can offer a resend.
func (h *Handler) Teardown(visitor *sessions.Visitor) {
	h.registry.Teardown(visitor.ID)
	visitor.ConsumeIntent()
}

// Watch streams the visitor's verification status. cancel must be called
// when done.
func (h *Handler) Watch(visitor *sessions.Visitor) (<-chan verify.Status, func()) {
	return h.registry.Get(visitor.ID).Poller.Watch()
}
