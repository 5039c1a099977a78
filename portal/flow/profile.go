package flow

import (
	"context"
	"strings"

	"github.com/weaveworks/common/user"

	"github.com/objexa/service/common/validation"
	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/confirm"
	"github.com/objexa/service/portal/events"
	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/sessions"
)

// ProfileForm completes a profile after a federated sign in, or fills in
// what registration left out.
type ProfileForm struct {
	FullName        string `json:"fullName"`
	PracticeType    string `json:"practiceType"`
	OtherPractice   string `json:"otherPractice"`
	PracticeName    string `json:"practiceName"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Redirect        string `json:"redirect"`
}

func (f ProfileForm) validate(needsPassword bool) error {
	if f.PracticeType == "" || (f.PracticeType == portal.PracticeTypeOther && strings.TrimSpace(f.OtherPractice) == "") {
		return portal.FieldErrorf("practiceType", "Please select your practice type")
	}
	if strings.TrimSpace(f.PracticeName) == "" {
		return portal.FieldErrorf("practiceName", "Please enter your practice name")
	}
	if f.Phone != "" && !validation.ValidatePhone(f.Phone) {
		return portal.ErrInvalidPhone
	}
	if needsPassword {
		if failed := validation.CheckPassword(f.Password); len(failed) > 0 {
			return portal.PasswordPolicyError("password", failed)
		}
		if f.Password != f.ConfirmPassword {
			return portal.ErrPasswordMismatch
		}
	}
	return nil
}

// CompleteProfile saves the practice details, and a password for visitors
// who only ever signed in with Google.
func (h *Handler) CompleteProfile(ctx context.Context, visitor *sessions.Visitor, session *identity.Session, form ProfileForm) (*Result, error) {
	_, done, err := h.begin(visitor, FormProfile)
	if err != nil {
		return nil, err
	}
	defer done()

	u, refreshed, err := h.bootstrap.Principal(ctx, session)
	if err != nil {
		return nil, err
	}
	if refreshed != nil {
		session = refreshed
	}
	needsPassword := u.FederatedOnly()
	if err := form.validate(needsPassword); err != nil {
		return nil, err
	}

	meta := u.Metadata
	if form.FullName != "" {
		meta.FullName = form.FullName
	}
	meta.PracticeType = form.PracticeType
	if form.PracticeType == portal.PracticeTypeOther {
		meta.PracticeType = strings.TrimSpace(form.OtherPractice)
	}
	meta.PracticeName = strings.TrimSpace(form.PracticeName)
	if form.Phone != "" {
		meta.Phone = form.Phone
	}

	update := identity.UserUpdate{Data: &meta}
	if needsPassword {
		update.Password = form.Password
	}
	if _, err := h.api.UpdateUser(ctx, session.AccessToken, update); err != nil {
		return nil, identity.Translate(err)
	}
	h.bootstrap.Forget(session.AccessToken)

	return &Result{
		Message:  portal.MessageProfileSaved,
		Location: portal.LandingURL(form.Redirect),
		DelayMs:  portal.RedirectDelayMs,
		Session:  refreshed,
	}, nil
}

// PasswordForm sets a new password from a recovery link.
type PasswordForm struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdatePassword sets a new password using the recovery session, then sends
// a confirmation email. The email is best effort.
func (h *Handler) UpdatePassword(ctx context.Context, visitor *sessions.Visitor, recovery *identity.Session, form PasswordForm) (*Result, error) {
	_, done, err := h.begin(visitor, FormPassword)
	if err != nil {
		return nil, err
	}
	defer done()

	if recovery == nil || recovery.AccessToken == "" {
		return nil, portal.ErrNotAuthenticated
	}
	if failed := validation.CheckPassword(form.Password); len(failed) > 0 {
		return nil, portal.PasswordPolicyError("password", failed)
	}
	if form.Password != form.ConfirmPassword {
		return nil, portal.ErrPasswordMismatch
	}

	u, err := h.api.UpdateUser(ctx, recovery.AccessToken, identity.UserUpdate{Password: form.Password})
	if err != nil {
		return nil, identity.Translate(err)
	}
	h.bootstrap.Forget(recovery.AccessToken)

	result := &Result{
		Message:  portal.MessagePasswordUpdated,
		Location: portal.AuthPage,
		DelayMs:  portal.RedirectDelayMs,
	}
	if u != nil && u.Email != "" {
		if err := h.confirm.PasswordResetConfirmation(ctx, confirm.ResetConfirmation{
			Email: u.Email,
			Name:  u.Metadata.FullName,
		}); err != nil {
			user.LogWith(ctx, h.log).Warnf("password reset confirmation for %s: %v", u.Email, err)
		}
	}
	return result, nil
}

// Logout forgets the demo draft and signs the session out at the provider.
// Signing out at the provider is best effort; the caller always clears the
// session cookie.
func (h *Handler) Logout(ctx context.Context, visitor *sessions.Visitor, session *identity.Session) {
	visitor.DemoDraft = nil
	if session == nil {
		return
	}
	h.bootstrap.Forget(session.AccessToken)
	if h.api == nil {
		return
	}
	if err := h.api.SignOut(ctx, session.AccessToken); err != nil {
		user.LogWith(ctx, h.log).Debugf("sign out: %v", err)
	}
	h.logEvent(ctx, events.Event{Name: events.Logout, VisitorID: visitor.ID})
}

// UserView is what the site shows of the signed in user.
type UserView struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	DisplayName  string          `json:"displayName"`
	Metadata     portal.Metadata `json:"metadata"`
	NeedsProfile bool            `json:"needsProfile"`
}

// CurrentUser returns the signed in user.
func (h *Handler) CurrentUser(ctx context.Context, session *identity.Session) (*UserView, *identity.Session, error) {
	u, refreshed, err := h.bootstrap.Principal(ctx, session)
	if err != nil {
		return nil, nil, err
	}
	return &UserView{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName(),
		Metadata:     u.Metadata,
		NeedsProfile: u.NeedsProfileCompletion(),
	}, refreshed, nil
}
