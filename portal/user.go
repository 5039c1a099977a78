package portal

import "strings"

// Identity providers the portal knows about.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// PracticeTypeOther is replaced by the free-text practice type on registration.
const PracticeTypeOther = "other"

// Metadata is the profile attached to a user by the identity provider.
type Metadata struct {
	FullName     string `json:"full_name,omitempty"`
	PracticeName string `json:"practice_name,omitempty"`
	PracticeType string `json:"practice_type,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Complete is true once both practice fields are filled in.
func (m Metadata) Complete() bool {
	return m.PracticeName != "" && m.PracticeType != ""
}

// Identity is one way a user can sign in.
type Identity struct {
	ID       string `json:"id,omitempty"`
	Provider string `json:"provider"`
}

// User is the authenticated principal as returned by the identity provider.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Metadata   Metadata   `json:"user_metadata"`
	Identities []Identity `json:"identities"`
}

// HasIdentity reports whether the user can sign in with provider.
func (u *User) HasIdentity(provider string) bool {
	for _, id := range u.Identities {
		if id.Provider == provider {
			return true
		}
	}
	return false
}

// FederatedOnly is true for users who signed in with Google and never set a password.
func (u *User) FederatedOnly() bool {
	return u.HasIdentity(ProviderGoogle) && !u.HasIdentity(ProviderEmail)
}

// NeedsProfileCompletion gates every protected page.
func (u *User) NeedsProfileCompletion() bool {
	return !u.Metadata.Complete() || u.FederatedOnly()
}

// DisplayName falls back to the email local part, then to "User".
func (u *User) DisplayName() string {
	if u.Metadata.FullName != "" {
		return u.Metadata.FullName
	}
	if i := strings.Index(u.Email, "@"); i > 0 {
		return u.Email[:i]
	}
	return "User"
}

// DemoForm is a demo booking request as typed into the site.
type DemoForm struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PracticeName string `json:"practice_name"`
}
