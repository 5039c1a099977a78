package marketing

import (
	"github.com/dukex/mixpanel"
)

const (
	loginEventName      = "backend.user.login"
	signupEventName     = "backend.user.signup"
	demoBookedEventName = "backend.demo.booked"
)

// MixpanelClient wraps the mixpanel library
type MixpanelClient struct {
	client mixpanel.Mixpanel
}

// NewMixpanelClient returns a new MixpanelClient
func NewMixpanelClient(token string) *MixpanelClient {
	return &MixpanelClient{
		// Second arg is mixpanel api URL. Empty string goes to default api host.
		client: mixpanel.New(token, ""),
	}
}

// TrackLogin sends a login event to mixpanel
func (m *MixpanelClient) TrackLogin(email string) error {
	return m.client.Track(email, loginEventName, &mixpanel.Event{
		Properties: map[string]interface{}{
			"email": email,
		},
	})
}

// TrackSignup sends a signup event to mixpanel
func (m *MixpanelClient) TrackSignup(p Prospect) error {
	return m.client.Track(p.Email, signupEventName, &mixpanel.Event{
		Properties: map[string]interface{}{
			"email":        p.Email,
			"source":       p.SignupSource,
			"practiceType": p.PracticeType,
		},
	})
}

// TrackDemoBooked sends a demo booking event to mixpanel
func (m *MixpanelClient) TrackDemoBooked(p Prospect) error {
	return m.client.Track(p.Email, demoBookedEventName, &mixpanel.Event{
		Properties: map[string]interface{}{
			"email":        p.Email,
			"practiceName": p.PracticeName,
		},
	})
}
