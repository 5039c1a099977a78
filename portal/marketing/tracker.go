package marketing

import (
	"time"

	"github.com/weaveworks/common/logging"
)

// Tracker records product analytics events.
type Tracker interface {
	TrackLogin(email string) error
	TrackSignup(p Prospect) error
	TrackDemoBooked(p Prospect) error
}

var (
	_ Tracker = &MixpanelClient{}
	_ Tracker = &SegmentTracker{}
)

// Hub fans portal events out to the prospect queues and trackers. A nil
// *Hub is valid and does nothing.
type Hub struct {
	Queues   Queues
	Trackers []Tracker
	Log      logging.Interface
}

// Login records a successful login.
func (h *Hub) Login(email string, at time.Time) {
	if h == nil {
		return
	}
	h.Queues.UserAccess(email, at)
	for _, t := range h.Trackers {
		if err := t.TrackLogin(email); err != nil {
			h.Log.Warnf("marketing: tracking login for %s: %v", email, err)
		}
	}
}

// Signup records a new registration.
func (h *Hub) Signup(p Prospect, params map[string]string) {
	if h == nil {
		return
	}
	h.Queues.UserCreated(p, params)
	for _, t := range h.Trackers {
		if err := t.TrackSignup(p); err != nil {
			h.Log.Warnf("marketing: tracking signup for %s: %v", p.Email, err)
		}
	}
}

// DemoBooked records a demo booking.
func (h *Hub) DemoBooked(p Prospect) {
	if h == nil {
		return
	}
	h.Queues.DemoRequested(p)
	for _, t := range h.Trackers {
		if err := t.TrackDemoBooked(p); err != nil {
			h.Log.Warnf("marketing: tracking demo booking for %s: %v", p.Email, err)
		}
	}
}
