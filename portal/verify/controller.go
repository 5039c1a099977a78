package verify

import (
	"context"
	"sync"
	"time"

	"github.com/objexa/service/portal/identity"
)

// Controller holds everything a visitor's open page needs between requests:
// the verification poller and the guards against double submits.
type Controller struct {
	VisitorID string
	Poller    *Poller

	mtx      sync.Mutex
	guards   map[string]chan struct{}
	lastSeen time.Time
	observed *identity.Session
}

// TryBegin claims the in-flight slot for form. It never waits: a second
// submit while the first is running gets ok == false.
func (c *Controller) TryBegin(form string) (done func(), ok bool) {
	c.mtx.Lock()
	guard, exists := c.guards[form]
	if !exists {
		guard = make(chan struct{}, 1)
		c.guards[form] = guard
	}
	c.mtx.Unlock()

	select {
	case guard <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-guard }) }, true
	default:
		return nil, false
	}
}

// ObserveSession records a session that appeared for this visitor outside
// the poller, e.g. from a login in another tab.
func (c *Controller) ObserveSession(session *identity.Session) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.observed = session
}

// StartVerification starts polling for a newly registered account. A session
// observed before this belongs to some earlier sign in and is forgotten.
func (c *Controller) StartVerification(email, password string) {
	c.mtx.Lock()
	c.observed = nil
	c.mtx.Unlock()
	c.Poller.Start(email, password)
}

// observedSession is the probe used when polling without credentials.
func (c *Controller) observedSession(_ context.Context, _, _ string) (*identity.Session, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	session := c.observed
	c.observed = nil
	return session, nil
}

func (c *Controller) touch(now time.Time) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.lastSeen = now
}

func (c *Controller) idleSince() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.lastSeen
}

// Teardown stops the poller and drops the credentials.
func (c *Controller) Teardown() {
	c.Poller.Teardown()
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.observed = nil
}
