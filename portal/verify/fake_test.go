package verify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/verify"
)

// fakeClock hands out tickers the test fires by hand.
type fakeClock struct {
	mtx     sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) NewTicker(d time.Duration) verify.Ticker {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) current() *fakeTicker {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

func (c *fakeClock) count() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.tickers)
}

type fakeTicker struct {
	c       chan time.Time
	mtx     sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }

func (t *fakeTicker) Stop() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.stopped = true
}

func (t *fakeTicker) Stopped() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.stopped
}

// fire delivers a tick, reporting false if nobody is listening any more.
func (t *fakeTicker) fire() bool {
	select {
	case t.c <- time.Now():
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

// fakeProbe answers with whatever the test queued, "unverified" by default.
type fakeProbe struct {
	mtx     sync.Mutex
	calls   int
	answers []probeAnswer
}

type probeAnswer struct {
	session *identity.Session
	err     error
}

var errUnverified = &identity.ProviderError{Status: 400, Code: "email_not_confirmed", Message: "Email not confirmed"}

func (p *fakeProbe) queue(session *identity.Session, err error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.answers = append(p.answers, probeAnswer{session, err})
}

func (p *fakeProbe) probe(_ context.Context, email, password string) (*identity.Session, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.calls++
	if len(p.answers) == 0 {
		return nil, errUnverified
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a.session, a.err
}

func (p *fakeProbe) Calls() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.calls
}

type fakeResender struct {
	mtx   sync.Mutex
	sent  []string
	err   error
	block chan struct{}
}

func (r *fakeResender) ResendVerification(_ context.Context, email, returnURL string) error {
	if r.block != nil {
		<-r.block
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.sent = append(r.sent, email+" "+returnURL)
	return r.err
}

func (r *fakeResender) Sent() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]string(nil), r.sent...)
}

func next(t *testing.T, c <-chan verify.Status) verify.Status {
	select {
	case s, ok := <-c:
		require.True(t, ok, "watch closed")
		return s
	case <-time.After(time.Second):
		require.FailNow(t, "no status change")
	}
	return verify.Status{}
}

func testConfig() verify.Config {
	return verify.Config{
		Interval:       4 * time.Second,
		MaxAttempts:    60,
		ResendCooldown: 30 * time.Second,
		Probe:          verify.ProbeRelogin,
		IdleTimeout:    10 * time.Minute,
		SweepSchedule:  "@every 1m",
	}
}
