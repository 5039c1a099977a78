package verify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaveworks/common/logging"

	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/verify"
)

const returnURL = "https://objexa.test/auth.html?verified=true"

func newPoller(clock *fakeClock, probe *fakeProbe, resender *fakeResender) *verify.Poller {
	return verify.NewPoller(testConfig(), clock, probe.probe, resender, returnURL, logging.Global())
}

func TestPoller_ExhaustsAfterExactlyMaxAttempts(t *testing.T) {
	clock, probe := newFakeClock(), &fakeProbe{}
	p := newPoller(clock, probe, &fakeResender{})
	watch, cancel := p.Watch()
	defer cancel()

	p.Start("jane@smile.test", "Abcd123!")
	assert.Equal(t, verify.Polling, next(t, watch).State)

	ticker := clock.current()
	for i := 1; i <= 60; i++ {
		require.True(t, ticker.fire(), "tick %d", i)
		s := next(t, watch)
		assert.Equal(t, i, s.Attempts)
		if i < 60 {
			assert.Equal(t, verify.Polling, s.State, "tick %d", i)
		} else {
			assert.Equal(t, verify.Exhausted, s.State)
			assert.Equal(t, "Verification link may have expired.", s.Message)
			assert.True(t, s.ResendEnabled)
		}
	}

	assert.Equal(t, 60, probe.Calls())
	assert.True(t, ticker.Stopped())
	assert.False(t, ticker.fire())
	assert.True(t, p.HasCredentials())
}

func TestPoller_SucceedsOnFirstSession(t *testing.T) {
	clock, probe := newFakeClock(), &fakeProbe{}
	p := newPoller(clock, probe, &fakeResender{})
	watch, cancel := p.Watch()
	defer cancel()

	p.Start("jane@smile.test", "Abcd123!")
	next(t, watch)

	probe.queue(nil, errUnverified)
	probe.queue(nil, &identity.NetworkError{Err: assert.AnError})
	probe.queue(&identity.Session{AccessToken: "access-1"}, nil)

	ticker := clock.current()
	for i := 0; i < 3; i++ {
		require.True(t, ticker.fire())
	}
	assert.Equal(t, verify.Polling, next(t, watch).State)
	assert.Equal(t, verify.Polling, next(t, watch).State)
	s := next(t, watch)
	assert.Equal(t, verify.Succeeded, s.State)
	assert.Equal(t, 3, s.Attempts)
	assert.Equal(t, "Email verified! Logging you in...", s.Message)
	assert.Equal(t, 1000, s.DelayMs)
	assert.False(t, p.HasCredentials())
	assert.True(t, ticker.Stopped())

	session, ok := p.Claim()
	require.True(t, ok)
	assert.Equal(t, "access-1", session.AccessToken)
	_, ok = p.Claim()
	assert.False(t, ok)
}

func TestPoller_CancelStopsTicks(t *testing.T) {
	clock, probe := newFakeClock(), &fakeProbe{}
	p := newPoller(clock, probe, &fakeResender{})
	watch, cancel := p.Watch()
	defer cancel()

	p.Start("jane@smile.test", "Abcd123!")
	next(t, watch)
	ticker := clock.current()
	require.True(t, ticker.fire())
	assert.Equal(t, 1, next(t, watch).Attempts)

	assert.True(t, p.Cancel())
	assert.Equal(t, verify.Cancelled, p.Status().State)
	assert.False(t, p.HasCredentials())
	assert.True(t, ticker.Stopped())
	ticker.fire()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, probe.Calls())

	// Idempotent outside polling and exhausted.
	assert.False(t, p.Cancel())
	assert.Equal(t, verify.Cancelled, p.Status().State)
}

func TestPoller_CancelFromExhausted(t *testing.T) {
	clock, probe := newFakeClock(), &fakeProbe{}
	cfg := testConfig()
	cfg.MaxAttempts = 2
	p := verify.NewPoller(cfg, clock, probe.probe, &fakeResender{}, returnURL, logging.Global())
	watch, cancel := p.Watch()
	defer cancel()

	p.Start("jane@smile.test", "Abcd123!")
	next(t, watch)
	ticker := clock.current()
	ticker.fire()
	next(t, watch)
	ticker.fire()
	require.Equal(t, verify.Exhausted, next(t, watch).State)

	assert.True(t, p.Cancel())
	assert.Equal(t, verify.Cancelled, next(t, watch).State)
	assert.False(t, p.HasCredentials())
}

func TestPoller_StartOverwritesCredentials(t *testing.T) {
	clock, probe := newFakeClock(), &fakeProbe{}
	p := newPoller(clock, probe, &fakeResender{})

	p.Start("first@smile.test", "Abcd123!")
	first := clock.current()
	p.Start("second@smile.test", "Efgh456?")
	second := clock.current()

	assert.True(t, first.Stopped())
	first.fire()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, probe.Calls())
	assert.Equal(t, 2, clock.count())
	assert.Equal(t, "second@smile.test", p.Status().Email)
	assert.Equal(t, 0, p.Status().Attempts)
	assert.False(t, second.Stopped())
}

func TestPoller_Resend(t *testing.T) {
	clock, probe, resender := newFakeClock(), &fakeProbe{}, &fakeResender{}
	cfg := testConfig()
	cfg.MaxAttempts = 1
	p := verify.NewPoller(cfg, clock, probe.probe, resender, returnURL, logging.Global())
	watch, cancel := p.Watch()
	defer cancel()

	assert.Equal(t, portal.ErrNoVerification, p.Resend(context.Background()))

	p.Start("jane@smile.test", "Abcd123!")
	next(t, watch)
	first := clock.current()
	first.fire()
	require.Equal(t, verify.Exhausted, next(t, watch).State)

	require.NoError(t, p.Resend(context.Background()))
	assert.Equal(t, []string{"jane@smile.test " + returnURL}, resender.Sent())
	s := p.Status()
	assert.Equal(t, verify.Polling, s.State)
	assert.Equal(t, 0, s.Attempts)
	assert.False(t, s.ResendEnabled)
	require.NotNil(t, s.ResendAvailableAt)
	assert.Equal(t, clock.Now().Add(30*time.Second), *s.ResendAvailableAt)
	assert.NotEqual(t, first, clock.current())

	// Cooling down.
	clock.Advance(10 * time.Second)
	err := p.Resend(context.Background())
	cooldown, ok := err.(*portal.CooldownError)
	require.True(t, ok, "%v", err)
	assert.Equal(t, 20*time.Second, cooldown.RetryAfter)
	assert.Len(t, resender.Sent(), 1)

	clock.Advance(20 * time.Second)
	assert.NoError(t, p.Resend(context.Background()))
	assert.Len(t, resender.Sent(), 2)
}

func TestPoller_ResendFailureStillCoolsDown(t *testing.T) {
	clock, probe := newFakeClock(), &fakeProbe{}
	resender := &fakeResender{err: &identity.ProviderError{Status: 429, Message: "For security purposes, you can only request this once every 60 seconds"}}
	p := newPoller(clock, probe, resender)

	p.Start("jane@smile.test", "Abcd123!")
	err := p.Resend(context.Background())
	require.Error(t, err)
	pe, ok := err.(*portal.ProviderError)
	require.True(t, ok)
	assert.Equal(t, portal.KindOther, pe.Kind)

	_, ok = p.Resend(context.Background()).(*portal.CooldownError)
	assert.True(t, ok)
}

func TestPoller_ResendSupersedesInFlightTick(t *testing.T) {
	clock := newFakeClock()
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	blocking := func(ctx context.Context, email, password string) (*identity.Session, error) {
		entered <- struct{}{}
		<-release
		return &identity.Session{AccessToken: "stale"}, nil
	}
	p := verify.NewPoller(testConfig(), clock, blocking, &fakeResender{}, returnURL, logging.Global())

	p.Start("jane@smile.test", "Abcd123!")
	first := clock.current()
	require.True(t, first.fire())
	<-entered

	require.NoError(t, p.Resend(context.Background()))
	close(release)

	// The stale tick found a session but lost the race to the resend.
	time.Sleep(20 * time.Millisecond)
	s := p.Status()
	assert.Equal(t, verify.Polling, s.State)
	assert.Equal(t, 0, s.Attempts)
	_, ok := p.Claim()
	assert.False(t, ok)
}

func TestPoller_ProbePanicIsContained(t *testing.T) {
	clock := newFakeClock()
	panicky := func(ctx context.Context, email, password string) (*identity.Session, error) {
		panic("boom")
	}
	p := verify.NewPoller(testConfig(), clock, panicky, &fakeResender{}, returnURL, logging.Global())
	watch, cancel := p.Watch()
	defer cancel()

	p.Start("jane@smile.test", "Abcd123!")
	next(t, watch)
	clock.current().fire()
	s := next(t, watch)
	assert.Equal(t, verify.Polling, s.State)
	assert.Equal(t, 1, s.Attempts)
}
