package verify_test

import (
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaveworks/common/logging"

	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/identity/mock_identity"
	"github.com/objexa/service/portal/verify"
)

func TestController_TryBegin(t *testing.T) {
	r := verify.NewRegistry(testConfig(), newFakeClock(), nil, returnURL, logging.Global())
	c := r.Get("visitor-1")

	done, ok := c.TryBegin("register")
	require.True(t, ok)
	_, ok = c.TryBegin("register")
	assert.False(t, ok)

	// Other forms have their own slot.
	loginDone, ok := c.TryBegin("login")
	require.True(t, ok)
	loginDone()

	done()
	done()
	again, ok := c.TryBegin("register")
	assert.True(t, ok)
	again()
}

func TestController_TryBeginConcurrent(t *testing.T) {
	r := verify.NewRegistry(testConfig(), newFakeClock(), nil, returnURL, logging.Global())
	c := r.Get("visitor-1")

	var (
		wg      sync.WaitGroup
		mtx     sync.Mutex
		winners int
		hold    = make(chan struct{})
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if done, ok := c.TryBegin("register"); ok {
				mtx.Lock()
				winners++
				mtx.Unlock()
				<-hold
				done()
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(hold)
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestRegistry_GetAndTeardown(t *testing.T) {
	clock := newFakeClock()
	r := verify.NewRegistry(testConfig(), clock, nil, returnURL, logging.Global())

	c := r.Get("visitor-1")
	assert.True(t, c == r.Get("visitor-1"))
	_, ok := r.Lookup("visitor-2")
	assert.False(t, ok)

	c.Poller.Start("jane@smile.test", "Abcd123!")
	r.Teardown("visitor-1")
	assert.Equal(t, 0, r.Len())
	assert.False(t, c.Poller.HasCredentials())
	assert.True(t, clock.current().Stopped())
}

func TestRegistry_Sweep(t *testing.T) {
	clock := newFakeClock()
	r := verify.NewRegistry(testConfig(), clock, nil, returnURL, logging.Global())

	stale := r.Get("stale")
	stale.Poller.Start("stale@smile.test", "Abcd123!")
	clock.Advance(9 * time.Minute)
	r.Get("fresh")
	clock.Advance(2 * time.Minute)

	r.Sweep()
	assert.Equal(t, 1, r.Len())
	_, ok := r.Lookup("stale")
	assert.False(t, ok)
	_, ok = r.Lookup("fresh")
	assert.True(t, ok)
	assert.False(t, stale.Poller.HasCredentials())
}

func TestRegistry_StartStop(t *testing.T) {
	r := verify.NewRegistry(testConfig(), newFakeClock(), nil, returnURL, logging.Global())
	require.NoError(t, r.Start())
	r.Get("visitor-1")
	r.Stop()
	assert.Equal(t, 0, r.Len())

	cfg := testConfig()
	cfg.SweepSchedule = "not a schedule"
	assert.Error(t, verify.NewRegistry(cfg, newFakeClock(), nil, returnURL, logging.Global()).Start())
}

func TestRegistry_ReloginProbe(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := mock_identity.NewMockAPI(ctrl)
	api.EXPECT().SignIn(gomock.Any(), "jane@smile.test", "Abcd123!").
		Return(&identity.Session{AccessToken: "access-1"}, nil)

	clock := newFakeClock()
	r := verify.NewRegistry(testConfig(), clock, api, returnURL, logging.Global())
	p := r.Get("visitor-1").Poller
	watch, cancel := p.Watch()
	defer cancel()

	p.Start("jane@smile.test", "Abcd123!")
	next(t, watch)
	clock.current().fire()
	assert.Equal(t, verify.Succeeded, next(t, watch).State)
}

func TestRegistry_SessionProbe(t *testing.T) {
	cfg := testConfig()
	cfg.Probe = verify.ProbeSession
	clock := newFakeClock()
	r := verify.NewRegistry(cfg, clock, nil, returnURL, logging.Global())
	c := r.Get("visitor-1")
	watch, cancel := c.Poller.Watch()
	defer cancel()

	c.Poller.Start("jane@smile.test", "")
	next(t, watch)

	clock.current().fire()
	s := next(t, watch)
	assert.Equal(t, verify.Polling, s.State)
	assert.Equal(t, 1, s.Attempts)

	c.ObserveSession(&identity.Session{AccessToken: "from-callback"})
	clock.current().fire()
	assert.Equal(t, verify.Succeeded, next(t, watch).State)
	session, ok := c.Poller.Claim()
	require.True(t, ok)
	assert.Equal(t, "from-callback", session.AccessToken)
}

func TestRegistry_SessionProbeIgnoresEarlierSignIn(t *testing.T) {
	cfg := testConfig()
	cfg.Probe = verify.ProbeSession
	clock := newFakeClock()
	r := verify.NewRegistry(cfg, clock, nil, returnURL, logging.Global())
	c := r.Get("visitor-1")
	watch, cancel := c.Poller.Watch()
	defer cancel()

	// Signed in to another account before registering a new one.
	c.ObserveSession(&identity.Session{AccessToken: "old-account"})
	c.StartVerification("new@clinic.test", "")
	next(t, watch)

	clock.current().fire()
	s := next(t, watch)
	assert.Equal(t, verify.Polling, s.State)
	_, ok := c.Poller.Claim()
	assert.False(t, ok)

	c.ObserveSession(&identity.Session{AccessToken: "new-account"})
	clock.current().fire()
	assert.Equal(t, verify.Succeeded, next(t, watch).State)
	session, ok := c.Poller.Claim()
	require.True(t, ok)
	assert.Equal(t, "new-account", session.AccessToken)
}
