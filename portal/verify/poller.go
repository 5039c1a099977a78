package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/logging"
	"golang.org/x/time/rate"

	"github.com/objexa/service/common"
	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/identity"
)

var pollAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: common.PrometheusNamespace,
	Subsystem: "portal",
	Name:      "verification_attempts_total",
	Help:      "Verification checks by result.",
}, []string{"result"})

var pollOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: common.PrometheusNamespace,
	Subsystem: "portal",
	Name:      "verification_outcomes_total",
	Help:      "Verification pollers by the state they finished in.",
}, []string{"state"})

func init() {
	prometheus.MustRegister(pollAttemptsTotal, pollOutcomesTotal)
}

// ProbeFunc checks once whether the account behind email has been verified.
// It returns a session when it has.
type ProbeFunc func(ctx context.Context, email, password string) (*identity.Session, error)

// Relogin probes by signing in with the captured credentials.
func Relogin(api identity.API) ProbeFunc {
	return api.SignIn
}

// Resender sends the verification email again.
type Resender interface {
	ResendVerification(ctx context.Context, email, returnURL string) error
}

// credentials never leave the poller.
type credentials struct {
	email    string
	password string
}

// Poller waits for a newly registered account to be verified.
type Poller struct {
	cfg       Config
	clock     Clock
	probe     ProbeFunc
	resender  Resender
	returnURL string
	log       logging.Interface

	mtx        sync.Mutex
	state      State
	attempts   int
	email      string
	creds      *credentials
	session    *identity.Session
	generation uint64
	ticker     Ticker
	quit       chan struct{}
	limiter    *rate.Limiter
	resendAt   time.Time
	watchers   map[chan Status]struct{}
}

// NewPoller makes an idle poller. returnURL is where resent verification
// links send the visitor.
func NewPoller(cfg Config, clock Clock, probe ProbeFunc, resender Resender, returnURL string, log logging.Interface) *Poller {
	return &Poller{
		cfg:       cfg,
		clock:     clock,
		probe:     probe,
		resender:  resender,
		returnURL: returnURL,
		log:       log,
		limiter:   rate.NewLimiter(rate.Every(cfg.ResendCooldown), 1),
		watchers:  map[chan Status]struct{}{},
	}
}

// Start begins polling for email, replacing whatever the poller was doing.
func (p *Poller) Start(email, password string) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.stopLocked()
	p.state = Polling
	p.attempts = 0
	p.email = email
	p.creds = &credentials{email: email, password: password}
	p.session = nil
	p.startLocked()
	p.notifyLocked()
}

// Cancel stops polling and forgets the credentials. It does nothing unless
// the poller is polling or exhausted.
func (p *Poller) Cancel() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.state != Polling && p.state != Exhausted {
		return false
	}
	p.stopLocked()
	p.state = Cancelled
	p.creds = nil
	pollOutcomesTotal.WithLabelValues(Cancelled.String()).Inc()
	p.notifyLocked()
	return true
}

// Teardown cancels and drops any unclaimed session too.
func (p *Poller) Teardown() {
	p.Cancel()
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.stopLocked()
	p.creds = nil
	p.session = nil
	for w := range p.watchers {
		delete(p.watchers, w)
		close(w)
	}
}

// Resend asks for another verification email and restarts polling. Every
// attempt counts against the cooldown, successful or not.
func (p *Poller) Resend(ctx context.Context) error {
	p.mtx.Lock()
	if (p.state != Polling && p.state != Exhausted) || p.creds == nil {
		p.mtx.Unlock()
		return portal.ErrNoVerification
	}
	now := p.clock.Now()
	if !p.limiter.AllowN(now, 1) {
		retry := p.resendAt.Sub(now)
		p.mtx.Unlock()
		return &portal.CooldownError{RetryAfter: retry}
	}
	p.resendAt = now.Add(p.cfg.ResendCooldown)
	creds := p.creds
	p.notifyLocked()
	p.mtx.Unlock()

	if err := p.resender.ResendVerification(ctx, creds.email, p.returnURL); err != nil {
		return identity.Translate(err)
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.creds != creds {
		// Restarted, cancelled or verified while the email was being sent.
		return nil
	}
	p.stopLocked()
	p.state = Polling
	p.attempts = 0
	p.startLocked()
	p.notifyLocked()
	return nil
}

// Claim hands out the session of a verified account, once.
func (p *Poller) Claim() (*identity.Session, bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.state != Succeeded || p.session == nil {
		return nil, false
	}
	session := p.session
	p.session = nil
	return session, true
}

// HasCredentials reports whether the captured credentials are still held.
func (p *Poller) HasCredentials() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.creds != nil
}

// Status returns a snapshot of the poller.
func (p *Poller) Status() Status {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.statusLocked()
}

// Watch streams status changes until cancel is called or the poller is torn down.
func (p *Poller) Watch() (<-chan Status, func()) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	c := make(chan Status, 8)
	p.watchers[c] = struct{}{}
	return c, func() {
		p.mtx.Lock()
		defer p.mtx.Unlock()
		if _, ok := p.watchers[c]; ok {
			delete(p.watchers, c)
			close(c)
		}
	}
}

func (p *Poller) statusLocked() Status {
	s := Status{
		State:       p.state,
		Attempts:    p.attempts,
		MaxAttempts: p.cfg.MaxAttempts,
		Email:       p.email,
	}
	if p.state == Polling || p.state == Exhausted {
		now := p.clock.Now()
		s.ResendEnabled = !now.Before(p.resendAt)
		if !s.ResendEnabled {
			at := p.resendAt
			s.ResendAvailableAt = &at
		}
	}
	switch p.state {
	case Exhausted:
		s.Message = portal.MessageVerificationExpiry
	case Succeeded:
		s.Message = portal.MessageVerified
		s.DelayMs = portal.RedirectDelayMs
	}
	return s
}

func (p *Poller) notifyLocked() {
	status := p.statusLocked()
	for w := range p.watchers {
		select {
		case w <- status:
		default:
			// Slow watchers catch up through Status.
		}
	}
}

// startLocked begins a new generation with its own ticker goroutine.
func (p *Poller) startLocked() {
	p.generation++
	p.ticker = p.clock.NewTicker(p.cfg.Interval)
	p.quit = make(chan struct{})
	go p.loop(p.generation, p.ticker, p.quit)
}

// stopLocked ends the current generation. Ticks already in flight see the
// generation change and drop their result.
func (p *Poller) stopLocked() {
	p.generation++
	if p.ticker != nil {
		p.ticker.Stop()
		close(p.quit)
		p.ticker = nil
		p.quit = nil
	}
}

func (p *Poller) loop(generation uint64, ticker Ticker, quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-ticker.C():
			if !p.tick(generation) {
				return
			}
		}
	}
}

// tick runs one attempt and reports whether polling continues.
func (p *Poller) tick(generation uint64) bool {
	p.mtx.Lock()
	if generation != p.generation || p.state != Polling || p.creds == nil {
		p.mtx.Unlock()
		return false
	}
	p.attempts++
	creds := *p.creds
	p.mtx.Unlock()

	session, err := p.attempt(creds)

	p.mtx.Lock()
	defer p.mtx.Unlock()
	if generation != p.generation || p.state != Polling {
		return false
	}

	switch {
	case err == nil && session != nil:
		pollAttemptsTotal.WithLabelValues("verified").Inc()
		pollOutcomesTotal.WithLabelValues(Succeeded.String()).Inc()
		p.stopLocked()
		p.state = Succeeded
		p.session = session
		p.creds = nil
		p.notifyLocked()
		return false
	case err == nil:
		pollAttemptsTotal.WithLabelValues("pending").Inc()
	case identity.Classify(err) == portal.KindUnverified:
		pollAttemptsTotal.WithLabelValues("unverified").Inc()
	default:
		pollAttemptsTotal.WithLabelValues("error").Inc()
		p.log.Warnf("verification check %d for %s failed: %v", p.attempts, creds.email, err)
	}

	if p.attempts >= p.cfg.MaxAttempts {
		pollOutcomesTotal.WithLabelValues(Exhausted.String()).Inc()
		p.stopLocked()
		p.state = Exhausted
		p.notifyLocked()
		return false
	}
	p.notifyLocked()
	return true
}

type panicError struct {
	v interface{}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.v)
}

// attempt runs the probe, turning a panic into an error so a bad tick never
// takes the process down.
func (p *Poller) attempt(creds credentials) (session *identity.Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{r}
		}
	}()
	ctx := context.Background()
	if p.cfg.Interval > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*p.cfg.Interval)
		defer cancel()
	}
	return p.probe(ctx, creds.email, creds.password)
}
