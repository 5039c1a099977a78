package verify

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron"
	"github.com/weaveworks/common/logging"

	"github.com/objexa/service/common"
	"github.com/objexa/service/portal/identity"
)

var controllersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: common.PrometheusNamespace,
	Name:      "portal_controllers",
	Help:      "Page controllers currently held in memory.",
})

func init() {
	prometheus.MustRegister(controllersGauge)
}

// Registry keeps one Controller per visitor.
type Registry struct {
	cfg       Config
	clock     Clock
	api       identity.API
	returnURL string
	log       logging.Interface
	scheduler *cron.Cron

	mtx         sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry makes a registry whose pollers probe api and resend links
// landing on returnURL.
func NewRegistry(cfg Config, clock Clock, api identity.API, returnURL string, log logging.Interface) *Registry {
	return &Registry{
		cfg:         cfg,
		clock:       clock,
		api:         api,
		returnURL:   returnURL,
		log:         log,
		controllers: map[string]*Controller{},
	}
}

// Get returns the visitor's controller, creating it on first use.
func (r *Registry) Get(visitorID string) *Controller {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	c, ok := r.controllers[visitorID]
	if !ok {
		c = &Controller{
			VisitorID: visitorID,
			guards:    map[string]chan struct{}{},
		}
		probe := c.observedSession
		if r.cfg.Probe != ProbeSession && r.api != nil {
			probe = Relogin(r.api)
		}
		c.Poller = NewPoller(r.cfg, r.clock, probe, r.api, r.returnURL, r.log)
		r.controllers[visitorID] = c
		controllersGauge.Set(float64(len(r.controllers)))
	}
	c.touch(r.clock.Now())
	return c
}

// Lookup returns the visitor's controller if there is one.
func (r *Registry) Lookup(visitorID string) (*Controller, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	c, ok := r.controllers[visitorID]
	if ok {
		c.touch(r.clock.Now())
	}
	return c, ok
}

// Teardown drops the visitor's controller, stopping its poller.
func (r *Registry) Teardown(visitorID string) {
	r.mtx.Lock()
	c, ok := r.controllers[visitorID]
	delete(r.controllers, visitorID)
	controllersGauge.Set(float64(len(r.controllers)))
	r.mtx.Unlock()

	if ok {
		c.Teardown()
	}
}

// Sweep tears down controllers idle for longer than the idle timeout.
func (r *Registry) Sweep() {
	deadline := r.clock.Now().Add(-r.cfg.IdleTimeout)

	r.mtx.Lock()
	var idle []*Controller
	for id, c := range r.controllers {
		if c.idleSince().Before(deadline) {
			idle = append(idle, c)
			delete(r.controllers, id)
		}
	}
	controllersGauge.Set(float64(len(r.controllers)))
	r.mtx.Unlock()

	for _, c := range idle {
		c.Teardown()
	}
	if len(idle) > 0 {
		r.log.Debugf("swept %d idle page controllers", len(idle))
	}
}

// Len is the number of live controllers.
func (r *Registry) Len() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return len(r.controllers)
}

// Start schedules the idle sweep.
func (r *Registry) Start() error {
	r.scheduler = cron.New()
	if err := r.scheduler.AddFunc(r.cfg.SweepSchedule, r.Sweep); err != nil {
		return err
	}
	r.scheduler.Start()
	return nil
}

// Stop stops the sweep and tears down every controller.
func (r *Registry) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
	r.mtx.Lock()
	controllers := r.controllers
	r.controllers = map[string]*Controller{}
	controllersGauge.Set(0)
	r.mtx.Unlock()

	for _, c := range controllers {
		c.Teardown()
	}
}
