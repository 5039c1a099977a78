package marketing

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/objexa/service/common"
)

const (
	pushPeriod = 1 * time.Minute
	batchSize  = 20
)

// Signup sources.
const (
	SignupSourceEmail  = "email"
	SignupSourceGoogle = "google"
	SignupSourceDemo   = "demo"
)

var (
	prospectsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.PrometheusNamespace,
			Name:      "marketing_prospects_sent",
			Help:      "Marketing prospects sent.",
		},
		[]string{"service", "status"},
	)
)

func init() {
	prometheus.MustRegister(prospectsSent)
}

// Queue for sending updates to marketing.
type Queue struct {
	sync.Mutex
	cond   *sync.Cond
	quit   chan struct{}
	done   chan struct{}
	client client

	// We don't send every 'hit', we
	// batch them up and dedupe them.
	hits map[string]time.Time

	// We also don't send prospect updates
	// synchronously - we queue them.
	prospects []Prospect
}

type client interface {
	name() string
	batchUpsertProspect(prospects []Prospect) error
}

// NewQueue makes a new marketing queue.
func NewQueue(client client) *Queue {
	queue := &Queue{
		client: client,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		hits:   map[string]time.Time{},
	}
	queue.cond = sync.NewCond(&queue.Mutex)
	go queue.loop()
	go queue.periodicWakeUp()
	return queue
}

// Stop the queue, pushing whatever is still queued.
func (c *Queue) Stop() {
	close(c.quit)
	c.cond.Broadcast()
	<-c.done
}

func (c *Queue) periodicWakeUp() {
	// Every period we wake up the condition
	// and have it push what ever hits we've
	// batched up.
	ticker := time.NewTicker(pushPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cond.Broadcast()
		case <-c.quit:
			return
		}
	}
}

func (c *Queue) loop() {
	defer close(c.done)
	for {
		stopping := c.waitForStuffToDo()
		c.push()
		if stopping {
			return
		}
	}
}

func (c *Queue) stopping() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

func (c *Queue) waitForStuffToDo() bool {
	c.Lock()
	defer c.Unlock()
	for len(c.hits)+len(c.prospects) == 0 {
		if c.stopping() {
			return true
		}
		c.cond.Wait()
	}
	return c.stopping()
}

func (c *Queue) push() {
	accesses, creations := c.swap()
	if len(accesses)+len(creations) == 0 {
		return
	}

	prospectsByEmail := map[string]Prospect{}
	for _, prospect := range creations {
		prospectsByEmail[prospect.Email] = prospectsByEmail[prospect.Email].Merge(prospect)
	}
	for email, timestamp := range accesses {
		prospectsByEmail[email] = prospectsByEmail[email].Merge(Prospect{
			Email:      email,
			LastAccess: timestamp,
		})
	}

	prospects := []Prospect{}
	for _, prospect := range prospectsByEmail {
		prospects = append(prospects, prospect)
	}

	name := c.client.name()
	log.Debugf("Pushing %d prospect updates to %s", len(prospects), name)
	for i := 0; i < len(prospects); {
		end := i + batchSize
		if end > len(prospects) {
			end = len(prospects)
		}
		err := c.client.batchUpsertProspect(prospects[i:end])
		if err != nil {
			prospectsSent.WithLabelValues(name, "failed").Add(float64(end - i))
			log.Errorf("Error pushing prospects: %v", err)
		} else {
			prospectsSent.WithLabelValues(name, "success").Add(float64(end - i))
		}
		i = end
	}
}

func (c *Queue) swap() (map[string]time.Time, []Prospect) {
	c.Lock()
	defer func() {
		c.hits = map[string]time.Time{}
		c.prospects = []Prospect{}
		c.Unlock()
	}()
	return c.hits, c.prospects
}

// UserAccess should be called every time a user signs in. These 'hits' will
// be batched up and only the latest sent periodically, so its okay to call
// this function very often.
func (c *Queue) UserAccess(email string, hitAt time.Time) {
	if c == nil {
		return
	}
	c.Lock()
	defer c.Unlock()
	c.hits[email] = hitAt
	// No broadcast here, we only do this periodically.
}

// UserCreated should be called when new users register. This will trigger
// an immediate upload, although that upload will still happen in the
// background.
func (c *Queue) UserCreated(p Prospect, params map[string]string) {
	if c == nil {
		return
	}
	p.CampaignID = either(p.CampaignID, params["CampaignID"])
	p.LeadSource = either(p.LeadSource, params["LeadSource"])
	c.enqueue(p)
}

// DemoRequested should be called when a demo is booked.
func (c *Queue) DemoRequested(p Prospect) {
	if c == nil {
		return
	}
	if p.SignupSource == "" {
		p.SignupSource = SignupSourceDemo
	}
	c.enqueue(p)
}

func (c *Queue) enqueue(p Prospect) {
	c.Lock()
	defer c.Unlock()
	c.prospects = append(c.prospects, p)
	c.cond.Broadcast()
}

// Queues is a list of Queue; it handles the fanout.
type Queues []*Queue

// UserAccess calls UserAccess on each Queue.
func (qs Queues) UserAccess(email string, hitAt time.Time) {
	for _, q := range qs {
		q.UserAccess(email, hitAt)
	}
}

// UserCreated calls UserCreated on each Queue.
func (qs Queues) UserCreated(p Prospect, params map[string]string) {
	for _, q := range qs {
		q.UserCreated(p, params)
	}
}

// DemoRequested calls DemoRequested on each Queue.
func (qs Queues) DemoRequested(p Prospect) {
	for _, q := range qs {
		q.DemoRequested(p)
	}
}

// Stop stops each Queue.
func (qs Queues) Stop() {
	for _, q := range qs {
		q.Stop()
	}
}
