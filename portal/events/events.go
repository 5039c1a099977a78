package events

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/objexa/service/common"
)

const (
	maxBufferedEvents = 1000
	tag               = "portal.events"
)

// Event names.
const (
	Login              = "login"
	Register           = "register"
	VerificationResult = "verification"
	DemoBooked         = "demo_booked"
	Logout             = "logout"
)

var eventsDiscardedCount = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: common.PrometheusNamespace,
	Name:      "portal_events_discarded_total",
	Help:      "Audit events discarded because the buffer was full.",
})

func init() {
	prometheus.MustRegister(eventsDiscardedCount)
}

// Event is a visitor action recorded for audit.
type Event struct {
	Name      string `msg:"event"`
	VisitorID string `msg:"visitor_id"`
	UserID    string `msg:"user_id"`
	Email     string `msg:"email"`
	IPAddress string `msg:"ip_address"`
	UserAgent string `msg:"user_agent"`
	Outcome   string `msg:"outcome"`
}

// Logger records events.
type Logger interface {
	LogEvent(ev Event) error
	Close() error
}

type timedEvent struct {
	event *Event
	time  time.Time
}

type poster interface {
	PostWithTime(tag string, tm time.Time, message interface{}) error
	Close() error
}

// EventLogger sends events to fluentd from a background goroutine.
type EventLogger struct {
	stop   chan struct{}
	done   chan struct{}
	events chan timedEvent
	logger poster
}

// NewEventLogger creates a new EventLogger.
func NewEventLogger(fluentHostPort string) (*EventLogger, error) {
	host, port, err := net.SplitHostPort(fluentHostPort)
	if err != nil {
		return nil, err
	}
	intPort, err := strconv.Atoi(port)
	if err != nil {
		return nil, err
	}
	logger, err := fluent.New(fluent.Config{
		FluentPort:   intPort,
		FluentHost:   host,
		AsyncConnect: true,
		MaxRetry:     -1,
	})
	if err != nil {
		return nil, err
	}
	return newEventLogger(logger), nil
}

func newEventLogger(p poster) *EventLogger {
	el := &EventLogger{
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		events: make(chan timedEvent, maxBufferedEvents),
		logger: p,
	}
	go el.logLoop()
	return el
}

func (el *EventLogger) post(e timedEvent) {
	if err := el.logger.PostWithTime(tag, e.time, e.event); err != nil {
		log.Warnf("EventLogger: failed to log event: %v", e.event)
	}
}

func (el *EventLogger) logLoop() {
	defer close(el.done)
	for done := false; !done; {
		select {
		case event := <-el.events:
			el.post(event)
		case <-el.stop:
			done = true
		}
	}

	// flush remaining events
	for done := false; !done; {
		select {
		case event := <-el.events:
			el.post(event)
		default:
			done = true
		}
	}

	el.logger.Close()
}

// Close stops the logger once buffered events are flushed.
func (el *EventLogger) Close() error {
	close(el.stop)
	<-el.done
	return nil
}

// LogEvent queues ev. It never blocks.
func (el *EventLogger) LogEvent(ev Event) error {
	select {
	case <-el.stop:
		return fmt.Errorf("Stopping, discarding event: %v", ev)
	default:
	}
	e := timedEvent{
		event: &ev,
		time:  time.Now(),
	}
	select {
	case el.events <- e:
		return nil
	default:
	}
	eventsDiscardedCount.Inc()
	return fmt.Errorf("Reached event buffer limit (%d), discarding event: %v", maxBufferedEvents, ev)
}

// Discard drops every event.
type Discard struct{}

// LogEvent implements Logger.
func (Discard) LogEvent(Event) error { return nil }

// Close implements Logger.
func (Discard) Close() error { return nil }
