package marketing

import (
	"errors"
	"io/ioutil"
	"strings"

	pkgErrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/analytics-go"
	"github.com/weaveworks/common/logging"

	"github.com/objexa/service/common"
)

var segmentMessagesTotalCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: common.PrometheusNamespace,
		Subsystem: "segment_client",
		Name:      "messages_total",
		Help:      "Number of messages processed",
	},
	[]string{"status"},
)

func init() {
	prometheus.MustRegister(segmentMessagesTotalCounter)
}

// NewSegmentClient returns an instrumented segment client
func NewSegmentClient(writeKeyFilename string, logger logging.Interface) (analytics.Client, error) {
	var client analytics.Client
	if writeKeyFilename == "" {
		client = &noopSegmentClient{
			Callback: &promCallback{},
			Logger:   logger,
		}
	} else {
		keyBytes, err := ioutil.ReadFile(writeKeyFilename)
		if err != nil {
			return nil, pkgErrors.Wrap(err, "Failed to read segment write key")
		}

		client, err = analytics.NewWithConfig(
			strings.TrimSpace(string(keyBytes)),
			analytics.Config{
				Callback: &promCallback{},
				Logger:   &segmentLogAdapter{logger},
			},
		)
		if err != nil {
			return nil, err
		}
	}

	return &promSegmentClient{client}, nil
}

// SegmentTracker turns portal events into segment identify/track calls.
type SegmentTracker struct {
	client analytics.Client
}

// NewSegmentTracker wraps client.
func NewSegmentTracker(client analytics.Client) *SegmentTracker {
	return &SegmentTracker{client: client}
}

// TrackLogin records a login.
func (s *SegmentTracker) TrackLogin(email string) error {
	return s.client.Enqueue(analytics.Track{
		UserId: email,
		Event:  "Logged In",
	})
}

// TrackSignup identifies the new user and records the signup.
func (s *SegmentTracker) TrackSignup(p Prospect) error {
	if err := s.client.Enqueue(analytics.Identify{
		UserId: p.Email,
		Traits: traits(p),
	}); err != nil {
		return err
	}
	return s.client.Enqueue(analytics.Track{
		UserId:     p.Email,
		Event:      "Signed Up",
		Properties: analytics.NewProperties().Set("source", p.SignupSource),
	})
}

// TrackDemoBooked identifies the booker and records the booking.
func (s *SegmentTracker) TrackDemoBooked(p Prospect) error {
	if err := s.client.Enqueue(analytics.Identify{
		UserId: p.Email,
		Traits: traits(p),
	}); err != nil {
		return err
	}
	return s.client.Enqueue(analytics.Track{
		UserId:     p.Email,
		Event:      "Demo Booked",
		Properties: analytics.NewProperties().Set("practice_name", p.PracticeName),
	})
}

// Close flushes pending messages.
func (s *SegmentTracker) Close() error {
	return s.client.Close()
}

func traits(p Prospect) analytics.Traits {
	t := analytics.NewTraits().
		SetEmail(p.Email)
	if p.Name != "" {
		t = t.SetName(p.Name)
	}
	if p.Phone != "" {
		t = t.SetPhone(p.Phone)
	}
	if !p.CreatedAt.IsZero() {
		t = t.SetCreatedAt(p.CreatedAt)
	}
	if p.PracticeName != "" {
		t = t.Set("practice_name", p.PracticeName)
	}
	if p.PracticeType != "" {
		t = t.Set("practice_type", p.PracticeType)
	}
	return t
}

// promCallback increments a success or failure metric for each message processed
type promCallback struct {
}

var _ analytics.Callback = &promCallback{}

func (cb *promCallback) Success(analytics.Message) {
	segmentMessagesTotalCounter.WithLabelValues("success").Inc()
}

func (cb *promCallback) Failure(analytics.Message, error) {
	segmentMessagesTotalCounter.WithLabelValues("failure").Inc()
}

// promSegmentClient increments a metric for each message enqueued
type promSegmentClient struct {
	client analytics.Client
}

var _ analytics.Client = &promSegmentClient{}

func (c *promSegmentClient) Enqueue(msg analytics.Message) error {
	err := c.client.Enqueue(msg)
	if err == nil {
		segmentMessagesTotalCounter.WithLabelValues("enqueued").Inc()
	} else {
		segmentMessagesTotalCounter.WithLabelValues("enqueue_error").Inc()
	}
	return err
}

func (c *promSegmentClient) Close() error {
	return c.client.Close()
}

// noopSegmentClient is a segment client which reports a failure for
// every message
type noopSegmentClient struct {
	Callback analytics.Callback
	Logger   logging.Interface
}

var _ analytics.Client = &noopSegmentClient{}

var errNotImplemented = errors.New("Not implemented")

func (c *noopSegmentClient) Enqueue(msg analytics.Message) error {
	c.Logger.WithField("message", msg).Debugf("Dummy segment client pretending to enqueue message")
	c.Callback.Failure(msg, errNotImplemented)
	return nil
}

func (c *noopSegmentClient) Close() error {
	return nil
}

// segmentLogAdapter provide a compatible interface to our logging interface
type segmentLogAdapter struct {
	logger logging.Interface
}

var _ analytics.Logger = &segmentLogAdapter{}

func (s *segmentLogAdapter) Logf(format string, args ...interface{}) {
	s.logger.Infof(format, args...)
}

func (s *segmentLogAdapter) Errorf(format string, args ...interface{}) {
	s.logger.Errorf(format, args...)
}
