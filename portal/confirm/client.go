package confirm

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/http/client"
	"github.com/weaveworks/common/instrument"

	"github.com/objexa/service/common"
)

var (
	clientRequestCollector = instrument.NewHistogramCollectorFromOpts(prometheus.HistogramOpts{
		Namespace: common.PrometheusNamespace,
		Subsystem: "confirm_client",
		Name:      "request_duration_seconds",
		Help:      "Response time of confirmation email function requests.",
		Buckets:   prometheus.DefBuckets,
	})

	sentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PrometheusNamespace,
		Subsystem: "confirm_client",
		Name:      "emails_total",
		Help:      "Confirmation emails requested, by kind and outcome.",
	}, []string{"kind", "outcome"})
)

func init() {
	clientRequestCollector.Register()
	prometheus.MustRegister(sentTotal)
}

// Config for the confirmation email functions.
type Config struct {
	URL     string
	Key     string
	KeyFile string
	Timeout time.Duration
}

// RegisterFlags sets up config for the confirmation email functions.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.URL, "functions.url", "", "Base URL of the email functions, e.g. https://project.example.co/functions/v1. Empty disables confirmation emails.")
	f.StringVar(&cfg.Key, "functions.key", "", "Bearer key for the email functions")
	f.StringVar(&cfg.KeyFile, "functions.key-file", "", "File containing the bearer key for the email functions")
	f.DurationVar(&cfg.Timeout, "functions.timeout", 10*time.Second, "Timeout of each email function call")
}

// DemoConfirmation is the body of a demo confirmation request.
type DemoConfirmation struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PracticeName string `json:"practice_name"`
}

// ResetConfirmation is the body of a password reset confirmation request.
type ResetConfirmation struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender sends confirmation emails.
type Sender interface {
	DemoConfirmation(ctx context.Context, c DemoConfirmation) error
	PasswordResetConfirmation(ctx context.Context, c ResetConfirmation) error
}

// Client posts to the hosted email functions.
type Client struct {
	*common.JSONClient
	baseURL string
}

type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewClient returns a Client for cfg.
func NewClient(cfg Config) (*Client, error) {
	key := cfg.Key
	if cfg.KeyFile != "" {
		bs, err := ioutil.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading functions key")
		}
		key = strings.TrimSpace(string(bs))
	}
	requester := common.NewHeaderRequester(
		common.NewTracingRequester(client.NewTimedClient(common.NewTracedHTTPClient(cfg.Timeout), clientRequestCollector)),
		http.Header{"Authorization": {"Bearer " + key}})
	return &Client{
		JSONClient: common.NewJSONClient(requester),
		baseURL:    strings.TrimRight(cfg.URL, "/"),
	}, nil
}

// DemoConfirmation asks for the demo booking email.
func (c *Client) DemoConfirmation(ctx context.Context, body DemoConfirmation) error {
	return c.send(ctx, "send-demo-confirmation", body)
}

// PasswordResetConfirmation asks for the password changed email.
func (c *Client) PasswordResetConfirmation(ctx context.Context, body ResetConfirmation) error {
	return c.send(ctx, "send-password-reset-confirmation", body)
}

func (c *Client) send(ctx context.Context, function string, body interface{}) error {
	resp := response{}
	err := c.Post(ctx, function, fmt.Sprintf("%s/%s", c.baseURL, function), body, &resp)
	if resp.Error != "" {
		err = errors.New(resp.Error)
	} else if _, ok := err.(*json.SyntaxError); ok {
		// Some deployments answer with an empty or plain body.
		err = nil
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	sentTotal.WithLabelValues(function, outcome).Inc()
	return errors.Wrap(err, function)
}

// Noop is used when no email functions are configured.
type Noop struct{}

// DemoConfirmation does nothing.
func (Noop) DemoConfirmation(context.Context, DemoConfirmation) error { return nil }

// PasswordResetConfirmation does nothing.
func (Noop) PasswordResetConfirmation(context.Context, ResetConfirmation) error { return nil }
