package emailer

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jordan-wright/email"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/http/client"
	"github.com/weaveworks/common/instrument"

	"github.com/objexa/service/common"
)

const resendDefaultHost = "api.resend.com"

var resendRequestCollector = instrument.NewHistogramCollectorFromOpts(prometheus.HistogramOpts{
	Namespace: common.PrometheusNamespace,
	Subsystem: "resend_client",
	Name:      "request_duration_seconds",
	Help:      "Response time of Resend API requests.",
	Buckets:   prometheus.DefBuckets,
})

func init() {
	resendRequestCollector.Register()
}

type resendEmail struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html,omitempty"`
	Text    string            `json:"text,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type resendResponse struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

// Takes a uri of the form resend://apikey@api.resend.com
func resendEmailSender(u *url.URL) (Sender, error) {
	if u.User == nil || u.User.Username() == "" {
		return nil, errors.New("resend:// uri needs the API key as its user")
	}
	host := u.Host
	if host == "" {
		host = resendDefaultHost
	}
	endpoint := "https://" + host + "/emails"
	cl := common.NewJSONClient(common.NewHeaderRequester(
		client.NewTimedClient(http.DefaultClient, resendRequestCollector),
		http.Header{"Authorization": {"Bearer " + u.User.Username()}},
	))

	return func(ctx context.Context, e *email.Email) error {
		withRefID(e)
		body := resendEmail{
			From:    e.From,
			To:      e.To,
			Subject: e.Subject,
			HTML:    string(e.HTML),
			Text:    string(e.Text),
			Headers: map[string]string{},
		}
		for k := range e.Headers {
			body.Headers[k] = e.Headers.Get(k)
		}
		var resp resendResponse
		if err := cl.Post(ctx, "resend.send", endpoint, body, &resp); err != nil {
			if resp.Message != "" {
				return errors.Errorf("resend: %s: %s", resp.Name, resp.Message)
			}
			return errors.Wrap(err, "resend")
		}
		return nil
	}, nil
}
