package leads

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/http/client"
	"github.com/weaveworks/common/instrument"

	"github.com/objexa/service/common"
)

var restRequestCollector = instrument.NewHistogramCollectorFromOpts(prometheus.HistogramOpts{
	Namespace: common.PrometheusNamespace,
	Subsystem: "leads_rest_client",
	Name:      "request_duration_seconds",
	Help:      "Response time of hosted lead store requests.",
	Buckets:   prometheus.DefBuckets,
})

func init() {
	restRequestCollector.Register()
}

// rest stores leads through the PostgREST API of the hosted backend. The API
// key travels as the user part of the URI. Requests go out as the anonymous
// role unless the context carries the signed-in user's token.
type rest struct {
	*common.JSONClient
	baseURL string
}

type restLead struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PracticeName string `json:"practice_name"`
}

func newREST(dataSourceName string) (*rest, error) {
	u, err := url.Parse(dataSourceName)
	if err != nil {
		return nil, err
	}
	if u.User == nil || u.User.Username() == "" {
		return nil, errors.New("lead store URI needs the API key as its user, e.g. https://<key>@project.example.co")
	}
	key := u.User.Username()
	u.User = nil

	requester := common.NewHeaderRequester(
		client.NewTimedClient(&http.Client{Timeout: 10 * time.Second}, restRequestCollector),
		http.Header{
			"Apikey":        {key},
			"Authorization": {"Bearer " + key},
			"Prefer":        {"return=representation"},
		})
	return &rest{
		JSONClient: common.NewJSONClient(requester),
		baseURL:    strings.TrimRight(u.String(), "/") + "/rest/v1/" + tableLeads,
	}, nil
}

func (r *rest) InsertLead(ctx context.Context, lead *Lead) error {
	var created []Lead
	err := r.Post(ctx, "insert_lead", r.baseURL, restLead{
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		PracticeName: lead.PracticeName,
	}, &created)
	if err != nil {
		return err
	}
	if len(created) > 0 {
		lead.ID = created[0].ID
		lead.CreatedAt = created[0].CreatedAt
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (r *rest) ListLeads(ctx context.Context, page int) ([]*Lead, error) {
	q := url.Values{
		"select": {strings.Join(leadColumns, ",")},
		"order":  {"created_at.desc"},
		"limit":  {fmt.Sprint(PageSize)},
		"offset": {fmt.Sprint(offset(page))},
	}
	leads := []*Lead{}
	if err := r.Get(ctx, "list_leads", r.baseURL+"?"+q.Encode(), &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *rest) Transaction(f func(DB) error) error {
	return f(r)
}

func (r *rest) Close(ctx context.Context) error {
	return nil
}
