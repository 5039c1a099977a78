package booking

import (
	"encoding/json"

	nats "github.com/nats-io/go-nats"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/objexa/service/common"
	"github.com/objexa/service/portal/leads"
)

// LeadCreatedSubject is where new leads are announced.
const LeadCreatedSubject = "leads.created"

var (
	publicationsNATS = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: common.PrometheusNamespace,
		Name:      "lead_publications_nats_total",
		Help:      "Total number of lead publications to NATS."})

	publicationsNATSErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: common.PrometheusNamespace,
		Name:      "lead_publication_nats_errors_total",
		Help:      "Total number of errors publishing leads to NATS."})
)

func init() {
	prometheus.MustRegister(publicationsNATS, publicationsNATSErrors)
}

// Publisher announces new leads.
type Publisher interface {
	Publish(lead *leads.Lead) error
}

// natsConn is the part of *nats.Conn we use.
type natsConn interface {
	Publish(subj string, data []byte) error
	Flush() error
	LastError() error
}

var _ natsConn = &nats.Conn{}

// NATSPublisher publishes leads on a NATS connection.
type NATSPublisher struct {
	NATS natsConn
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url string) (*NATSPublisher, *nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("objexa-portal"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting to NATS")
	}
	return &NATSPublisher{NATS: conn}, conn, nil
}

// Publish sends lead to LeadCreatedSubject.
func (p *NATSPublisher) Publish(lead *leads.Lead) error {
	payload, err := json.Marshal(lead)
	if err != nil {
		return errors.Wrap(err, "cannot marshal lead for NATS publish")
	}

	if err := p.NATS.Publish(LeadCreatedSubject, payload); err != nil {
		publicationsNATSErrors.Inc()
		return errors.Wrap(err, "cannot publish to NATS")
	}

	if err := p.NATS.Flush(); err != nil {
		publicationsNATSErrors.Inc()
		return errors.Wrap(err, "cannot flush NATS")
	}
	if err := p.NATS.LastError(); err != nil {
		publicationsNATSErrors.Inc()
		return errors.Wrapf(err, "cannot publish lead %s to NATS", lead.ID)
	}

	publicationsNATS.Inc()
	return nil
}
