package common

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/instrument"
)

const (
	// PrometheusNamespace for all metrics in 'service'
	PrometheusNamespace = "objexa"
)

var (
	// DatabaseRequestDuration is our standard database histogram vector.
	DatabaseRequestDuration = instrument.NewHistogramCollector(prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: PrometheusNamespace,
		Name:      "database_request_duration_seconds",
		Help:      "Time spent (in seconds) doing database requests.",
		Buckets:   instrument.DefBuckets,
	}, instrument.HistogramCollectorBuckets))
)

func init() {
	DatabaseRequestDuration.Register()
}
