package prover

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "prover"

// Update results used as the "result" label of Updates.
const (
	ResultUpdate = "update"
	ResultNone   = "none"
	ResultError  = "error"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of BuildUpdate calls, by result.
	Updates metrics.Counter
	// Number of headers requested from the header source.
	HeaderFetches metrics.Counter
	// Length of the epoch-header ancestry of emitted updates.
	AncestryLength metrics.Histogram
}

// PrometheusMetrics returns Metrics registered with the default Prometheus registry.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		Updates: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "updates_total",
			Help:      "Number of consensus updates built, by result.",
		}, []string{"result"}),
		HeaderFetches: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "header_fetches_total",
			Help:      "Number of headers requested from the header source.",
		}, []string{}),
		AncestryLength: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "ancestry_length",
			Help:      "Number of epoch ancestry headers per update.",
			Buckets:   stdprometheus.LinearBuckets(0, 10, 21),
		}, []string{}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Updates:        discard.NewCounter(),
		HeaderFetches:  discard.NewCounter(),
		AncestryLength: discard.NewHistogram(),
	}
}
