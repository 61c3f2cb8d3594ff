package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for gobucket components.
type Registry struct {
	BucketRequests  *prometheus.CounterVec
	BucketAllowed   *prometheus.CounterVec
	BucketDenied    *prometheus.CounterVec
	BucketWaitTime  *prometheus.HistogramVec
	BucketTokens    *prometheus.GaugeVec
	RegistrySize    *prometheus.GaugeVec
	RegistryEvicted *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by gobucket components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		BucketRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gobucket",
				Subsystem: "bucket",
				Name:      "requests_total",
				Help:      "Total number of token consumption requests",
			},
			[]string{"bucket_name"},
		),

		BucketAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gobucket",
				Subsystem: "bucket",
				Name:      "allowed_total",
				Help:      "Total number of allowed requests",
			},
			[]string{"bucket_name"},
		),

		BucketDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gobucket",
				Subsystem: "bucket",
				Name:      "denied_total",
				Help:      "Total number of denied requests",
			},
			[]string{"bucket_name"},
		),

		BucketWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gobucket",
				Subsystem: "bucket",
				Name:      "wait_duration_seconds",
				Help:      "Time spent blocked waiting for tokens",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"bucket_name"},
		),

		BucketTokens: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gobucket",
				Subsystem: "bucket",
				Name:      "tokens_available",
				Help:      "Number of tokens currently available",
			},
			[]string{"bucket_name"},
		),

		RegistrySize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gobucket",
				Subsystem: "registry",
				Name:      "buckets",
				Help:      "Number of live buckets in a keyed registry",
			},
			[]string{"registry_name"},
		),

		RegistryEvicted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gobucket",
				Subsystem: "registry",
				Name:      "evicted_total",
				Help:      "Total number of idle buckets evicted from a keyed registry",
			},
			[]string{"registry_name"},
		),
	}
}
