package bucket

import (
	"context"
	"time"

	"github.com/vnykmshr/gobucket/pkg/metrics"
	"github.com/vnykmshr/gobucket/pkg/state"
)

// MetricsBucket wraps a Bucket with Prometheus metrics collection.
type MetricsBucket struct {
	bucket   Bucket
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a local bucket reporting to the default Prometheus
// registerer, so its metrics show up on the standard promhttp handler.
func NewWithMetrics(limited []state.Bandwidth, guaranteed *state.Bandwidth, name string) (Bucket, error) {
	return NewWithConfigAndMetrics(
		Config{Limited: limited, Guaranteed: guaranteed},
		name,
		metrics.DefaultConfig(),
	)
}

// NewWithConfigAndMetrics creates a local bucket with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Bucket, error) {
	base, err := NewWithConfig(config)
	if err != nil {
		return nil, err
	}
	if !metricsConfig.Enabled {
		return base, nil
	}
	return WithMetrics(base, name, metricsConfig), nil
}

// WithMetrics wraps an existing bucket with metrics collection.
func WithMetrics(b Bucket, name string, metricsConfig metrics.Config) Bucket {
	if !metricsConfig.Enabled {
		return b
	}
	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}
	return &MetricsBucket{bucket: b, name: name, registry: registry}
}

func (mb *MetricsBucket) observe(tokens int64, allowed bool) {
	// zero and negative requests succeed without debiting anything, and
	// prometheus counters reject negative increments
	if tokens < 0 {
		tokens = 0
	}
	mb.registry.BucketRequests.WithLabelValues(mb.name).Add(float64(tokens))
	if allowed {
		mb.registry.BucketAllowed.WithLabelValues(mb.name).Add(float64(tokens))
	} else {
		mb.registry.BucketDenied.WithLabelValues(mb.name).Add(float64(tokens))
	}
	mb.registry.BucketTokens.WithLabelValues(mb.name).Set(float64(mb.bucket.AvailableTokens()))
}

// TryConsume consumes tokens if they are all available now.
func (mb *MetricsBucket) TryConsume(tokens int64) bool {
	allowed := mb.bucket.TryConsume(tokens)
	mb.observe(tokens, allowed)
	return allowed
}

// TryConsumeAndReturnRemaining consumes tokens if available and reports the outcome.
func (mb *MetricsBucket) TryConsumeAndReturnRemaining(tokens int64) ConsumptionResult {
	result := mb.bucket.TryConsumeAndReturnRemaining(tokens)
	mb.observe(tokens, result.Consumed)
	return result
}

// TryConsumeAsMuchAsPossible consumes up to limit tokens and returns the number consumed.
func (mb *MetricsBucket) TryConsumeAsMuchAsPossible(limit int64) int64 {
	consumed := mb.bucket.TryConsumeAsMuchAsPossible(limit)
	mb.observe(consumed, consumed > 0)
	return consumed
}

// Consume blocks until tokens are consumed or ctx is done.
func (mb *MetricsBucket) Consume(ctx context.Context, tokens int64) error {
	start := time.Now()
	err := mb.bucket.Consume(ctx, tokens)
	mb.registry.BucketWaitTime.WithLabelValues(mb.name).Observe(time.Since(start).Seconds())
	mb.observe(tokens, err == nil)
	return err
}

// AvailableTokens returns the number of tokens currently consumable.
func (mb *MetricsBucket) AvailableTokens() int64 {
	available := mb.bucket.AvailableTokens()
	mb.registry.BucketTokens.WithLabelValues(mb.name).Set(float64(available))
	return available
}

// Snapshot returns an independent copy of the current bucket state.
func (mb *MetricsBucket) Snapshot() *state.BucketState {
	return mb.bucket.Snapshot()
}
