/*
Package registry manages a collection of buckets keyed by string, all sharing
one bandwidth configuration. Buckets are created lazily on first access and
evicted after sitting idle, so a registry can front an unbounded key space
(client IDs, API keys, IP addresses) with bounded memory.

	r, err := registry.New(registry.Config{
		Limited:     []state.Bandwidth{state.Limited(100, time.Minute)},
		IdleTimeout: 10 * time.Minute,
	})
	defer r.Close()

	b, err := r.Get(clientID)
	if b.TryConsume(1) {
		// process request
	}
*/
package registry

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vnykmshr/gobucket/pkg/bucket"
	gberrors "github.com/vnykmshr/gobucket/pkg/common/errors"
	"github.com/vnykmshr/gobucket/pkg/common/validation"
	"github.com/vnykmshr/gobucket/pkg/metrics"
	"github.com/vnykmshr/gobucket/pkg/state"
)

// Config holds configuration options for creating a Registry.
type Config struct {
	// Limited is the ordered list of limited bandwidths applied to every key.
	Limited []state.Bandwidth

	// Guaranteed is the optional guaranteed bandwidth applied to every key.
	Guaranteed *state.Bandwidth

	// Clock provides the current time. If nil, state.SystemClock is used.
	Clock state.Clock

	// IdleTimeout is how long a bucket may go untouched before the janitor
	// evicts it. Defaults to 10 minutes.
	IdleTimeout time.Duration

	// SweepSchedule is the cron spec driving the janitor.
	// Defaults to "@every 1m".
	SweepSchedule string

	// Name labels this registry in logs and metrics.
	Name string

	// Logger records eviction and lifecycle events. If nil, logging is disabled.
	Logger *zap.Logger

	// Metrics configures Prometheus instrumentation for the registry.
	Metrics metrics.Config
}

// Registry is a keyed collection of buckets with idle eviction.
type Registry struct {
	mu      sync.Mutex
	config  Config
	entries map[string]*entry
	cron    *cron.Cron
	metrics *metrics.Registry
	logger  *zap.Logger
	closed  bool
}

type entry struct {
	bucket          bucket.Bucket
	lastAccessNanos int64
}

// New creates a Registry and starts its eviction janitor.
func New(config Config) (*Registry, error) {
	if config.Clock == nil {
		config.Clock = state.SystemClock{}
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 10 * time.Minute
	}
	if config.SweepSchedule == "" {
		config.SweepSchedule = "@every 1m"
	}
	if config.Name == "" {
		config.Name = "default"
	}

	// Validate the bandwidth set once, up front, rather than on first Get.
	if _, _, err := state.NewInitialState(config.Clock, config.Limited, config.Guaranteed); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var metricsRegistry *metrics.Registry
	if config.Metrics.Enabled {
		metricsRegistry = metrics.DefaultRegistry
		if config.Metrics.Registry != nil {
			metricsRegistry = metrics.NewRegistry(config.Metrics.Registry)
		}
	}

	r := &Registry{
		config:  config,
		entries: make(map[string]*entry),
		cron:    cron.New(),
		metrics: metricsRegistry,
		logger:  logger,
	}
	if _, err := r.cron.AddFunc(config.SweepSchedule, r.sweep); err != nil {
		return nil, gberrors.NewConfigurationError("registry", "sweepSchedule", config.SweepSchedule, err.Error()).
			WithHint(`use a cron spec such as "@every 1m"`)
	}
	r.cron.Start()

	r.logger.Info("bucket registry started",
		zap.String("registry", config.Name),
		zap.Duration("idle_timeout", config.IdleTimeout),
		zap.String("sweep_schedule", config.SweepSchedule),
	)
	return r, nil
}

// Get returns the bucket for key, creating it on first access.
func (r *Registry) Get(key string) (bucket.Bucket, error) {
	if err := validation.ValidateNotEmpty("registry", "key", key); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, gberrors.ErrClosed
	}

	e, ok := r.entries[key]
	if !ok {
		b, err := bucket.NewWithConfig(bucket.Config{
			Limited:    r.config.Limited,
			Guaranteed: r.config.Guaranteed,
			Clock:      r.config.Clock,
		})
		if err != nil {
			return nil, err
		}
		e = &entry{bucket: b}
		r.entries[key] = e
		if r.metrics != nil {
			r.metrics.RegistrySize.WithLabelValues(r.config.Name).Set(float64(len(r.entries)))
		}
	}
	e.lastAccessNanos = r.config.Clock.CurrentTimeNanos()
	return e.bucket, nil
}

// Len returns the number of live buckets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// sweep evicts buckets untouched for longer than IdleTimeout.
func (r *Registry) sweep() {
	cutoff := r.config.Clock.CurrentTimeNanos() - r.config.IdleTimeout.Nanoseconds()

	r.mu.Lock()
	evicted := 0
	for key, e := range r.entries {
		if e.lastAccessNanos < cutoff {
			delete(r.entries, key)
			evicted++
		}
	}
	remaining := len(r.entries)
	r.mu.Unlock()

	if evicted > 0 {
		r.logger.Info("evicted idle buckets",
			zap.String("registry", r.config.Name),
			zap.Int("evicted", evicted),
			zap.Int("remaining", remaining),
		)
	}
	if r.metrics != nil {
		r.metrics.RegistryEvicted.WithLabelValues(r.config.Name).Add(float64(evicted))
		r.metrics.RegistrySize.WithLabelValues(r.config.Name).Set(float64(remaining))
	}
}

// Close stops the janitor and rejects further Get calls. It is safe to call
// more than once.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.cron.Stop()
	r.logger.Info("bucket registry closed", zap.String("registry", r.config.Name))
}
