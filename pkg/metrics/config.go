package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registerer to create the metrics on.
	// If nil, the shared DefaultRegistry is used.
	Registry prometheus.Registerer
}

// DefaultConfig returns a configuration with metrics enabled on the shared
// DefaultRegistry.
func DefaultConfig() Config {
	return Config{Enabled: true}
}
