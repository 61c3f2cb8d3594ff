// Package metrics provides Prometheus instrumentation for gobucket components.
//
// # Quick Start
//
// Enable metrics by wrapping a bucket with the metrics-enabled constructors:
//
//	b, err := bucket.NewWithMetrics(limited, nil, "api_requests")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	reg := prometheus.NewRegistry()
//	b, err := bucket.NewWithConfigAndMetrics(cfg, "custom_bucket", metrics.Config{
//		Enabled:  true,
//		Registry: reg,
//	})
//
// # Available Metrics
//
//   - gobucket_bucket_requests_total: Total number of consumption attempts
//   - gobucket_bucket_allowed_total: Total number of allowed attempts
//   - gobucket_bucket_denied_total: Total number of denied attempts
//   - gobucket_bucket_wait_duration_seconds: Time spent blocked in Consume
//   - gobucket_bucket_tokens_available: Tokens currently available in the bucket
//   - gobucket_registry_buckets: Number of live buckets in a keyed registry
//   - gobucket_registry_evicted_total: Total number of buckets evicted by the sweeper
//
// Bucket metrics carry a bucket_name label; registry metrics carry a
// registry_name label.
//
// # Performance
//
// Metrics are updated only when operations occur. There are no background
// goroutines or timers, and disabled metrics add no overhead beyond a nil
// check.
package metrics
