/*
Package gobucket provides a multi-bandwidth token-bucket rate limiter.

A bucket is configured from limited bandwidths (hard ceilings) and at most
one guaranteed bandwidth (a floor that guarantees minimum throughput even
when the ceilings are exhausted). Token counts refill smoothly and
continuously as a pure function of elapsed time, so bucket state can be
cloned, compared, and stored outside the process.

Packages:

  - pkg/state: the numeric state engine (bandwidths, slot array, refill,
    consume, availability, delay arithmetic)
  - pkg/bucket: the public limiter API (non-blocking and blocking
    consumption, optimistic compare-and-swap buckets, Prometheus wrappers)
  - pkg/store: versioned state repositories (in-memory, Redis)
  - pkg/registry: keyed bucket collections with idle eviction
  - pkg/metrics: Prometheus instrumentation

Example usage:

	import (
		"github.com/vnykmshr/gobucket/pkg/bucket"
		"github.com/vnykmshr/gobucket/pkg/state"
	)

	b, _ := bucket.New(
		[]state.Bandwidth{state.Limited(100, time.Second)}, // 100 tokens/sec
		nil,
	)

	if b.TryConsume(1) {
		// process request
	}
*/
package gobucket
