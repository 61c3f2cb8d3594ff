/*
Package bucket provides the public token-bucket API on top of the state
engine in pkg/state.

A bucket tracks one or more bandwidths: limited bandwidths are hard ceilings,
and an optional guaranteed bandwidth is a floor that keeps a minimum
throughput available even when the ceilings are exhausted.

Basic usage:

	b, err := bucket.New(
		[]state.Bandwidth{state.Limited(100, time.Second)},
		nil,
	)
	if err != nil {
		// invalid bandwidth set
	}
	if b.TryConsume(1) {
		// process request
	}

Blocking consumption honors context cancellation:

	if err := b.Consume(ctx, 10); err != nil {
		// canceled, timed out, or the request can never be satisfied
	}

Two implementations are provided. New returns a mutex-owned local bucket.
NewCAS returns a bucket that keeps its state in a store.Repository and
mutates it through an optimistic compare-and-swap retry loop, which is the
shape to use when the state lives outside the process (see pkg/store).

Prometheus instrumentation is available through NewWithMetrics or by wrapping
any Bucket with WithMetrics.
*/
package bucket
