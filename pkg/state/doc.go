/*
Package state implements the numeric core of a multi-bandwidth token bucket:
the mutable slot record tracking available tokens for every bandwidth attached
to a bucket, plus the arithmetic to initialize, refill, consume, and query
that record over continuous time.

A bucket is configured from an ordered list of limited bandwidths (hard
ceilings) and at most one guaranteed bandwidth (a floor that overrides the
ceilings):

	cfg, st, err := state.NewInitialState(
		state.SystemClock{},
		[]state.Bandwidth{state.Limited(100, time.Second)},
		nil,
	)
	if err != nil {
		// descriptor set was internally inconsistent
	}

	now := cfg.Clock().CurrentTimeNanos()
	st.Refill(cfg.Bandwidths(), now)
	if st.AvailableTokens(cfg.Bandwidths()) >= 10 {
		st.Consume(10)
	}

Every operation is a bounded synchronous computation over a fixed-size array;
nothing here blocks, allocates per call, or synchronizes. Waiting is expressed
as a nanosecond delay returned by DelayNanosUntilAvailable for the caller to
act on. Concurrency control around a shared BucketState belongs entirely to
the caller: hold a lock, or Clone the state and swap it in with a
compare-and-swap retry loop (see the store package).

Token counts are tracked as fractional values internally and reported as
truncated integers, so capacity refills smoothly rather than in whole-token
ticks.
*/
package state
