package bucket

import (
	"context"
	"time"

	"github.com/vnykmshr/gobucket/pkg/state"
)

// Bucket controls how many tokens may be consumed from a multi-bandwidth
// token bucket. All implementations are safe for concurrent use.
type Bucket interface {
	// TryConsume consumes tokens if they are all available now.
	// It does not block. Requests for zero or negative tokens succeed.
	TryConsume(tokens int64) bool

	// TryConsumeAndReturnRemaining consumes tokens if available and reports
	// the tokens left afterwards; on rejection it reports the current
	// availability and how long to wait before the request would succeed.
	TryConsumeAndReturnRemaining(tokens int64) ConsumptionResult

	// TryConsumeAsMuchAsPossible consumes up to limit tokens, as many as are
	// available now, and returns the number consumed.
	TryConsumeAsMuchAsPossible(limit int64) int64

	// Consume blocks until tokens are consumed or ctx is done. It returns
	// ErrRateLimited immediately when the request exceeds what the bucket
	// can ever hold.
	Consume(ctx context.Context, tokens int64) error

	// AvailableTokens returns the number of tokens currently consumable.
	AvailableTokens() int64

	// Snapshot returns an independent copy of the current bucket state.
	Snapshot() *state.BucketState
}

// ConsumptionResult reports the outcome of TryConsumeAndReturnRemaining.
type ConsumptionResult struct {
	// Consumed is true when the requested tokens were debited.
	Consumed bool

	// Remaining is the number of tokens left after the call.
	Remaining int64

	// WaitNanos is how long the caller should wait before retrying a
	// rejected request. Zero when Consumed is true.
	WaitNanos int64
}

// Wait returns WaitNanos as a time.Duration.
func (r ConsumptionResult) Wait() time.Duration {
	return time.Duration(r.WaitNanos)
}

// Config holds configuration options for creating a new Bucket.
type Config struct {
	// Limited is the ordered list of limited bandwidths.
	Limited []state.Bandwidth

	// Guaranteed is the optional guaranteed bandwidth.
	Guaranteed *state.Bandwidth

	// Clock provides the current time. If nil, state.SystemClock is used.
	Clock state.Clock
}

// New creates a mutex-owned local bucket from the given bandwidths.
// It fails with a ConfigurationError when the descriptor set is
// internally inconsistent.
func New(limited []state.Bandwidth, guaranteed *state.Bandwidth) (Bucket, error) {
	return NewWithConfig(Config{Limited: limited, Guaranteed: guaranteed})
}

// NewWithConfig creates a mutex-owned local bucket from a Config.
func NewWithConfig(config Config) (Bucket, error) {
	if config.Clock == nil {
		config.Clock = state.SystemClock{}
	}
	cfg, initial, err := state.NewInitialState(config.Clock, config.Limited, config.Guaranteed)
	if err != nil {
		return nil, err
	}
	return &localBucket{cfg: cfg, state: initial}, nil
}
