package bucket

import (
	"context"
	"fmt"
	"sync"
	"time"

	gberrors "github.com/vnykmshr/gobucket/pkg/common/errors"
	"github.com/vnykmshr/gobucket/pkg/state"
)

// localBucket implements Bucket with a mutex owning the state, so at most
// one refill/consume sequence is in flight per state at a time.
type localBucket struct {
	mu    sync.Mutex
	cfg   *state.Configuration
	state *state.BucketState
}

func (b *localBucket) TryConsume(tokens int64) bool {
	if tokens <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.Refill(b.cfg.Bandwidths(), b.cfg.Clock().CurrentTimeNanos())
	if b.state.AvailableTokens(b.cfg.Bandwidths()) < tokens {
		return false
	}
	b.state.Consume(tokens)
	return true
}

func (b *localBucket) TryConsumeAndReturnRemaining(tokens int64) ConsumptionResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.Clock().CurrentTimeNanos()
	b.state.Refill(b.cfg.Bandwidths(), now)
	available := b.state.AvailableTokens(b.cfg.Bandwidths())

	if tokens <= 0 {
		return ConsumptionResult{Consumed: true, Remaining: available}
	}
	if available < tokens {
		return ConsumptionResult{
			Remaining: available,
			WaitNanos: b.state.DelayNanosUntilAvailable(b.cfg.Bandwidths(), now, tokens),
		}
	}

	b.state.Consume(tokens)
	return ConsumptionResult{Consumed: true, Remaining: available - tokens}
}

func (b *localBucket) TryConsumeAsMuchAsPossible(limit int64) int64 {
	if limit <= 0 {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.Refill(b.cfg.Bandwidths(), b.cfg.Clock().CurrentTimeNanos())
	available := b.state.AvailableTokens(b.cfg.Bandwidths())
	if available <= 0 {
		return 0
	}
	if available < limit {
		limit = available
	}
	b.state.Consume(limit)
	return limit
}

func (b *localBucket) Consume(ctx context.Context, tokens int64) error {
	if tokens <= 0 {
		return nil
	}
	if tokens > b.cfg.MaxConsumable() {
		return fmt.Errorf("cannot consume %d tokens, bucket never holds more than %d: %w",
			tokens, b.cfg.MaxConsumable(), gberrors.ErrRateLimited)
	}

	for {
		b.mu.Lock()
		now := b.cfg.Clock().CurrentTimeNanos()
		b.state.Refill(b.cfg.Bandwidths(), now)
		delay := b.state.DelayNanosUntilAvailable(b.cfg.Bandwidths(), now, tokens)
		if delay == 0 {
			b.state.Consume(tokens)
			b.mu.Unlock()
			return nil
		}
		b.mu.Unlock()

		timer := time.NewTimer(time.Duration(delay))
		select {
		case <-timer.C:
			// tokens may have been taken while we slept; recompute
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

func (b *localBucket) AvailableTokens() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.Refill(b.cfg.Bandwidths(), b.cfg.Clock().CurrentTimeNanos())
	return b.state.AvailableTokens(b.cfg.Bandwidths())
}

func (b *localBucket) Snapshot() *state.BucketState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}
