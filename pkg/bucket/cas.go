package bucket

import (
	"context"
	"fmt"
	"time"

	gberrors "github.com/vnykmshr/gobucket/pkg/common/errors"
	"github.com/vnykmshr/gobucket/pkg/state"
	"github.com/vnykmshr/gobucket/pkg/store"
)

// DefaultCASRetries bounds the optimistic retry loop of a CASBucket.
const DefaultCASRetries = 16

// CASBucket is a bucket whose state lives in a store.Repository. Every
// operation snapshots the state, mutates the snapshot through the state
// engine, and swaps it back in with compare-and-swap, retrying on conflict.
// Methods take a context because the repository may sit behind a network.
type CASBucket struct {
	cfg        *state.Configuration
	seed       *state.BucketState
	repo       store.Repository
	maxRetries int
}

// CASConfig holds configuration options for creating a CASBucket.
type CASConfig struct {
	// Limited is the ordered list of limited bandwidths.
	Limited []state.Bandwidth

	// Guaranteed is the optional guaranteed bandwidth.
	Guaranteed *state.Bandwidth

	// Clock provides the current time. If nil, state.SystemClock is used.
	Clock state.Clock

	// MaxRetries bounds the CAS retry loop. If zero, DefaultCASRetries is used.
	MaxRetries int
}

// NewCAS creates a bucket over the given repository, seeding it with the
// initial state when it is empty. Every process sharing the repository must
// use the same bandwidth configuration; the state slots carry no bandwidth
// identity of their own.
func NewCAS(ctx context.Context, repo store.Repository, config CASConfig) (*CASBucket, error) {
	if repo == nil {
		return nil, gberrors.NewConfigurationError("bucket", "repository", nil, "cannot be nil")
	}
	if config.Clock == nil {
		config.Clock = state.SystemClock{}
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultCASRetries
	}

	cfg, initial, err := state.NewInitialState(config.Clock, config.Limited, config.Guaranteed)
	if err != nil {
		return nil, err
	}

	b := &CASBucket{
		cfg:        cfg,
		seed:       initial,
		repo:       repo,
		maxRetries: config.MaxRetries,
	}

	snap, version, err := repo.State(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		// Losing the seed race just means another process got there first.
		if _, err := repo.CompareAndSwap(ctx, version, initial); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// withState runs one snapshot/mutate/swap cycle, retrying on lost races.
// mutate returns false to skip the swap when the snapshot was not changed.
func (b *CASBucket) withState(ctx context.Context, mutate func(s *state.BucketState, nowNanos int64) bool) error {
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		snap, version, err := b.repo.State(ctx)
		if err != nil {
			return err
		}
		if snap == nil {
			// Repository was reset underneath us; start from the seed and
			// let the refill below advance it to the present.
			snap = b.seed.Clone()
		}

		now := b.cfg.Clock().CurrentTimeNanos()
		snap.Refill(b.cfg.Bandwidths(), now)
		if !mutate(snap, now) {
			return nil
		}

		swapped, err := b.repo.CompareAndSwap(ctx, version, snap)
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}
	}
	return fmt.Errorf("bucket state swap kept losing after %d attempts: %w", b.maxRetries, gberrors.ErrConflict)
}

// TryConsume consumes tokens if they are all available now.
func (b *CASBucket) TryConsume(ctx context.Context, tokens int64) (bool, error) {
	if tokens <= 0 {
		return true, nil
	}
	consumed := false
	err := b.withState(ctx, func(s *state.BucketState, _ int64) bool {
		if s.AvailableTokens(b.cfg.Bandwidths()) < tokens {
			consumed = false
			return false
		}
		s.Consume(tokens)
		consumed = true
		return true
	})
	if err != nil {
		return false, err
	}
	return consumed, nil
}

// TryConsumeAndReturnRemaining consumes tokens if available and reports the
// remaining tokens, or the wait before the request would succeed.
func (b *CASBucket) TryConsumeAndReturnRemaining(ctx context.Context, tokens int64) (ConsumptionResult, error) {
	var result ConsumptionResult
	err := b.withState(ctx, func(s *state.BucketState, now int64) bool {
		available := s.AvailableTokens(b.cfg.Bandwidths())
		if tokens <= 0 {
			result = ConsumptionResult{Consumed: true, Remaining: available}
			return false
		}
		if available < tokens {
			result = ConsumptionResult{
				Remaining: available,
				WaitNanos: s.DelayNanosUntilAvailable(b.cfg.Bandwidths(), now, tokens),
			}
			return false
		}
		s.Consume(tokens)
		result = ConsumptionResult{Consumed: true, Remaining: available - tokens}
		return true
	})
	if err != nil {
		return ConsumptionResult{}, err
	}
	return result, nil
}

// Consume blocks until tokens are consumed, ctx is done, or the request can
// never be satisfied.
func (b *CASBucket) Consume(ctx context.Context, tokens int64) error {
	if tokens <= 0 {
		return nil
	}
	if tokens > b.cfg.MaxConsumable() {
		return fmt.Errorf("cannot consume %d tokens, bucket never holds more than %d: %w",
			tokens, b.cfg.MaxConsumable(), gberrors.ErrRateLimited)
	}

	for {
		result, err := b.TryConsumeAndReturnRemaining(ctx, tokens)
		if err != nil {
			return err
		}
		if result.Consumed {
			return nil
		}

		timer := time.NewTimer(result.Wait())
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// AvailableTokens returns the number of tokens currently consumable.
func (b *CASBucket) AvailableTokens(ctx context.Context) (int64, error) {
	available := int64(0)
	err := b.withState(ctx, func(s *state.BucketState, _ int64) bool {
		available = s.AvailableTokens(b.cfg.Bandwidths())
		return false
	})
	if err != nil {
		return 0, err
	}
	return available, nil
}

// Snapshot returns an independent copy of the stored state, or the seed
// state when the repository is empty.
func (b *CASBucket) Snapshot(ctx context.Context) (*state.BucketState, error) {
	snap, _, err := b.repo.State(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return b.seed.Clone(), nil
	}
	return snap, nil
}
