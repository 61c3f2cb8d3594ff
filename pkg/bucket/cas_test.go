package bucket_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/gobucket/internal/testutil"
	"github.com/vnykmshr/gobucket/pkg/bucket"
	"github.com/vnykmshr/gobucket/pkg/state"
	"github.com/vnykmshr/gobucket/pkg/store"
)

func TestCASBucketSeedsRepository(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()
	clock := testutil.NewMockClock(0)

	b, err := bucket.NewCAS(ctx, repo, bucket.CASConfig{
		Limited: []state.Bandwidth{state.Limited(10, time.Second)},
		Clock:   clock,
	})
	require.NoError(t, err)

	snap, version, err := repo.State(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), version)

	available, err := b.AvailableTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), available)
}

func TestCASBucketSharesStateAcrossInstances(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()
	clock := testutil.NewMockClock(0)
	config := bucket.CASConfig{
		Limited: []state.Bandwidth{state.Limited(10, time.Second)},
		Clock:   clock,
	}

	first, err := bucket.NewCAS(ctx, repo, config)
	require.NoError(t, err)
	second, err := bucket.NewCAS(ctx, repo, config)
	require.NoError(t, err)

	consumed, err := first.TryConsume(ctx, 6)
	require.NoError(t, err)
	assert.True(t, consumed)

	// both instances see the same logical bucket
	available, err := second.AvailableTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), available)

	consumed, err = second.TryConsume(ctx, 5)
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestCASBucketTryConsumeAndReturnRemaining(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()
	clock := testutil.NewMockClock(0)

	b, err := bucket.NewCAS(ctx, repo, bucket.CASConfig{
		Limited: []state.Bandwidth{state.Limited(10, time.Second)},
		Clock:   clock,
	})
	require.NoError(t, err)

	result, err := b.TryConsumeAndReturnRemaining(ctx, 7)
	require.NoError(t, err)
	assert.True(t, result.Consumed)
	assert.Equal(t, int64(3), result.Remaining)

	result, err = b.TryConsumeAndReturnRemaining(ctx, 5)
	require.NoError(t, err)
	assert.False(t, result.Consumed)
	assert.Equal(t, int64(3), result.Remaining)
	assert.Equal(t, 200*time.Millisecond, result.Wait())
}

func TestCASBucketSurvivesRepositoryReset(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()
	clock := testutil.NewMockClock(0)

	b, err := bucket.NewCAS(ctx, repo, bucket.CASConfig{
		Limited: []state.Bandwidth{state.Limited(10, time.Second)},
		Clock:   clock,
	})
	require.NoError(t, err)

	consumed, err := b.TryConsume(ctx, 10)
	require.NoError(t, err)
	require.True(t, consumed)

	require.NoError(t, repo.Reset(ctx))

	// a reset repository reads as a fresh bucket
	available, err := b.AvailableTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), available)
}

func TestCASBucketConcurrentConsumersNeverOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping contention test in short mode")
	}

	ctx := context.Background()
	repo := store.NewMemoryRepository()
	clock := testutil.NewMockClock(0) // frozen clock: no refill during the test

	const capacity = 1000
	config := bucket.CASConfig{
		Limited:    []state.Bandwidth{state.Limited(capacity, 10 * time.Minute)},
		Clock:      clock,
		MaxRetries: 1 << 10,
	}

	b, err := bucket.NewCAS(ctx, repo, config)
	require.NoError(t, err)

	const goroutines = 50
	const perGoroutine = 40

	var wg sync.WaitGroup
	var allowed, denied, conflicts atomic.Int64
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				consumed, err := b.TryConsume(ctx, 1)
				switch {
				case err != nil:
					conflicts.Add(1)
				case consumed:
					allowed.Add(1)
				default:
					denied.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	total := allowed.Load() + denied.Load() + conflicts.Load()
	assert.Equal(t, int64(goroutines*perGoroutine), total)
	assert.LessOrEqual(t, allowed.Load(), int64(capacity))
	assert.Positive(t, allowed.Load())

	available, err := b.AvailableTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(capacity)-allowed.Load(), available)
}
