package bucket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vnykmshr/gobucket/internal/testutil"
	gberrors "github.com/vnykmshr/gobucket/pkg/common/errors"
	"github.com/vnykmshr/gobucket/pkg/state"
)

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		limited    []state.Bandwidth
		guaranteed *state.Bandwidth
	}{
		{"no bandwidths", nil, nil},
		{"negative capacity", []state.Bandwidth{state.Limited(-1, time.Second)}, nil},
		{"zero period", []state.Bandwidth{state.Limited(10, 0)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.limited, tt.guaranteed)
			testutil.AssertError(t, err)
			if !errors.Is(err, gberrors.ErrInvalidConfiguration) {
				t.Errorf("error %v should match ErrInvalidConfiguration", err)
			}
			if b != nil {
				t.Error("expected nil bucket on error")
			}
		})
	}
}

func TestTryConsume(t *testing.T) {
	clock := testutil.NewMockClock(0)
	b, err := NewWithConfig(Config{
		Limited: []state.Bandwidth{state.Limited(5, 500 * time.Millisecond)}, // 10 tokens/sec
		Clock:   clock,
	})
	testutil.AssertNoError(t, err)

	// full burst is available immediately
	for i := 0; i < 5; i++ {
		if !b.TryConsume(1) {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
	testutil.AssertEqual(t, b.TryConsume(1), false)

	// 100ms at 10 tokens/sec refills one token
	clock.Advance(100 * time.Millisecond)
	testutil.AssertEqual(t, b.TryConsume(1), true)
	testutil.AssertEqual(t, b.TryConsume(1), false)
}

func TestTryConsumeZeroAndNegative(t *testing.T) {
	b, err := New([]state.Bandwidth{state.Limited(1, time.Hour)}, nil)
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, b.TryConsume(0), true)
	testutil.AssertEqual(t, b.TryConsume(-3), true)
	testutil.AssertEqual(t, b.AvailableTokens(), int64(1))
}

func TestTryConsumeAndReturnRemaining(t *testing.T) {
	clock := testutil.NewMockClock(0)
	b, err := NewWithConfig(Config{
		Limited: []state.Bandwidth{state.Limited(10, time.Second)},
		Clock:   clock,
	})
	testutil.AssertNoError(t, err)

	result := b.TryConsumeAndReturnRemaining(7)
	testutil.AssertEqual(t, result.Consumed, true)
	testutil.AssertEqual(t, result.Remaining, int64(3))
	testutil.AssertEqual(t, result.WaitNanos, int64(0))

	// rejected: 2 tokens short at 10 tokens/sec is a 200ms wait
	result = b.TryConsumeAndReturnRemaining(5)
	testutil.AssertEqual(t, result.Consumed, false)
	testutil.AssertEqual(t, result.Remaining, int64(3))
	testutil.AssertEqual(t, result.WaitNanos, int64(200_000_000))
	testutil.AssertEqual(t, result.Wait(), 200*time.Millisecond)
}

func TestTryConsumeAsMuchAsPossible(t *testing.T) {
	clock := testutil.NewMockClock(0)
	b, err := NewWithConfig(Config{
		Limited: []state.Bandwidth{state.Limited(10, time.Second)},
		Clock:   clock,
	})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, b.TryConsumeAsMuchAsPossible(4), int64(4))
	testutil.AssertEqual(t, b.TryConsumeAsMuchAsPossible(100), int64(6))
	testutil.AssertEqual(t, b.TryConsumeAsMuchAsPossible(100), int64(0))
	testutil.AssertEqual(t, b.TryConsumeAsMuchAsPossible(0), int64(0))
}

func TestGuaranteedFloorThroughBucket(t *testing.T) {
	clock := testutil.NewMockClock(0)
	guaranteed := state.Guaranteed(2, time.Second)
	b, err := NewWithConfig(Config{
		Limited:    []state.Bandwidth{state.LimitedWithInitialTokens(100, 0, time.Hour)},
		Guaranteed: &guaranteed,
		Clock:      clock,
	})
	testutil.AssertNoError(t, err)

	// the exhausted ceiling would forbid this; the guarantee admits it
	testutil.AssertEqual(t, b.TryConsume(2), true)
	testutil.AssertEqual(t, b.TryConsume(1), false)
}

func TestConsumeBlocksUntilRefilled(t *testing.T) {
	b, err := New([]state.Bandwidth{state.Limited(1, 20 * time.Millisecond)}, nil)
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	testutil.AssertNoError(t, b.Consume(ctx, 1))

	start := time.Now()
	testutil.AssertNoError(t, b.Consume(ctx, 1))
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("second consume returned after %v, expected to wait for refill", elapsed)
	}
}

func TestConsumeHonorsContextCancellation(t *testing.T) {
	b, err := New([]state.Bandwidth{state.LimitedWithInitialTokens(10, 0, time.Hour)}, nil)
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = b.Consume(ctx, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want context.DeadlineExceeded", err)
	}
}

func TestConsumeRejectsImpossibleRequest(t *testing.T) {
	b, err := New([]state.Bandwidth{state.Limited(10, time.Second)}, nil)
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	err = b.Consume(ctx, 11)
	if !errors.Is(err, gberrors.ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	clock := testutil.NewMockClock(0)
	b, err := NewWithConfig(Config{
		Limited: []state.Bandwidth{state.Limited(10, time.Second)},
		Clock:   clock,
	})
	testutil.AssertNoError(t, err)

	snap := b.Snapshot()
	snap.Consume(10)

	testutil.AssertEqual(t, b.AvailableTokens(), int64(10))
}
