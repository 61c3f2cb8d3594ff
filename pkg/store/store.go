/*
Package store provides versioned repositories for bucket state, the
snapshot/compare-and-swap boundary that optimistic-concurrency buckets
retry against.

A Repository never interprets the state it holds; all bucket math stays in
pkg/state. MemoryRepository keeps the state in process. RedisRepository
keeps it in Redis so several processes can share one logical bucket, each
running refill independently from the same configuration.
*/
package store

import (
	"context"

	"github.com/vnykmshr/gobucket/pkg/state"
)

// Repository stores one bucket's state under a monotonically increasing
// version. Snapshots are independent copies; mutating one never affects the
// stored state until it is swapped back in.
type Repository interface {
	// State returns a snapshot of the stored state and its version.
	// An empty repository returns a nil state; pass the returned version
	// to CompareAndSwap to seed it.
	State(ctx context.Context) (*state.BucketState, uint64, error)

	// CompareAndSwap stores next if the repository still holds version.
	// It reports false, without error, when the version moved on and the
	// caller should retry from a fresh snapshot.
	CompareAndSwap(ctx context.Context, version uint64, next *state.BucketState) (bool, error)

	// Reset discards the stored state.
	Reset(ctx context.Context) error
}
