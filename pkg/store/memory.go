package store

import (
	"context"
	"sync"

	"github.com/vnykmshr/gobucket/pkg/state"
)

// MemoryRepository is an in-process Repository. It exists for single-node
// deployments and as the reference implementation of the CAS contract.
type MemoryRepository struct {
	mu      sync.Mutex
	version uint64
	state   *state.BucketState
}

// NewMemoryRepository creates an empty in-process repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// State returns a snapshot of the stored state and its version.
func (r *MemoryRepository) State(ctx context.Context) (*state.BucketState, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == nil {
		return nil, r.version, nil
	}
	return r.state.Clone(), r.version, nil
}

// CompareAndSwap stores a copy of next if the version still matches.
func (r *MemoryRepository) CompareAndSwap(ctx context.Context, version uint64, next *state.BucketState) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if version != r.version {
		return false, nil
	}
	r.state = next.Clone()
	r.version++
	return true, nil
}

// Reset discards the stored state. The version keeps increasing so stale
// snapshots taken before the reset cannot be swapped back in.
func (r *MemoryRepository) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = nil
	r.version++
	return nil
}
