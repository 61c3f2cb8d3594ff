package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	gberrors "github.com/vnykmshr/gobucket/pkg/common/errors"
	"github.com/vnykmshr/gobucket/pkg/common/validation"
	"github.com/vnykmshr/gobucket/pkg/state"
)

// RedisConfig holds configuration for a Redis-backed repository.
type RedisConfig struct {
	// Key is the Redis key the bucket state lives under.
	Key string

	// TTL is how long the key should live. Zero means no expiration.
	// Use a TTL well above the longest refill period so an idle bucket
	// reappears full rather than mid-refill.
	TTL time.Duration

	// Logger is used for lost-race and connectivity events. If nil, logging
	// is disabled.
	Logger *zap.Logger
}

// RedisRepository stores bucket state in Redis. The value is the version in
// the first 8 bytes followed by the encoded slot array; compare-and-swap is
// an optimistic WATCH/MULTI transaction on the key.
type RedisRepository struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRepository creates a repository on the given client.
func NewRedisRepository(client redis.UniversalClient, config RedisConfig) (*RedisRepository, error) {
	if client == nil {
		return nil, gberrors.NewConfigurationError("store", "client", nil, "cannot be nil")
	}
	if err := validation.ValidateNotEmpty("store", "key", config.Key); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRepository{
		client: client,
		key:    config.Key,
		ttl:    config.TTL,
		logger: logger,
	}, nil
}

// Ping verifies connectivity to Redis.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// State returns a snapshot of the stored state and its version.
func (r *RedisRepository) State(ctx context.Context) (*state.BucketState, uint64, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("redis get %q: %w", r.key, err)
	}
	return decodeVersioned(raw)
}

// CompareAndSwap stores next under version+1 if the key still holds version.
// A transaction aborted by a concurrent writer reports false without error.
func (r *RedisRepository) CompareAndSwap(ctx context.Context, version uint64, next *state.BucketState) (bool, error) {
	payload, err := next.MarshalBinary()
	if err != nil {
		return false, err
	}
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(buf, version+1)
	copy(buf[8:], payload)

	swapped := false
	txn := func(tx *redis.Tx) error {
		current := uint64(0)
		raw, err := tx.Get(ctx, r.key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if len(raw) < 8 {
				return fmt.Errorf("corrupt bucket state under %q", r.key)
			}
			current = binary.BigEndian.Uint64(raw[:8])
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, buf, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		swapped = true
		return nil
	}

	err = r.client.Watch(ctx, txn, r.key)
	if errors.Is(err, redis.TxFailedErr) {
		r.logger.Debug("bucket state swap lost a race", zap.String("key", r.key))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis cas %q: %w", r.key, err)
	}
	return swapped, nil
}

// Reset deletes the stored state. Unlike MemoryRepository the version
// restarts from zero afterwards, as if the key had never existed.
func (r *RedisRepository) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", r.key, err)
	}
	return nil
}

func decodeVersioned(raw []byte) (*state.BucketState, uint64, error) {
	if len(raw) < 8 {
		return nil, 0, fmt.Errorf("corrupt bucket state: %d bytes", len(raw))
	}
	version := binary.BigEndian.Uint64(raw[:8])
	var bucketState state.BucketState
	if err := bucketState.UnmarshalBinary(raw[8:]); err != nil {
		return nil, 0, err
	}
	return &bucketState, version, nil
}
