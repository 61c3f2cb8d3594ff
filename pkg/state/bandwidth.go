package state

import (
	"fmt"
	"math"
	"time"

	"github.com/vnykmshr/gobucket/pkg/common/validation"
)

// Bandwidth describes one rate limit tracked inside a bucket: a capacity,
// a refill period (the time it takes to renew a full capacity from empty),
// and whether the bandwidth is a limited ceiling or the guaranteed floor.
// Bandwidth values are immutable; they are fixed when a bucket is created.
type Bandwidth struct {
	capacity      float64
	initialTokens float64
	period        time.Duration
	guaranteed    bool
}

// Limited creates a limited bandwidth that starts with a full capacity of tokens.
// Consumption is forbidden the moment any limited bandwidth is exhausted.
func Limited(capacity int64, period time.Duration) Bandwidth {
	return LimitedWithInitialTokens(capacity, capacity, period)
}

// LimitedWithInitialTokens creates a limited bandwidth with an explicit
// initial fill level, which may be below (or above) the capacity.
func LimitedWithInitialTokens(capacity, initialTokens int64, period time.Duration) Bandwidth {
	return Bandwidth{
		capacity:      float64(capacity),
		initialTokens: float64(initialTokens),
		period:        period,
	}
}

// Guaranteed creates the guaranteed bandwidth: a floor that keeps a minimum
// throughput available even when every limited bandwidth is exhausted.
// A bucket configuration may contain at most one guaranteed bandwidth.
func Guaranteed(capacity int64, period time.Duration) Bandwidth {
	return Bandwidth{
		capacity:      float64(capacity),
		initialTokens: float64(capacity),
		period:        period,
		guaranteed:    true,
	}
}

// Capacity returns the maximum token count of the bandwidth.
func (b Bandwidth) Capacity() int64 { return int64(b.capacity) }

// Period returns the time the bandwidth takes to refill a full capacity.
func (b Bandwidth) Period() time.Duration { return b.period }

// IsGuaranteed reports whether the bandwidth is the guaranteed floor.
func (b Bandwidth) IsGuaranteed() bool { return b.guaranteed }

// IsLimited reports whether the bandwidth is a limited ceiling.
func (b Bandwidth) IsLimited() bool { return !b.guaranteed }

func (b Bandwidth) String() string {
	kind := "limited"
	if b.guaranteed {
		kind = "guaranteed"
	}
	return fmt.Sprintf("%s bandwidth %d tokens per %v", kind, int64(b.capacity), b.period)
}

func (b Bandwidth) validate(field string) error {
	if err := validation.ValidateNonNegative("state", field+".capacity", b.capacity); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("state", field+".initialTokens", b.initialTokens); err != nil {
		return err
	}
	return validation.ValidatePositiveDuration("state", field+".period", b.period)
}

// tokensPerNano is the smooth renewal rate.
func (b Bandwidth) tokensPerNano() float64 {
	return b.capacity / float64(b.period.Nanoseconds())
}

// newSize returns the token count after the elapsed interval, clamped at
// capacity. Growth is continuous and monotonic in elapsed time.
func (b Bandwidth) newSize(currentSize float64, lastRefillNanos, nowNanos int64) float64 {
	elapsed := float64(nowNanos - lastRefillNanos)
	return math.Min(b.capacity, currentSize+elapsed*b.tokensPerNano())
}

// delayNanos returns how long this bandwidth alone takes to accumulate
// tokensToConsume tokens, or 0 if they are already present. A zero-rate
// bandwidth with a deficit never satisfies the request. Smooth renewal
// depends only on the deficit; nowNanos is part of the call contract so a
// renewal scheme tied to absolute time can slot in without an API change.
func (b Bandwidth) delayNanos(currentSize float64, nowNanos, tokensToConsume int64) int64 {
	deficit := float64(tokensToConsume) - currentSize
	if deficit <= 0 {
		return 0
	}
	if b.capacity == 0 {
		return math.MaxInt64
	}
	delay := math.Ceil(deficit * float64(b.period.Nanoseconds()) / b.capacity)
	if delay >= float64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(delay)
}
