package state

import (
	"fmt"
	"math"
	"time"

	gberrors "github.com/vnykmshr/gobucket/pkg/common/errors"
)

// Clock provides the current time in nanoseconds. It can be mocked for testing.
type Clock interface {
	CurrentTimeNanos() int64
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// CurrentTimeNanos returns the current system time in nanoseconds.
func (SystemClock) CurrentTimeNanos() int64 {
	return time.Now().UnixNano()
}

// Configuration is the immutable companion of a BucketState: the ordered
// bandwidth list that gives the state's slots their meaning, plus the clock
// the bucket was created with. One Configuration is shared read-only across
// every operation on a bucket and across clones of its state.
type Configuration struct {
	bandwidths    []Bandwidth
	guaranteedIdx int
	clock         Clock
}

// NewInitialState validates the descriptor set and produces a Configuration
// paired with a freshly seeded BucketState: slot 0 holds the clock's current
// time, token slots hold each bandwidth's initial fill level. The guaranteed
// bandwidth, when present, always occupies the last slot.
//
// The descriptor set is rejected with a ConfigurationError, before any state
// is allocated, when it contains more than one guaranteed bandwidth, a
// negative capacity or initial fill, a non-positive period, or no bandwidths
// at all. A set with no limited bandwidths is legal: nothing caps consumption,
// so availability reads as unbounded.
func NewInitialState(clock Clock, limited []Bandwidth, guaranteed *Bandwidth) (*Configuration, *BucketState, error) {
	if clock == nil {
		return nil, nil, gberrors.NewConfigurationError("state", "clock", nil, "cannot be nil").
			WithHint("use state.SystemClock{}")
	}
	if len(limited) == 0 && guaranteed == nil {
		return nil, nil, gberrors.NewConfigurationError("state", "bandwidths", 0, "at least one bandwidth is required")
	}
	for i, bandwidth := range limited {
		if bandwidth.IsGuaranteed() {
			return nil, nil, gberrors.NewConfigurationError("state", fmt.Sprintf("limited[%d]", i), bandwidth.String(), "only one guaranteed bandwidth is allowed").
				WithHint("pass the guaranteed bandwidth separately")
		}
		if err := bandwidth.validate(fmt.Sprintf("limited[%d]", i)); err != nil {
			return nil, nil, err
		}
	}
	if guaranteed != nil {
		if guaranteed.IsLimited() {
			return nil, nil, gberrors.NewConfigurationError("state", "guaranteed", guaranteed.String(), "bandwidth was not built with Guaranteed")
		}
		if err := guaranteed.validate("guaranteed"); err != nil {
			return nil, nil, err
		}
	}

	bandwidths := make([]Bandwidth, 0, len(limited)+1)
	bandwidths = append(bandwidths, limited...)
	guaranteedIdx := -1
	if guaranteed != nil {
		guaranteedIdx = len(bandwidths)
		bandwidths = append(bandwidths, *guaranteed)
	}

	bucketState := newBucketState(len(bandwidths))
	bucketState.setLastRefillTimeNanos(clock.CurrentTimeNanos())
	for i, bandwidth := range bandwidths {
		bucketState.setTokens(i, bandwidth.initialTokens)
	}

	cfg := &Configuration{
		bandwidths:    bandwidths,
		guaranteedIdx: guaranteedIdx,
		clock:         clock,
	}
	return cfg, bucketState, nil
}

// Bandwidths returns the ordered bandwidth list backing the state's slots.
// The returned slice must not be modified.
func (c *Configuration) Bandwidths() []Bandwidth {
	return c.bandwidths
}

// Clock returns the time source the bucket was created with.
func (c *Configuration) Clock() Clock {
	return c.clock
}

// HasGuaranteed reports whether the configuration carries a guaranteed bandwidth.
func (c *Configuration) HasGuaranteed() bool {
	return c.guaranteedIdx >= 0
}

// MaxConsumable returns the largest request the bucket can ever satisfy:
// the tightest limited capacity, or the guaranteed capacity if that is
// larger. Requests above it wait forever.
func (c *Configuration) MaxConsumable() int64 {
	byLimitation := math.Inf(1)
	byGuarantee := 0.0
	for _, bandwidth := range c.bandwidths {
		if bandwidth.IsLimited() {
			byLimitation = math.Min(byLimitation, bandwidth.capacity)
		} else {
			byGuarantee = bandwidth.capacity
		}
	}
	highest := math.Max(byLimitation, byGuarantee)
	if highest >= float64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(highest)
}
