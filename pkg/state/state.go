package state

import (
	"encoding/binary"
	"fmt"
	"math"

	gberrors "github.com/vnykmshr/gobucket/pkg/common/errors"
)

// BucketState is the mutable numeric record of one bucket: a flat slot array
// where slot 0 holds the last refill timestamp in nanoseconds and slots 1..N
// hold one token count per configured bandwidth, in configuration order.
// Token counts are float64 values stored as their bit patterns, so a single
// uint64 array serves both the integer timestamp and fractional tokens.
//
// A BucketState is only meaningful together with the bandwidth slice of the
// Configuration that produced it; the slots carry no bandwidth identity of
// their own. All methods are total and never fail.
type BucketState struct {
	slots []uint64
}

func newBucketState(bandwidthCount int) *BucketState {
	return &BucketState{slots: make([]uint64, 1+bandwidthCount)}
}

// Clone returns an independent deep copy of the state. Mutating the clone
// never affects the original, which makes it the building block for
// optimistic-concurrency retry loops.
func (s *BucketState) Clone() *BucketState {
	slots := make([]uint64, len(s.slots))
	copy(slots, s.slots)
	return &BucketState{slots: slots}
}

// CopyFrom overwrites this state with the slot values of src.
// Both states must originate from the same configuration.
func (s *BucketState) CopyFrom(src *BucketState) {
	copy(s.slots, src.slots)
}

// LastRefillTimeNanos returns the timestamp the state was last advanced to.
func (s *BucketState) LastRefillTimeNanos() int64 {
	return int64(s.slots[0])
}

func (s *BucketState) setLastRefillTimeNanos(nanos int64) {
	s.slots[0] = uint64(nanos)
}

func (s *BucketState) tokens(bandwidthIndex int) float64 {
	return math.Float64frombits(s.slots[bandwidthIndex+1])
}

func (s *BucketState) setTokens(bandwidthIndex int, value float64) {
	s.slots[bandwidthIndex+1] = math.Float64bits(value)
}

// Refill advances the state to nowNanos, growing every bandwidth's token
// count smoothly for the elapsed interval and clamping each at its capacity.
// Calling it again with the same timestamp is a no-op, which keeps repeated
// refills at identical clock resolution harmless. Each bandwidth is advanced
// independently; the timestamp is updated once, after all slots.
func (s *BucketState) Refill(bandwidths []Bandwidth, nowNanos int64) {
	lastRefillNanos := s.LastRefillTimeNanos()
	if lastRefillNanos == nowNanos {
		return
	}
	for i, bandwidth := range bandwidths {
		s.setTokens(i, bandwidth.newSize(s.tokens(i), lastRefillNanos, nowNanos))
	}
	s.setLastRefillTimeNanos(nowNanos)
}

// AvailableTokens returns the number of tokens currently consumable, as a
// truncated integer. The tightest limited bandwidth forms a ceiling; the
// guaranteed bandwidth, when present, forms a floor that overrides it, so the
// result is the larger of the two. The caller is expected to Refill first.
func (s *BucketState) AvailableTokens(bandwidths []Bandwidth) int64 {
	availableByGuarantee := 0.0
	availableByLimitation := math.Inf(1)
	for i, bandwidth := range bandwidths {
		currentSize := s.tokens(i)
		if bandwidth.IsLimited() {
			availableByLimitation = math.Min(availableByLimitation, currentSize)
		} else {
			availableByGuarantee = currentSize
		}
	}
	available := math.Max(availableByLimitation, availableByGuarantee)
	if available >= float64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(available)
}

// Consume debits tokensToConsume from every bandwidth slot uniformly,
// clamping each slot at zero. It performs no admission check; callers verify
// availability first via AvailableTokens.
func (s *BucketState) Consume(tokensToConsume int64) {
	for i := 0; i < len(s.slots)-1; i++ {
		s.setTokens(i, math.Max(0, s.tokens(i)-float64(tokensToConsume)))
	}
}

// DelayNanosUntilAvailable returns the nanoseconds to wait before
// tokensToConsume tokens become consumable, or 0 if they already are.
// All limited bandwidths must admit the request simultaneously, so their
// slowest individual delay governs; a guaranteed bandwidth offers an
// alternate path, short-circuiting to 0 the instant it is satisfied.
func (s *BucketState) DelayNanosUntilAvailable(bandwidths []Bandwidth, nowNanos, tokensToConsume int64) int64 {
	delayLimited := int64(0)
	delayGuaranteed := int64(math.MaxInt64)
	for i, bandwidth := range bandwidths {
		delay := bandwidth.delayNanos(s.tokens(i), nowNanos, tokensToConsume)
		if bandwidth.IsGuaranteed() {
			if delay == 0 {
				return 0
			}
			delayGuaranteed = delay
			continue
		}
		if delay > delayLimited {
			delayLimited = delay
		}
	}
	if delayGuaranteed < delayLimited {
		return delayGuaranteed
	}
	return delayLimited
}

func (s *BucketState) String() string {
	return fmt.Sprintf("BucketState{slots=%v}", s.slots)
}

// MarshalBinary encodes the slot array as big-endian uint64 words. The
// encoding is an implementation detail of state stores, not a stable wire
// format.
func (s *BucketState) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8*len(s.slots))
	for i, slot := range s.slots {
		binary.BigEndian.PutUint64(buf[8*i:], slot)
	}
	return buf, nil
}

// UnmarshalBinary decodes a slot array produced by MarshalBinary.
func (s *BucketState) UnmarshalBinary(data []byte) error {
	if len(data) < 16 || len(data)%8 != 0 {
		return gberrors.NewConfigurationError("state", "encoded state", len(data), "length must be a multiple of 8 and cover at least one bandwidth")
	}
	s.slots = make([]uint64, len(data)/8)
	for i := range s.slots {
		s.slots[i] = binary.BigEndian.Uint64(data[8*i:])
	}
	return nil
}
