// Package testutil provides assertion helpers and a controllable clock for
// bucket tests. The clock works in raw nanoseconds, matching the state
// engine's timestamps, so tests drive refill arithmetic without sleeping.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestTimeout bounds blocking-consume tests that use a real clock.
const TestTimeout = 5 * time.Second

// WithTimeout returns a context that expires after TestTimeout.
func WithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), TestTimeout)
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertEqual fails the test if got != want
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// MockClock implements the state.Clock interface with a time that only moves
// when the test says so.
type MockClock struct {
	mu  sync.Mutex
	now int64
}

// NewMockClock creates a MockClock pinned at the given nanosecond timestamp.
func NewMockClock(startNanos int64) *MockClock {
	return &MockClock{now: startNanos}
}

// CurrentTimeNanos returns the current mock time in nanoseconds.
func (m *MockClock) CurrentTimeNanos() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d.Nanoseconds()
}

// Set moves the mock clock to a specific nanosecond timestamp.
func (m *MockClock) Set(nanos int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = nanos
}
