package state

import (
	"testing"
	"time"

	"github.com/vnykmshr/gobucket/internal/testutil"
)

// BenchmarkRefill measures the engine's refill hot path.
func BenchmarkRefill(b *testing.B) {
	cfg, st, err := NewInitialState(testutil.NewMockClock(0), []Bandwidth{
		Limited(1_000_000, time.Second),
		Limited(10_000_000, time.Minute),
	}, nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st.Refill(cfg.Bandwidths(), int64(i))
	}
}

// BenchmarkRefillConsume measures a full admit cycle: refill, query, consume.
func BenchmarkRefillConsume(b *testing.B) {
	guaranteed := Guaranteed(1000, time.Second)
	cfg, st, err := NewInitialState(testutil.NewMockClock(0), []Bandwidth{
		Limited(1_000_000, time.Second),
	}, &guaranteed)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st.Refill(cfg.Bandwidths(), int64(i))
		if st.AvailableTokens(cfg.Bandwidths()) >= 1 {
			st.Consume(1)
		}
	}
}
