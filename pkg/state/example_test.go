package state_test

import (
	"fmt"
	"time"

	"github.com/vnykmshr/gobucket/pkg/state"
)

// Example demonstrates driving the state engine directly: refill, query,
// consume. Higher layers (pkg/bucket) wrap this in locking and blocking.
func Example() {
	cfg, st, err := state.NewInitialState(
		state.SystemClock{},
		[]state.Bandwidth{state.Limited(10, time.Second)},
		nil,
	)
	if err != nil {
		panic(err)
	}

	fmt.Println(st.AvailableTokens(cfg.Bandwidths()))
	st.Consume(4)
	fmt.Println(st.AvailableTokens(cfg.Bandwidths()))

	// Output:
	// 10
	// 6
}

// Example_guaranteed shows the guaranteed bandwidth flooring availability
// when every limited ceiling is exhausted.
func Example_guaranteed() {
	guaranteed := state.Guaranteed(2, time.Second)
	cfg, st, err := state.NewInitialState(
		state.SystemClock{},
		[]state.Bandwidth{state.LimitedWithInitialTokens(100, 0, time.Minute)},
		&guaranteed,
	)
	if err != nil {
		panic(err)
	}

	fmt.Println(st.AvailableTokens(cfg.Bandwidths()))
	st.Consume(2)
	fmt.Println(st.AvailableTokens(cfg.Bandwidths()))

	// Output:
	// 2
	// 0
}
