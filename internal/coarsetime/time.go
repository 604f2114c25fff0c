// Package coarsetime provides a clock that is refreshed every 50ms by a
// background goroutine. Connections stamp their last use with it on every
// round trip, where time.Now would dominate small replies.
package coarsetime

import (
	"sync/atomic"
	"time"
)

const tick = 50 * time.Millisecond

var now atomic.Value

func init() {
	now.Store(time.Now())

	tick := time.NewTicker(tick)
	go func() {
		for range tick.C {
			now.Store(time.Now())
		}
	}()
}

// Now returns the current time, accurate to within one tick.
func Now() time.Time {
	return now.Load().(time.Time)
}
