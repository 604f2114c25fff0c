package redis

import (
	"time"

	"github.com/pior/redis/resp"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards the command cycle of a client.
// *gobreaker.CircuitBreaker[resp.Reply] implements it.
type CircuitBreaker interface {
	Execute(req func() (resp.Reply, error)) (resp.Reply, error)
	State() gobreaker.State
	Counts() gobreaker.Counts
}

var _ CircuitBreaker = (*gobreaker.CircuitBreaker[resp.Reply])(nil)

// NewCircuitBreakerConfig returns a function that creates circuit breakers for servers.
// This is a helper for common use cases.
//
// Only transport and framing failures count as breaker failures: server error
// replies and type mismatches mean the server is healthy.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) CircuitBreaker {
	return func(serverAddr string) CircuitBreaker {
		settings := gobreaker.Settings{
			Name:        serverAddr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !resp.ShouldCloseConnection(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
			},
		}
		return gobreaker.NewCircuitBreaker[resp.Reply](settings)
	}
}
