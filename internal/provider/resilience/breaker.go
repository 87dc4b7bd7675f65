// Package resilience wraps outbound HTTP calls to upstream data providers
// with a circuit breaker, per-attempt timeouts and bounded retries.
package resilience

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds configuration for the circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs and health reports.
	Name string

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts periodically. Zero never clears.
	Interval time.Duration

	// OpenTimeout is how long the breaker stays open before going half-open.
	OpenTimeout time.Duration

	// MinRequests and FailureRatio decide when the breaker trips.
	MinRequests  uint32
	FailureRatio float64

	// Logger receives state transitions. The zero logger discards them.
	Logger zerolog.Logger
}

// DefaultBreakerConfig trips after five requests with at least half failing
// and probes again after a minute.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		OpenTimeout:  time.Minute,
		MinRequests:  5,
		FailureRatio: 0.5,
		Logger:       zerolog.Nop(),
	}
}

// tripFunc returns the ReadyToTrip predicate for the configured thresholds.
func (c BreakerConfig) tripFunc() func(gobreaker.Counts) bool {
	minRequests := c.MinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	ratio := c.FailureRatio
	if ratio <= 0 {
		ratio = 0.5
	}
	return func(counts gobreaker.Counts) bool {
		if counts.Requests < minRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
}

func newBreaker[T any](cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	logger := cfg.Logger
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: cfg.tripFunc(),
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}
