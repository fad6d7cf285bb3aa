package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig holds configuration for the Redis circuit breaker
type BreakerConfig struct {
	// MaxRequests is the number of probes allowed while half-open
	MaxRequests uint32
	// Interval is the cyclic period of the closed state for clearing counts
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold uint32
}

// DefaultBreakerConfig returns default circuit breaker configuration
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerState is the externally visible breaker state
type BreakerState string

const (
	BreakerStateClosed   BreakerState = "closed"
	BreakerStateOpen     BreakerState = "open"
	BreakerStateHalfOpen BreakerState = "half-open"
)

// ErrCircuitOpen is returned while Redis calls are short-circuited
var ErrCircuitOpen = errors.New("redis circuit breaker is open")

// breaker stops calling Redis after repeated failures so a flapping cache
// does not add its timeout to every request
type breaker struct {
	cb *gobreaker.CircuitBreaker
}

func newBreaker(cfg *BreakerConfig) *breaker {
	if cfg == nil {
		cfg = DefaultBreakerConfig()
	}
	return &breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info().
				Str("circuit_breaker", name).
				Str("from", string(toBreakerState(from))).
				Str("to", string(toBreakerState(to))).
				Msg("Circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// A miss or a cancelled caller says nothing about Redis health
			return err == nil || errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled)
		},
	})}
}

// do runs fn under the breaker. A nil breaker runs fn directly.
func (b *breaker) do(ctx context.Context, fn func() error) error {
	if b == nil {
		return fn()
	}
	_, err := b.cb.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

func (b *breaker) state() BreakerState {
	if b == nil {
		return BreakerStateClosed
	}
	return toBreakerState(b.cb.State())
}

func toBreakerState(state gobreaker.State) BreakerState {
	switch state {
	case gobreaker.StateClosed:
		return BreakerStateClosed
	case gobreaker.StateOpen:
		return BreakerStateOpen
	case gobreaker.StateHalfOpen:
		return BreakerStateHalfOpen
	default:
		return BreakerState("unknown")
	}
}
