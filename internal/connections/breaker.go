// Package connections wraps outbound calls to the external curator and
// management agents behind a circuit breaker and a rate limiter, so a
// failing or slow agent degrades gracefully instead of blocking future
// turns (spec §5's "fire and forget" / hard-timeout requirements).
// Grounded on internal/llm/circuit_breaker.go's gobreaker wrapper.
package connections

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the breaker is open and rejects calls to
// protect a struggling external agent from further load.
var ErrCircuitOpen = errors.New("connections: circuit breaker is open")

// BreakerConfig tunes a CircuitBreaker.
type BreakerConfig struct {
	MaxFailures          uint32        // consecutive failures before opening; default 3
	Timeout              time.Duration // open-state duration before half-open; default 30s
	HalfOpenMaxSuccesses uint32        // successes required to re-close; default 2
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxFailures == 0 {
		c.MaxFailures = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HalfOpenMaxSuccesses == 0 {
		c.HalfOpenMaxSuccesses = 2
	}
	return c
}

// CircuitBreaker protects one external-agent dependency (curator or
// manager) from cascading failures.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	mu      sync.RWMutex
	metrics BreakerMetrics
}

// BreakerMetrics is a running tally of calls through one CircuitBreaker.
type BreakerMetrics struct {
	TotalRequests  uint64
	TotalSuccesses uint64
	TotalFailures  uint64
}

// NewCircuitBreaker returns a CircuitBreaker named name with default
// tuning (3 failures / 30s open / 2 half-open successes).
func NewCircuitBreaker(name string) *CircuitBreaker {
	return NewCircuitBreakerWithConfig(name, BreakerConfig{})
}

// NewCircuitBreakerWithConfig returns a CircuitBreaker named name with cfg.
func NewCircuitBreakerWithConfig(name string, cfg BreakerConfig) *CircuitBreaker {
	cfg = cfg.withDefaults()
	cb := &CircuitBreaker{}
	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxSuccesses,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	})
	return cb
}

// Execute runs fn through the breaker, translating gobreaker's open-state
// error into ErrCircuitOpen and recording success/failure metrics.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	select {
	case <-ctx.Done():
		cb.recordFailure()
		return nil, ctx.Err()
	default:
	}

	result, err := cb.breaker.Execute(func() (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return fn()
	})

	if err != nil {
		cb.recordFailure()
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	cb.recordSuccess()
	return result, nil
}

// State reports the breaker's current state: "closed", "open", or
// "half-open".
func (cb *CircuitBreaker) State() string {
	switch cb.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Metrics returns a snapshot of the breaker's call counts.
func (cb *CircuitBreaker) Metrics() BreakerMetrics {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.metrics
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.metrics.TotalRequests++
	cb.metrics.TotalSuccesses++
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.metrics.TotalRequests++
	cb.metrics.TotalFailures++
}
