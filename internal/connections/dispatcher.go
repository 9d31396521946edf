package connections

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// defaultHardTimeout is spec §5's "outbound curator and management calls
// use a hard timeout (120s default)".
const defaultHardTimeout = 120 * time.Second

// DispatcherConfig tunes a Dispatcher's rate limiter and hard timeout.
type DispatcherConfig struct {
	RequestsPerSecond float64       // default 1
	Burst             int           // default 1
	HardTimeout       time.Duration // default 120s
	Breaker           BreakerConfig
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.HardTimeout <= 0 {
		c.HardTimeout = defaultHardTimeout
	}
	return c
}

// Dispatcher wraps one external agent dependency (curator or manager)
// behind a rate limiter (golang.org/x/time/rate, grounded on the teacher's
// web/handlers/middleware.go RateLimiter) and a CircuitBreaker, and enforces
// the hard outbound timeout. Curator/ManagerAgent call sites go through
// Dispatch rather than invoking the agent directly.
type Dispatcher struct {
	name    string
	limiter *rate.Limiter
	breaker *CircuitBreaker
	timeout time.Duration
}

// NewDispatcher returns a Dispatcher for an agent named name (used in error
// messages and the breaker's metrics).
func NewDispatcher(name string, cfg DispatcherConfig) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: NewCircuitBreakerWithConfig(name, cfg.Breaker),
		timeout: cfg.HardTimeout,
	}
}

// Dispatch waits for the rate limiter, then runs fn through the circuit
// breaker under a context bounded by the dispatcher's hard timeout.
// A failed rate-limiter wait (ctx deadline or cancellation) and a call that
// ends in context.DeadlineExceeded are surfaced as AgentError{Kind:
// KindTimeout}; ErrCircuitOpen and any other failure not already an
// AgentError, including a cancellation during the call, as KindAgentFailure,
// so callers can record the right failure reason in a management log.
func (d *Dispatcher) Dispatch(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, &AgentError{Agent: d.name, Kind: KindTimeout, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := d.breaker.Execute(callCtx, func() (interface{}, error) {
		return fn(callCtx)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &AgentError{Agent: d.name, Kind: KindTimeout, Err: err}
		}
		if errors.Is(err, ErrCircuitOpen) {
			return nil, &AgentError{Agent: d.name, Kind: KindAgentFailure, Err: err}
		}
		var agentErr *AgentError
		if errors.As(err, &agentErr) {
			return nil, err
		}
		return nil, &AgentError{Agent: d.name, Kind: KindAgentFailure, Err: err}
	}
	return result, nil
}

// State reports the underlying breaker's state.
func (d *Dispatcher) State() string {
	return d.breaker.State()
}
