// Package resilience keeps MeetPoint answering when a model backend
// misbehaves.
//
// [CircuitBreaker] is a three-state breaker (closed → open → half-open) that
// stops hammering a text-model API that keeps failing. [FallbackGroup] wraps
// a primary provider and its fallbacks, each behind its own breaker, so the
// venue finder and the chat assistant fail over to a healthy backend instead
// of surfacing every primary outage to the client.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] while the breaker is
// open and the reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards all calls to the backend.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen]. Entered after a streak
	// of consecutive failures; left once the reset timeout elapses.
	StateOpen

	// StateHalfOpen lets a limited number of probe calls through. Probes
	// all succeeding closes the breaker; any probe failing re-opens it.
	StateHalfOpen
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds the breaker's tuning knobs. Zero values select
// the defaults noted per field.
type CircuitBreakerConfig struct {
	// Name labels the guarded backend in log messages, e.g. "gemini".
	Name string

	// MaxFailures is the failure streak that opens the breaker. Default 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before probing the
	// backend again. Default 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the probe budget of the half-open state. Default 3.
	HalfOpenMax int
}

// CircuitBreaker guards one model backend. Safe for concurrent use.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	halfOpenMax  int

	mu         sync.Mutex
	state      State
	failStreak int
	lastFail   time.Time
	probes     int
	probeFails int
}

// NewCircuitBreaker creates a breaker for the backend described by cfg.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	return &CircuitBreaker{
		name:         cfg.Name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		halfOpenMax:  cfg.HalfOpenMax,
		state:        StateClosed,
	}
}

// Execute runs fn if the breaker allows it. Open with the timeout still
// running returns [ErrCircuitOpen] without calling fn; half-open admits fn
// only while probe budget remains.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFail) < cb.resetTimeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probes = 0
		cb.probeFails = 0
		slog.Info("circuit breaker probing backend again", "backend", cb.name)

	case StateHalfOpen:
		if cb.probes >= cb.halfOpenMax {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}

	probing := cb.state == StateHalfOpen
	if probing {
		cb.probes++
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.recordFailure(probing)
	} else {
		cb.recordSuccess(probing)
	}
	return err
}

// recordFailure handles failure accounting. Caller holds cb.mu.
func (cb *CircuitBreaker) recordFailure(probing bool) {
	cb.lastFail = time.Now()

	if probing {
		cb.probeFails++
		// One failed probe re-opens immediately.
		cb.state = StateOpen
		cb.failStreak = cb.maxFailures
		slog.Warn("circuit breaker re-opened, backend still failing",
			"backend", cb.name)
		return
	}

	cb.failStreak++
	if cb.failStreak >= cb.maxFailures {
		cb.state = StateOpen
		slog.Warn("circuit breaker opened",
			"backend", cb.name,
			"consecutive_failures", cb.failStreak)
	}
}

// recordSuccess handles success accounting. Caller holds cb.mu.
func (cb *CircuitBreaker) recordSuccess(probing bool) {
	if probing {
		if cb.probes-cb.probeFails >= cb.halfOpenMax {
			cb.state = StateClosed
			cb.failStreak = 0
			cb.probes = 0
			cb.probeFails = 0
			slog.Info("circuit breaker closed, backend recovered",
				"backend", cb.name)
		}
		return
	}

	// A success in the closed state ends the failure streak.
	cb.failStreak = 0
}

// State returns the breaker's current [State]. An open breaker whose reset
// timeout has elapsed reports [StateHalfOpen]; the stored state changes on
// the next [CircuitBreaker.Execute].
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.lastFail) >= cb.resetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to [StateClosed] and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failStreak = 0
	cb.probes = 0
	cb.probeFails = 0
	slog.Info("circuit breaker manually reset", "backend", cb.name)
}
