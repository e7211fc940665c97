package circuitbreaker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alorle/epg-grabber/logging"
	"github.com/alorle/epg-grabber/metrics"
)

// State represents the current state of the circuit breaker
type State int

const (
	// StateClosed means requests flow to the upstream normally
	StateClosed State = iota
	// StateOpen means requests are rejected without reaching the upstream
	StateOpen
	// StateHalfOpen means a limited number of probe requests are let through
	StateHalfOpen
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config contains the configuration for a circuit breaker
type Config struct {
	Name             string           // Name used in logs and metric labels (optional)
	FailureThreshold int              // Number of consecutive failures before opening
	Timeout          time.Duration    // How long to stay OPEN before transitioning to HALF-OPEN
	HalfOpenRequests int              // Number of probe requests allowed in HALF-OPEN state
	Logger           *slog.Logger     // Logger for state changes (optional)
	Metrics          *metrics.Metrics // Metrics for state changes (optional)
}

// CircuitBreaker guards calls to an unreliable upstream
type CircuitBreaker interface {
	// Execute runs fn if the circuit allows it and records its outcome.
	// Returns ErrCircuitOpen or ErrHalfOpenLimitReached without calling fn when rejected.
	Execute(fn func() error) error
	// State returns the current state of the circuit breaker
	State() State
	// Reset forces the circuit breaker back to CLOSED
	Reset()
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is in OPEN state
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrHalfOpenLimitReached is returned when too many requests are made in HALF-OPEN state
	ErrHalfOpenLimitReached = errors.New("circuit breaker half-open request limit reached")
)

// IsRejection reports whether err means the breaker refused to run the call
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrHalfOpenLimitReached)
}

type breaker struct {
	cfg Config
	mu  sync.Mutex

	state            State
	failures         int
	halfOpenInFlight int
	halfOpenPassed   int
	openedAt         time.Time
	now              func() time.Time
}

// New creates a new circuit breaker with the given configuration.
// Non-positive values fall back to 5 failures, 30s timeout and 1 half-open request.
func New(cfg Config) CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = 1
	}

	b := &breaker{
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
	}
	cfg.Metrics.SetCircuitBreakerState(cfg.Name, StateClosed.String())
	return b
}

func (b *breaker) Execute(fn func() error) error {
	b.mu.Lock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Timeout {
		b.transitionTo(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		b.mu.Unlock()
		return ErrCircuitOpen

	case StateHalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenRequests {
			b.mu.Unlock()
			return ErrHalfOpenLimitReached
		}
		b.halfOpenInFlight++
		b.mu.Unlock()

		err := fn()

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.state != StateHalfOpen {
			// Another probe already decided the outcome.
			return err
		}
		if err != nil {
			b.transitionTo(StateOpen)
			return err
		}
		b.halfOpenPassed++
		if b.halfOpenPassed >= b.cfg.HalfOpenRequests {
			b.transitionTo(StateClosed)
		}
		return nil

	case StateClosed:
		b.mu.Unlock()

		err := fn()

		b.mu.Lock()
		defer b.mu.Unlock()
		if err != nil {
			b.failures++
			if b.state == StateClosed && b.failures >= b.cfg.FailureThreshold {
				b.transitionTo(StateOpen)
			}
			return err
		}
		b.failures = 0
		return nil

	default:
		state := b.state
		b.mu.Unlock()
		return fmt.Errorf("unknown circuit breaker state: %d", state)
	}
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionTo(StateClosed)
}

// transitionTo changes the state and reports it.
// Must be called with mu held.
func (b *breaker) transitionTo(next State) {
	if b.state == next {
		return
	}

	prev := b.state
	b.state = next
	b.halfOpenInFlight = 0
	b.halfOpenPassed = 0

	switch next {
	case StateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	case StateOpen:
		b.openedAt = b.now()
		b.cfg.Metrics.RecordCircuitBreakerTrip(b.cfg.Name)
	}

	b.cfg.Metrics.SetCircuitBreakerState(b.cfg.Name, next.String())
	if b.cfg.Logger != nil {
		logging.LogCircuitBreakerChange(b.cfg.Logger, prev.String(), next.String(), b.cfg.Name)
	}
}
