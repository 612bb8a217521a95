// Package circuitbreaker stops calling a model endpoint that keeps failing.
// Callers see ErrOpen instead of waiting for another timeout, and the
// experiment degrades to fallbacks quickly.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrOpen is returned while the breaker rejects calls
	ErrOpen = errors.New("circuit breaker is open")
	// ErrProbeInFlight is returned when the half-open probe slots are taken
	ErrProbeInFlight = errors.New("circuit breaker is half-open, probe already in flight")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

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

// Config holds circuit breaker configuration
type Config struct {
	// Name labels the breaker in logs and metrics
	Name string
	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures int
	// Cooldown is how long the breaker stays open before probing
	Cooldown time.Duration
	// HalfOpenProbes is the number of successful probes needed to close again
	HalfOpenProbes int
	// IsFailure decides whether an error counts against the endpoint.
	// Defaults to every error except context cancellation.
	IsFailure func(error) bool
	// OnStateChange is called synchronously, outside the lock, on every transition
	OnStateChange func(name string, from, to State)
}

// DefaultConfig returns the breaker settings used for model endpoints
func DefaultConfig(name string) Config {
	return Config{
		Name:           name,
		MaxFailures:    5,
		Cooldown:       30 * time.Second,
		HalfOpenProbes: 1,
	}
}

func countsAsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// Breaker guards calls to a single dependency
type Breaker struct {
	cfg Config
	now func() time.Time

	mu         sync.Mutex
	state      State
	failures   int
	openedAt   time.Time
	probes     int
	probesDone int
}

// New creates a breaker; zero config fields take DefaultConfig values
func New(cfg Config) *Breaker {
	def := DefaultConfig(cfg.Name)
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = def.HalfOpenProbes
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = countsAsFailure
	}
	return &Breaker{cfg: cfg, now: time.Now, state: StateClosed}
}

// Name returns the configured breaker name
func (b *Breaker) Name() string {
	return b.cfg.Name
}

// Execute runs fn unless the breaker is open
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := Do(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do runs fn unless the breaker is open and returns its result
func Do[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := b.admit(); err != nil {
		return zero, err
	}

	result, err := fn(ctx)
	b.record(err)
	return result, err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	var from, to State
	changed := false
	defer func() {
		b.mu.Unlock()
		if changed {
			b.notify(from, to)
		}
	}()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrOpen
		}
		from, to, changed = b.state, StateHalfOpen, true
		b.setState(StateHalfOpen)
		b.probes++
		return nil
	case StateHalfOpen:
		if b.probes >= b.cfg.HalfOpenProbes {
			return ErrProbeInFlight
		}
		b.probes++
		return nil
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	from := b.state
	failed := err != nil && b.cfg.IsFailure(err)

	switch {
	case failed && b.state == StateHalfOpen:
		b.setState(StateOpen)
	case failed:
		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.setState(StateOpen)
		}
	case err != nil:
		// ignored errors release a probe slot without deciding anything
		if b.state == StateHalfOpen && b.probes > 0 {
			b.probes--
		}
	case b.state == StateHalfOpen:
		b.probesDone++
		if b.probesDone >= b.cfg.HalfOpenProbes {
			b.setState(StateClosed)
		}
	default:
		b.failures = 0
	}
	to := b.state
	b.mu.Unlock()

	if from != to {
		b.notify(from, to)
	}
}

// setState must be called with mu held
func (b *Breaker) setState(s State) {
	b.state = s
	b.probes = 0
	b.probesDone = 0
	switch s {
	case StateOpen:
		b.openedAt = b.now()
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) notify(from, to State) {
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, from, to)
	}
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive failure count
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset closes the breaker
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.setState(StateClosed)
	b.mu.Unlock()
	if from != StateClosed {
		b.notify(from, StateClosed)
	}
}
