package redis

import (
	"errors"
	"sync"
	"time"
)

// State is the breaker position. The numeric values are exported as the
// cyclewatch_redis_circuit_breaker_state gauge.
type State int

const (
	StateClosed   State = 0
	StateOpen     State = 1
	StateHalfOpen State = 2
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

// ErrCircuitOpen is returned for a cache write refused by the breaker.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Counts is a snapshot of the breaker's call accounting since it was created.
type Counts struct {
	Calls       int64 `json:"calls"`
	Failures    int64 `json:"failures"`
	Consecutive int   `json:"consecutive"`
	Rejected    int64 `json:"rejected"`
}

// Breaker keeps the cache from stalling an evaluation when Redis is down.
// It opens after threshold consecutive failed writes and refuses writes for
// cooldown. After that a single trial write is let through; every other
// write is refused until the trial settles the state.
type Breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	trial    bool

	// OnStateChange, if set, is called with the lock held on every transition.
	OnStateChange func(from, to State)
}

// NewBreaker creates a closed breaker. threshold below 1 is treated as 1.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: max(threshold, 1),
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Do runs fn if the breaker admits it and records the outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.settle(err)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		b.setState(StateHalfOpen)
	}
	switch {
	case b.state == StateOpen, b.state == StateHalfOpen && b.trial:
		b.counts.Rejected++
		return ErrCircuitOpen
	case b.state == StateHalfOpen:
		b.trial = true
	}
	return nil
}

func (b *Breaker) settle(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counts.Calls++
	wasTrial := b.state == StateHalfOpen
	b.trial = false

	if err == nil {
		b.counts.Consecutive = 0
		if wasTrial {
			b.setState(StateClosed)
		}
		return
	}
	b.counts.Failures++
	b.counts.Consecutive++
	if wasTrial || b.counts.Consecutive >= b.threshold {
		b.openedAt = b.now()
		if b.state != StateOpen {
			b.setState(StateOpen)
		}
	}
}

func (b *Breaker) setState(to State) {
	from := b.state
	b.state = to
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}

// State returns the current position without admitting a call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Counts returns a snapshot of the call accounting.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}
