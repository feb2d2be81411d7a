package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// BackoffStrategy computes the pause before the next attempt.
// Implementations are pure: they never sleep.
type BackoffStrategy interface {
	// NextDelay returns the delay after the given failed attempt (1-based)
	NextDelay(attempt int) time.Duration
	// Reset resets the strategy to its initial state
	Reset()
}

// UniformJitter draws every delay uniformly from [Min, Max]
type UniformJitter struct {
	Min time.Duration
	Max time.Duration
	// Float returns a value in [0,1). Defaults to math/rand/v2.
	Float func() float64
}

// NewUniformJitter returns a uniform policy over [min, max]
func NewUniformJitter(min, max time.Duration) *UniformJitter {
	return &UniformJitter{Min: min, Max: max}
}

// NextDelay returns a delay in [Min, Max]; attempt is ignored beyond being positive
func (u *UniformJitter) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if u.Max <= u.Min {
		return u.Min
	}
	f := rand.Float64
	if u.Float != nil {
		f = u.Float
	}
	span := float64(u.Max - u.Min)
	return u.Min + time.Duration(math.Round(f()*span))
}

// Reset is a no-op; the policy is stateless
func (u *UniformJitter) Reset() {}

// Sleeper pauses between attempts. Tests inject a fake one.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// ContextSleeper sleeps on the real clock and honours cancellation
var ContextSleeper Sleeper = SleeperFunc(Wait)

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordingSleeper returns immediately and remembers every requested delay
type RecordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

// Sleep records d and returns ctx.Err()
func (r *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

// Delays returns the recorded delays in call order
func (r *RecordingSleeper) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.delays))
	copy(out, r.delays)
	return out
}

// Count returns the number of recorded sleeps
func (r *RecordingSleeper) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delays)
}
