package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request or ctx ends
	Wait(ctx context.Context) error
	// Reset restores the full burst
	Reset()
}

// Ceiling caps outgoing API calls at a fixed number per minute
type Ceiling struct {
	perMinute int
	mu        sync.Mutex
	limiter   *rate.Limiter
}

// NewCeiling returns a limiter admitting perMinute requests per minute with a
// burst of one. A non-positive perMinute disables limiting.
func NewCeiling(perMinute int) *Ceiling {
	c := &Ceiling{perMinute: perMinute}
	c.limiter = c.build()
	return c
}

func (c *Ceiling) build() *rate.Limiter {
	if c.perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.perMinute)), 1)
}

func (c *Ceiling) current() *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limiter
}

// Allow reports whether a request may go out now, consuming a token if so
func (c *Ceiling) Allow() bool {
	return c.current().Allow()
}

// Wait blocks until a token is available
func (c *Ceiling) Wait(ctx context.Context) error {
	return c.current().Wait(ctx)
}

// Reset discards any accumulated debt
func (c *Ceiling) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limiter = c.build()
}

// PerMinute returns the configured ceiling
func (c *Ceiling) PerMinute() int {
	return c.perMinute
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}
