package ratelimit

import (
	"context"
	"time"

	"igharvest/pkg/logger"
	"igharvest/pkg/retry"
)

// Pacer inserts a randomized pause between consecutive items of a stage.
// The first call to Pause returns immediately.
type Pacer struct {
	name    string
	policy  *retry.UniformJitter
	sleeper retry.Sleeper
	logger  logger.Logger
	started bool
}

// NewPacer returns a pacer drawing pauses uniformly from [min, max]
func NewPacer(name string, min, max time.Duration, sleeper retry.Sleeper, log logger.Logger) *Pacer {
	if sleeper == nil {
		sleeper = retry.ContextSleeper
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Pacer{
		name:    name,
		policy:  retry.NewUniformJitter(min, max),
		sleeper: sleeper,
		logger:  log,
	}
}

// Pause waits before every item except the first
func (p *Pacer) Pause(ctx context.Context) error {
	if !p.started {
		p.started = true
		return ctx.Err()
	}
	d := p.policy.NextDelay(1)
	if d <= 0 {
		return ctx.Err()
	}
	logger.LogPause(p.logger, p.name, d)
	return p.sleeper.Sleep(ctx, d)
}

// Reset makes the next Pause return immediately again
func (p *Pacer) Reset() {
	p.started = false
}
