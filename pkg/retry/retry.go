package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"igharvest/pkg/logger"
)

// ErrMaxAttempts wraps the last error once the attempt budget is spent
var ErrMaxAttempts = errors.New("max retry attempts exceeded")

// Operation performs one attempt. attempt is 1-based.
type Operation func(ctx context.Context, attempt int) error

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
	// Backoff computes the pause between attempts
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called after a failed attempt, before the pause
	OnRetry func(attempt int, err error, delay time.Duration)
	// Sleeper performs the pause
	Sleeper Sleeper
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns three attempts with a 2-4s uniform pause
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     NewUniformJitter(2*time.Second, 4*time.Second),
		RetryIf:     DefaultRetryIf,
		Sleeper:     ContextSleeper,
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf retries everything except cancellation
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Do runs op until it succeeds, RetryIf rejects the error, or MaxAttempts
// attempts have been made. There is no pause after the final attempt.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	sleeper := cfg.Sleeper
	if sleeper == nil {
		sleeper = ContextSleeper
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	if cfg.Backoff != nil {
		cfg.Backoff.Reset()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx, attempt)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		var delay time.Duration
		if cfg.Backoff != nil {
			delay = cfg.Backoff.NextDelay(attempt)
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if err := sleeper.Sleep(ctx, delay); err != nil {
			log.WarnWithFields("retry cancelled", map[string]interface{}{
				"attempt": attempt,
				"reason":  err.Error(),
			})
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}

	return fmt.Errorf("%w (%d): %w", ErrMaxAttempts, maxAttempts, lastErr)
}
