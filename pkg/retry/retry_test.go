package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "igharvest/pkg/errors"
	"igharvest/pkg/logger"
)

func TestUniformJitterBounds(t *testing.T) {
	tests := []struct {
		name  string
		float float64
		want  time.Duration
	}{
		{"lower edge", 0.0, 2 * time.Second},
		{"midpoint", 0.5, 3 * time.Second},
		{"upper edge", 1.0, 4 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &UniformJitter{Min: 2 * time.Second, Max: 4 * time.Second, Float: func() float64 { return tt.float }}
			if got := u.NextDelay(1); got != tt.want {
				t.Errorf("NextDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUniformJitterRandomStaysInRange(t *testing.T) {
	u := NewUniformJitter(2*time.Second, 4*time.Second)
	for i := 1; i <= 500; i++ {
		d := u.NextDelay(i)
		if d < 2*time.Second || d > 4*time.Second {
			t.Fatalf("delay %v outside [2s,4s]", d)
		}
	}
}

func TestUniformJitterDegenerate(t *testing.T) {
	u := NewUniformJitter(2*time.Second, 2*time.Second)
	assert.Equal(t, 2*time.Second, u.NextDelay(1))
	assert.Equal(t, time.Duration(0), u.NextDelay(0))
}

func testConfig(sleeper Sleeper, attempts int) *Config {
	return &Config{
		MaxAttempts: attempts,
		Backoff:     NewUniformJitter(2*time.Second, 4*time.Second),
		Sleeper:     sleeper,
		Logger:      logger.NewNopLogger(),
	}
}

func TestDoSucceedsAfterTwoFailures(t *testing.T) {
	sleeper := &RecordingSleeper{}
	calls := 0

	err := Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return &errs.Error{Type: errs.ErrorTypeServerError, Code: 500}
		}
		return nil
	}, testConfig(sleeper, 3))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, sleeper.Count())
	for _, d := range sleeper.Delays() {
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 4*time.Second)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	sleeper := &RecordingSleeper{}
	calls := 0
	last := &errs.Error{Type: errs.ErrorTypeRateLimit, Code: 429}

	err := Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return last
	}, testConfig(sleeper, 3))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxAttempts))
	assert.ErrorIs(t, err, last)
	assert.Equal(t, 3, calls)
	// no pause after the final attempt
	assert.Equal(t, 2, sleeper.Count())
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	sleeper := &RecordingSleeper{}
	stop := errors.New("permanent")
	cfg := testConfig(sleeper, 5)
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, stop) }

	calls := 0
	err := Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return stop
	}, cfg)

	assert.Equal(t, stop, err)
	assert.Equal(t, 1, calls)
	assert.Zero(t, sleeper.Count())
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errors.New("transient")
	}, testConfig(&RecordingSleeper{}, 3))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoCallsOnRetry(t *testing.T) {
	var seen []int
	cfg := testConfig(&RecordingSleeper{}, 3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		seen = append(seen, attempt)
	}

	_ = Do(context.Background(), func(ctx context.Context, attempt int) error {
		return errors.New("fail")
	}, cfg)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
	assert.True(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeParsing}))
	assert.True(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeNotFound, Code: 404}))
}

func TestWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Wait(context.Background(), time.Millisecond))
}
