package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogStage logs the start or end of a pipeline stage with its counters
func LogStage(l Logger, stage, phase string, counters map[string]interface{}) {
	fields := map[string]interface{}{
		"stage": stage,
		"phase": phase,
	}
	for k, v := range counters {
		fields[k] = v
	}
	l.InfoWithFields("stage "+phase, fields)
}

// LogFetchAttempt logs one failed attempt of a retried remote call
func LogFetchAttempt(l Logger, op, key string, attempt, maxAttempts int, err error, delay time.Duration) {
	l.WithError(err).WarnWithFields("fetch attempt failed", map[string]interface{}{
		"op":           op,
		"key":          key,
		"attempt":      attempt,
		"max_attempts": maxAttempts,
		"delay_ms":     delay.Milliseconds(),
	})
}

// LogItemSkipped logs a per-item failure that the run tolerates
func LogItemSkipped(l Logger, stage, key string, err error) {
	l.WithError(err).WarnWithFields("item skipped", map[string]interface{}{
		"stage": stage,
		"key":   key,
	})
}

// LogPause logs a pacing pause before the next remote call
func LogPause(l Logger, reason string, d time.Duration) {
	l.DebugWithFields("pausing", map[string]interface{}{
		"reason":   reason,
		"duration": d.Round(100 * time.Millisecond).String(),
	})
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(string)                                   {}
func (n nopLogger) Info(string)                                    {}
func (n nopLogger) Warn(string)                                    {}
func (n nopLogger) Error(string)                                   {}
func (n nopLogger) Fatal(string)                                   {}
func (n nopLogger) WithField(string, interface{}) Logger           { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger       { return n }
func (n nopLogger) WithError(error) Logger                         { return n }
func (n nopLogger) WithContext(context.Context) Logger             { return n }
func (n nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (n nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (n nopLogger) ErrorWithFields(string, map[string]interface{}) {}
func (n nopLogger) FatalWithFields(string, map[string]interface{}) {}
func (n nopLogger) GetZerolog() *zerolog.Logger                    { return nil }
