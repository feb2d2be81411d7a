package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igharvest/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: map[string]interface{}{}}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "chatty"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.WithField("stage", "detail").
		WithFields(map[string]interface{}{"shortcode": "ABC", "attempt": 2}).
		Info("chained")

	out := buf.String()
	assert.Contains(t, out, `"stage":"detail"`)
	assert.Contains(t, out, `"shortcode":"ABC"`)
	assert.Contains(t, out, `"attempt":2`)
}

func TestChildLoggersDoNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf)

	_ = parent.WithField("username", "u1")
	parent.Info("parent only")

	assert.NotContains(t, buf.String(), "u1")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("boom")).Error("failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestStructuredFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.InfoWithFields("typed", map[string]interface{}{
		"count":    3,
		"ok":       true,
		"delay":    2 * time.Second,
		"names":    []string{"a", "b"},
		"custom":   struct{ N int }{N: 1},
		"at":       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"fraction": 0.5,
	})

	out := buf.String()
	assert.Contains(t, out, `"count":3`)
	assert.Contains(t, out, `"ok":true`)
	assert.Contains(t, out, `"names":["a","b"]`)
}

func TestDomainHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogFetchAttempt(tl, "profile", "u1", 1, 3, errors.New("status 500"), 2500*time.Millisecond)
	LogItemSkipped(tl, "detail", "ABC", errors.New("gave up"))
	LogStage(tl, "discovery", "completed", map[string]interface{}{"posts": 4})

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 2)
	assert.Equal(t, "profile", warns[0].Fields["op"])
	assert.Equal(t, int64(2500), warns[0].Fields["delay_ms"])
	assert.Equal(t, "ABC", warns[1].Fields["key"])
	assert.EqualError(t, warns[1].Error, "gave up")

	assert.True(t, tl.HasMessage("stage completed"))
}

func TestTestLoggerScopes(t *testing.T) {
	tl := NewTestLogger()
	scoped := tl.WithField("run_id", "r1").WithError(errors.New("x"))
	scoped.InfoWithFields("hello", map[string]interface{}{"n": 1})
	tl.Info("plain")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "r1", msgs[0].Fields["run_id"])
	assert.Equal(t, 1, msgs[0].Fields["n"])
	assert.Error(t, msgs[0].Error)
	assert.Nil(t, msgs[1].Fields)
	assert.NoError(t, msgs[1].Error)

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "error"}))
	assert.NotNil(t, GetLogger())

	// convenience wrappers must not panic
	Debug("debug")
	Info("info")
	WithField("k", "v").Warn("warn")
	WithError(errors.New("e")).Error(strings.Repeat("x", 3))
}
