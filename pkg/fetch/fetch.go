// Package fetch performs one remote API call with bounded retries.
//
// Every attempt draws a fresh User-Agent, presents the session cookies and
// waits on the shared request ceiling. An attempt succeeds only when the
// transport succeeds, the status is 2xx and the body decodes into the
// caller's target. Anything else is retried after a jittered pause.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/ratelimit"
	"igharvest/pkg/retry"
	"igharvest/pkg/session"
	"igharvest/pkg/useragent"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Validator is implemented by targets that can reject a well-formed but
// unusable body. A validation failure counts as a parse failure.
type Validator interface {
	Validate() error
}

// Request describes one logical remote call
type Request struct {
	// Op and Key identify the call in logs and errors, e.g. "detail" and a short code
	Op  string
	Key string

	Method string
	URL    string
	// Form, when set, is sent url-encoded as the body
	Form   url.Values
	Header map[string]string
}

// Config holds the attempt budget and retry pause range
type Config struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Timeout     time.Duration
}

// DefaultConfig returns 3 attempts with a 2-4s pause between them
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		MinDelay:    2 * time.Second,
		MaxDelay:    4 * time.Second,
		Timeout:     60 * time.Second,
	}
}

// Fetcher runs Requests through the retry policy
type Fetcher struct {
	client  Doer
	agents  useragent.Source
	limiter ratelimit.Limiter
	backoff retry.BackoffStrategy
	sleeper retry.Sleeper
	logger  logger.Logger
	headers map[string]string
	config  Config
}

// Option customises a Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(d Doer) Option { return func(f *Fetcher) { f.client = d } }

// WithUserAgents replaces the default User-Agent rotator
func WithUserAgents(s useragent.Source) Option { return func(f *Fetcher) { f.agents = s } }

// WithLimiter sets the request ceiling shared across calls
func WithLimiter(l ratelimit.Limiter) Option { return func(f *Fetcher) { f.limiter = l } }

// WithSleeper replaces the real clock used between attempts
func WithSleeper(s retry.Sleeper) Option { return func(f *Fetcher) { f.sleeper = s } }

// WithBackoff replaces the uniform pause policy
func WithBackoff(b retry.BackoffStrategy) Option { return func(f *Fetcher) { f.backoff = b } }

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option { return func(f *Fetcher) { f.logger = l } }

// New creates a Fetcher
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	f := &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		agents:  useragent.NewRotator(),
		limiter: ratelimit.Unlimited{},
		backoff: retry.NewUniformJitter(cfg.MinDelay, cfg.MaxDelay),
		sleeper: retry.ContextSleeper,
		logger:  logger.GetLogger(),
		headers: map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
		},
		config: cfg,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxAttempts returns the per-call attempt budget
func (f *Fetcher) MaxAttempts() int {
	return f.config.MaxAttempts
}

// Fetch performs req until target is filled or the attempt budget is spent.
// Exhaustion yields *errors.FetchError carrying the last attempt's cause.
func (f *Fetcher) Fetch(ctx context.Context, req *Request, creds session.CredentialBag, target interface{}) error {
	var lastErr error
	attempts := 0

	cfg := &retry.Config{
		MaxAttempts: f.config.MaxAttempts,
		Backoff:     f.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Sleeper:     f.sleeper,
		Logger:      f.logger,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.LogFetchAttempt(f.logger, req.Op, req.Key, attempt, f.config.MaxAttempts, err, delay)
		},
	}

	err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
		attempts = attempt
		lastErr = f.attempt(ctx, req, creds, target)
		return lastErr
	}, cfg)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s %q: %w", req.Op, req.Key, ctxErr)
	}

	f.logger.WithError(lastErr).ErrorWithFields("fetch failed", map[string]interface{}{
		"op":       req.Op,
		"key":      req.Key,
		"attempts": attempts,
	})
	return &errs.FetchError{Op: req.Op, Key: req.Key, Attempts: attempts, Cause: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, req *Request, creds session.CredentialBag, target interface{}) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	httpReq, err := f.build(ctx, req, creds)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	body, err := f.do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		f.logger.DebugWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          req.URL,
			"error":        err.Error(),
			"body_preview": preview(body),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    http.StatusOK,
		}
	}
	if v, ok := target.(Validator); ok {
		if err := v.Validate(); err != nil {
			return &errs.Error{
				Type:    errs.ErrorTypeParsing,
				Message: err.Error(),
				Code:    http.StatusOK,
			}
		}
	}
	return nil
}

func (f *Fetcher) build(ctx context.Context, req *Request, creds session.CredentialBag) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, err
	}

	for k, v := range f.headers {
		httpReq.Header.Set(k, v)
	}
	if req.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("User-Agent", f.agents.Next())
	creds.Apply(httpReq)
	return httpReq, nil
}

// do sends the request and returns the body of a 2xx response
func (f *Fetcher) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	f.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := f.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		f.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	f.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errs.FromStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}
	return body, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
