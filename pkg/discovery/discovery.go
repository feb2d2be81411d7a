// Package discovery lists the posts shown on a hashtag page.
//
// The page is rendered in a real browser because the post grid is built
// client side and grows only as the user scrolls.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "igharvest/pkg/errors"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/retry"
	"igharvest/pkg/session"
)

// Page is the slice of a browser tab that discovery drives
type Page interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	// WaitReady blocks until selector matches or ctx ends
	WaitReady(ctx context.Context, selector string) error
	ScrollToBottom(ctx context.Context) error
	// HTML returns the current rendered document
	HTML(ctx context.Context) (string, error)
}

// Config holds discovery timings
type Config struct {
	BaseURL           string
	WaitTimeout       time.Duration
	SettleInterval    time.Duration
	LoginPollInterval time.Duration
	LoginTimeout      time.Duration
}

// DefaultConfig waits a minute for the first post and three seconds per scroll
func DefaultConfig() Config {
	return Config{
		BaseURL:           instagram.BaseURL,
		WaitTimeout:       60 * time.Second,
		SettleInterval:    3 * time.Second,
		LoginPollInterval: 3 * time.Second,
		LoginTimeout:      10 * time.Minute,
	}
}

// Discoverer collects post references from a hashtag page
type Discoverer struct {
	page    Page
	gate    *session.Gate
	config  Config
	sleeper retry.Sleeper
	logger  logger.Logger
}

// New creates a Discoverer. A nil gate starts unauthenticated.
func New(page Page, gate *session.Gate, cfg Config, sleeper retry.Sleeper, log logger.Logger) *Discoverer {
	if gate == nil {
		gate = session.NewGate()
	}
	if sleeper == nil {
		sleeper = retry.ContextSleeper
	}
	if log == nil {
		log = logger.GetLogger()
	}
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = defaults.WaitTimeout
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = defaults.LoginTimeout
	}
	return &Discoverer{page: page, gate: gate, config: cfg, sleeper: sleeper, logger: log}
}

// Discover opens the tag page for topic, scrolls it scrollPasses times and
// returns every post found in first-seen order. If no post link shows up
// within WaitTimeout it returns ErrDiscoveryTimeout.
func (d *Discoverer) Discover(ctx context.Context, topic string, scrollPasses int) ([]instagram.PostRef, error) {
	tagURL := instagram.GetTagURL(d.config.BaseURL, topic)
	log := d.logger.WithFields(map[string]interface{}{
		"topic": topic,
		"url":   tagURL,
	})

	if err := d.page.Navigate(ctx, tagURL); err != nil {
		return nil, fmt.Errorf("opening tag page: %w", err)
	}
	if err := d.passLoginGate(ctx, tagURL); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, d.config.WaitTimeout)
	err := d.page.WaitReady(waitCtx, PostLinkSelector)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || waitCtx.Err() != nil {
			log.WarnWithFields("no post links appeared", map[string]interface{}{
				"timeout": d.config.WaitTimeout.String(),
			})
			return nil, errs.ErrDiscoveryTimeout
		}
		return nil, fmt.Errorf("waiting for post links: %w", err)
	}

	set := newRefSet()
	if err := d.scan(ctx, set); err != nil {
		return nil, err
	}
	log.DebugWithFields("initial scan", map[string]interface{}{"posts": set.len()})

	for pass := 1; pass <= scrollPasses; pass++ {
		if err := d.page.ScrollToBottom(ctx); err != nil {
			return nil, fmt.Errorf("scroll pass %d: %w", pass, err)
		}
		if err := d.sleeper.Sleep(ctx, d.config.SettleInterval); err != nil {
			return nil, err
		}
		before := set.len()
		if err := d.scan(ctx, set); err != nil {
			return nil, err
		}
		log.DebugWithFields("scroll pass complete", map[string]interface{}{
			"pass":  pass,
			"new":   set.len() - before,
			"posts": set.len(),
		})
	}

	log.InfoWithFields("discovered posts", map[string]interface{}{
		"posts":         set.len(),
		"scroll_passes": scrollPasses,
	})
	return set.refs, nil
}

func (d *Discoverer) scan(ctx context.Context, set *refSet) error {
	html, err := d.page.HTML(ctx)
	if err != nil {
		return fmt.Errorf("reading rendered page: %w", err)
	}
	return set.scan(html)
}

// passLoginGate blocks while the browser shows the login wall, then
// returns to the tag page
func (d *Discoverer) passLoginGate(ctx context.Context, tagURL string) error {
	url, err := d.page.CurrentURL(ctx)
	if err != nil {
		return fmt.Errorf("reading current url: %w", err)
	}
	if d.gate.Observe(url) == session.Authenticated {
		return nil
	}

	d.logger.WarnWithFields("login required, waiting for manual login in the browser", map[string]interface{}{
		"url":     url,
		"timeout": d.config.LoginTimeout.String(),
	})

	loginCtx, cancel := context.WithTimeout(ctx, d.config.LoginTimeout)
	defer cancel()
	if err := d.gate.WaitForLogin(loginCtx, d.page, d.config.LoginPollInterval); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	d.logger.Info("login completed")
	if err := d.page.Navigate(ctx, tagURL); err != nil {
		return fmt.Errorf("reopening tag page: %w", err)
	}
	return nil
}
