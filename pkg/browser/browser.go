// Package browser drives a local Chrome through the DevTools protocol.
//
// A Browser is one tab in a Chrome process that reuses the user's profile
// directory, so an existing Instagram login carries over. It satisfies the
// discovery page, the login gate's URL source and the session bridge's
// cookie source.
package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/session"
)

const scrollScript = `window.scrollTo(0, document.body.scrollHeight);`

// Options configures the Chrome process
type Options struct {
	ExecPath         string
	UserDataDir      string
	ProfileDirectory string
	Headless         bool
	// BaseURL scopes the cookies read and written
	BaseURL string
}

// Browser is a single Chrome tab
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opts        Options
	logger      logger.Logger
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	out := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1280, 900),
	)
	if opts.ExecPath != "" {
		out = append(out, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserDataDir != "" {
		out = append(out, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.ProfileDirectory != "" {
		out = append(out, chromedp.Flag("profile-directory", opts.ProfileDirectory))
	}
	return out
}

// Launch starts Chrome and opens a blank tab. The browser lives until Close
// or until parent is cancelled.
func Launch(parent context.Context, opts Options, log logger.Logger) (*Browser, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = instagram.BaseURL
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocatorOptions(opts)...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	log.DebugWithFields("starting browser", map[string]interface{}{
		"headless":          opts.Headless,
		"user_data_dir":     opts.UserDataDir,
		"profile_directory": opts.ProfileDirectory,
	})
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	return &Browser{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel, opts: opts, logger: log}, nil
}

// Close shuts the tab and the Chrome process
func (b *Browser) Close() {
	b.cancel()
	b.allocCancel()
}

// run executes actions on the tab, bounded by ctx's deadline and cancellation
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(b.ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(b.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url in the tab
func (b *Browser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

// CurrentURL returns the tab's location
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := b.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// WaitReady blocks until selector matches an element
func (b *Browser) WaitReady(ctx context.Context, selector string) error {
	return b.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// ScrollToBottom scrolls the document to its end to trigger lazy loading
func (b *Browser) ScrollToBottom(ctx context.Context) error {
	return b.run(ctx, chromedp.Evaluate(scrollScript, nil))
}

// HTML returns the rendered document
func (b *Browser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// OpenHome loads the home page and lets it settle so session cookies are current
func (b *Browser) OpenHome(ctx context.Context, settle time.Duration) error {
	if err := b.Navigate(ctx, b.opts.BaseURL+"/"); err != nil {
		return err
	}
	return b.run(ctx, chromedp.Sleep(settle))
}

// HomeCookies is a cookie source that first opens the home page and waits
// settle, so the bridge reads cookies of a settled session
func (b *Browser) HomeCookies(settle time.Duration) session.CookieSource {
	return session.CookieSourceFunc(func(ctx context.Context) ([]*http.Cookie, error) {
		if err := b.OpenHome(ctx, settle); err != nil {
			return nil, fmt.Errorf("opening home page: %w", err)
		}
		return b.Cookies(ctx)
	})
}

// Cookies returns every cookie the browser holds for the base URL
func (b *Browser) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var raw []*network.Cookie
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().WithURLs([]string{b.opts.BaseURL + "/"}).Do(ctx)
		if err != nil {
			return err
		}
		raw = cookies
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("reading browser cookies: %w", err)
	}

	b.logger.DebugWithFields("read browser cookies", map[string]interface{}{
		"count": len(raw),
	})
	return toHTTPCookies(raw), nil
}

// SetCookies injects cookies into the browser before navigation
func (b *Browser) SetCookies(ctx context.Context, cookies []*http.Cookie) error {
	domain := CookieDomain(b.opts.BaseURL)
	return b.run(ctx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				d := c.Domain
				if d == "" {
					d = domain
				}
				path := c.Path
				if path == "" {
					path = "/"
				}
				if err := network.SetCookie(c.Name, c.Value).
					WithDomain(d).
					WithPath(path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HttpOnly).
					Do(ctx); err != nil {
					return fmt.Errorf("setting cookie %s: %w", c.Name, err)
				}
			}
			return nil
		}),
	)
}

func toHTTPCookies(raw []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		if c == nil {
			continue
		}
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, hc)
	}
	return out
}

// CookieDomain turns a base URL into a leading-dot cookie domain
func CookieDomain(baseURL string) string {
	host := baseURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/:"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return ""
	}
	return "." + host
}
