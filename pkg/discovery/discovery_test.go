package discovery

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "igharvest/pkg/errors"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/retry"
	"igharvest/pkg/session"
)

func grid(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for _, h := range hrefs {
		b.WriteString(`<a href="` + h + `"><img></a>`)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

// fakePage serves scripted URLs and one HTML snapshot per scan
type fakePage struct {
	mu        sync.Mutex
	urls      []string
	snapshots []string
	neverPost bool
	navigated []string
	scrolls   int
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) CurrentURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.urls) == 0 {
		return "https://www.instagram.com/explore/tags/x/", nil
	}
	url := p.urls[0]
	if len(p.urls) > 1 {
		p.urls = p.urls[1:]
	}
	return url, nil
}

func (p *fakePage) WaitReady(ctx context.Context, selector string) error {
	if p.neverPost {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (p *fakePage) ScrollToBottom(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls++
	return nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	html := p.snapshots[0]
	if len(p.snapshots) > 1 {
		p.snapshots = p.snapshots[1:]
	}
	return html, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LoginPollInterval = time.Millisecond
	return cfg
}

func shortcodes(refs []instagram.PostRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Shortcode)
	}
	return out
}

func TestScanLinks(t *testing.T) {
	refs, err := ScanLinks(grid(
		"/p/A/",
		"/p/B/?img_index=1",
		"/p/A/liked_by/",
		"/p/C/comments/",
		"https://www.instagram.com/p/A/",
		"/explore/tags/other/",
		"/p/D",
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D"}, shortcodes(refs))
	assert.Equal(t, "https://www.instagram.com/p/B/", refs[1].URL)
}

func TestScanLinksEmpty(t *testing.T) {
	refs, err := ScanLinks("<html></html>")
	require.NoError(t, err)
	assert.Empty(t, refs)
	assert.NotNil(t, refs)
}

func TestDiscoverMergesScrollPasses(t *testing.T) {
	page := &fakePage{snapshots: []string{
		grid("/p/A/", "/p/B/"),
		grid("/p/A/", "/p/B/", "/p/C/"),
		grid("/p/C/", "/p/D/?x=1"),
	}}
	sleeper := &retry.RecordingSleeper{}
	d := New(page, session.NewAuthenticatedGate(), testConfig(), sleeper, logger.NewNopLogger())

	refs, err := d.Discover(context.Background(), "golang", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, shortcodes(refs))
	assert.Equal(t, 2, page.scrolls)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, sleeper.Delays())
	assert.Equal(t, []string{"https://www.instagram.com/explore/tags/golang/"}, page.navigated)
}

func TestDiscoverZeroPassesStillScans(t *testing.T) {
	page := &fakePage{snapshots: []string{grid("/p/A/")}}
	d := New(page, nil, testConfig(), &retry.RecordingSleeper{}, logger.NewNopLogger())

	refs, err := d.Discover(context.Background(), "golang", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, shortcodes(refs))
	assert.Zero(t, page.scrolls)
}

func TestDiscoverTimeout(t *testing.T) {
	page := &fakePage{neverPost: true, snapshots: []string{grid("/p/A/")}}
	cfg := testConfig()
	cfg.WaitTimeout = 10 * time.Millisecond
	d := New(page, session.NewAuthenticatedGate(), cfg, &retry.RecordingSleeper{}, logger.NewNopLogger())

	refs, err := d.Discover(context.Background(), "golang", 1)
	assert.ErrorIs(t, err, errs.ErrDiscoveryTimeout)
	assert.Empty(t, refs)
	assert.Zero(t, page.scrolls)
}

func TestDiscoverWaitsForHumanLogin(t *testing.T) {
	page := &fakePage{
		urls: []string{
			"https://www.instagram.com/accounts/login/?next=%2Fexplore%2Ftags%2Fgolang%2F",
			"https://www.instagram.com/accounts/login/",
			"https://www.instagram.com/explore/tags/golang/",
		},
		snapshots: []string{grid("/p/A/")},
	}
	gate := session.NewGate()
	signals := 0
	gate.OnAwaitingHuman = func(string) { signals++ }
	log := logger.NewTestLogger()

	d := New(page, gate, testConfig(), &retry.RecordingSleeper{}, log)
	refs, err := d.Discover(context.Background(), "golang", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, shortcodes(refs))
	assert.Equal(t, 1, signals)
	assert.Equal(t, session.Authenticated, gate.State())
	assert.Len(t, page.navigated, 2)
	assert.True(t, log.HasMessage("login completed"))
}

func TestDiscoverLoginTimeout(t *testing.T) {
	page := &fakePage{urls: []string{"https://www.instagram.com/accounts/login/"}}
	cfg := testConfig()
	cfg.LoginTimeout = 10 * time.Millisecond
	d := New(page, session.NewGate(), cfg, &retry.RecordingSleeper{}, logger.NewNopLogger())

	_, err := d.Discover(context.Background(), "golang", 1)
	assert.ErrorIs(t, err, errs.ErrLoginTimeout)
}
