package main

import (
	"context"
	"fmt"

	"igharvest/pkg/auth"
	"igharvest/pkg/browser"
	"igharvest/pkg/config"
	"igharvest/pkg/fetch"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/pipeline"
	"igharvest/pkg/ratelimit"
	"igharvest/pkg/session"
	"igharvest/pkg/storage"
	"igharvest/pkg/ui"
)

// components are the collaborators shared by harvest and enrich
type components struct {
	client       *instagram.Client
	sink         *storage.Manager
	detailPacer  *ratelimit.Pacer
	profilePacer *ratelimit.Pacer
}

func buildComponents(cfg *config.Config, log logger.Logger) (*components, error) {
	fetcher := fetch.New(fetch.Config{
		MaxAttempts: cfg.Fetch.MaxAttempts,
		MinDelay:    cfg.Fetch.MinRetryDelay,
		MaxDelay:    cfg.Fetch.MaxRetryDelay,
		Timeout:     cfg.Fetch.RequestTimeout,
	},
		fetch.WithLimiter(ratelimit.NewCeiling(cfg.Pacing.RequestsPerMinute)),
		fetch.WithLogger(log),
	)

	client := instagram.NewClient(fetcher, instagram.ClientConfig{
		BaseURL:    cfg.Instagram.BaseURL,
		APIBaseURL: cfg.Instagram.APIBaseURL,
		AppID:      cfg.Instagram.AppID,
		QueryHash:  cfg.Instagram.QueryHash,
		PageSize:   cfg.Comments.PageSize,
		MaxPages:   cfg.Comments.MaxPages,
	}, log)

	sink, err := storage.NewManager(cfg.Output.Directory, storage.FileNames{
		Comments: cfg.Output.CommentsFile,
		Profiles: cfg.Output.ProfilesFile,
		Workbook: cfg.Output.XLSXFile,
		Report:   cfg.Output.ReportFile,
	})
	if err != nil {
		return nil, fmt.Errorf("preparing output directory: %w", err)
	}

	return &components{
		client:       client,
		sink:         sink,
		detailPacer:  ratelimit.NewPacer("detail", cfg.Pacing.DetailMinPause, cfg.Pacing.DetailMaxPause, nil, log),
		profilePacer: ratelimit.NewPacer("profile", cfg.Pacing.ProfileMinPause, cfg.Pacing.ProfileMaxPause, nil, log),
	}, nil
}

func launchBrowser(ctx context.Context, cfg *config.Config, log logger.Logger) (*browser.Browser, error) {
	br, err := browser.Launch(ctx, browser.Options{
		ExecPath:         cfg.Browser.ExecPath,
		UserDataDir:      cfg.Browser.UserDataDir,
		ProfileDirectory: cfg.Browser.ProfileDirectory,
		Headless:         cfg.Browser.Headless,
		BaseURL:          cfg.Instagram.BaseURL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	return br, nil
}

// newGate returns a login gate that tells the human when to log in
func newGate(notifier *ui.Notifier, log logger.Logger) *session.Gate {
	gate := session.NewGate()
	gate.OnAwaitingHuman = func(url string) {
		log.WithField("url", url).Warn("waiting for login in the browser window")
		notifier.LoginRequired(url)
	}
	gate.OnAuthenticated = func() {
		ui.PrintSuccess("Logged in, continuing")
	}
	return gate
}

// waitForBrowserLogin opens the login page and returns once the browser has
// left it. A browser that is already logged in is redirected away at once.
func waitForBrowserLogin(ctx context.Context, br *browser.Browser, gate *session.Gate, cfg *config.Config) error {
	if err := br.Navigate(ctx, cfg.Instagram.BaseURL+"/"+session.LoginPathMarker+"/"); err != nil {
		return fmt.Errorf("opening login page: %w", err)
	}
	loginCtx, cancel := context.WithTimeout(ctx, cfg.Browser.LoginTimeout)
	defer cancel()
	return gate.WaitForLogin(loginCtx, br, cfg.Browser.LoginPollInterval)
}

// openSessionStore returns the session manager, or nil when no store can be
// opened. A missing store only disables session reuse.
func openSessionStore(log logger.Logger) *auth.Manager {
	manager, err := auth.NewManager("")
	if err != nil {
		log.WithError(err).Warn("session store unavailable")
		return nil
	}
	return manager
}

// seedBrowserSession injects the stored session of account into the browser
// so the login gate is passed without a human
func seedBrowserSession(ctx context.Context, br *browser.Browser, manager *auth.Manager, account string, baseURL string, log logger.Logger) {
	if manager == nil || account == "" {
		return
	}
	bag, err := manager.LoadSession(account)
	if err != nil {
		log.WithError(err).WithField("account", account).Warn("no stored session, falling back to browser login")
		return
	}
	if err := br.SetCookies(ctx, bag.HTTPCookies(browser.CookieDomain(baseURL))); err != nil {
		log.WithError(err).Warn("failed to seed browser with stored session")
		return
	}
	log.WithFields(map[string]interface{}{
		"account": account,
		"cookies": len(bag),
	}).Info("seeded browser with stored session")
}

func sessionSaver(manager *auth.Manager) pipeline.SessionSaver {
	if manager == nil {
		return nil
	}
	return manager
}

func printReport(result *pipeline.Result) {
	if result == nil || result.Report == nil {
		return
	}
	rep := result.Report
	ui.PrintInfo("Run", rep.RunID)
	ui.PrintInfo("Summary", rep.Summary())
	for kind, path := range rep.Outputs {
		ui.PrintInfo("Wrote "+kind, path)
	}
	if len(rep.Skipped) > 0 {
		ui.PrintWarning("Skipped items", fmt.Sprintf("%d, listed in the run report", len(rep.Skipped)))
	}
}
