package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"igharvest/pkg/auth"
	"igharvest/pkg/browser"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/pipeline"
	"igharvest/pkg/session"
	"igharvest/pkg/storage"
	"igharvest/pkg/ui"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [comments.csv]",
	Short: "Look up the commenters of an existing comments table",
	Long: `Re-run only the profile lookups over the comment_username column of a
comments table written by an earlier harvest, and write a fresh profiles table.

The session comes from the stored --account when given, otherwise the
browser is opened and you are asked to log in if needed.`,
	Example: `  igharvest enrich
  igharvest enrich ./runs/golang/comments.csv --account me`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	f := enrichCmd.Flags()
	f.StringVarP(&outputDir, "output", "o", "", "output directory (default: current directory)")
	f.StringVarP(&accountName, "account", "a", "", "stored session to use instead of the browser")
	f.BoolVar(&writeXLSX, "xlsx", false, "also write an Excel workbook")
	f.BoolVar(&headless, "headless", false, "run Chrome without a window")
	f.StringVar(&userDataDir, "user-data-dir", "", "Chrome user data directory")
	f.StringVar(&profileDirectory, "profile-directory", "", "Chrome profile directory inside the user data directory")
	f.StringVar(&chromePath, "chrome-path", "", "path to the Chrome executable")
	f.IntVar(&maxAttempts, "max-attempts", 3, "attempts per remote call")
	f.IntVar(&requestsPerMin, "rate-limit", 30, "ceiling on API requests per minute (0 disables)")
}

// cleanUsernames normalizes names read from a table and drops invalid ones
func cleanUsernames(raw []string, log logger.Logger) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		u := instagram.SanitizeUsername(r)
		if !instagram.IsValidUsername(u) {
			log.WithField("username", r).Warn("ignoring invalid username")
			continue
		}
		out = append(out, u)
	}
	return out
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, changedFlags(cmd))
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	parts, err := buildComponents(cfg, log)
	if err != nil {
		return err
	}

	input := parts.sink.Path(cfg.Output.CommentsFile)
	if len(args) == 1 {
		input = args[0]
	}
	raw, err := storage.ReadCommentUsernames(input)
	if err != nil {
		return err
	}
	usernames := cleanUsernames(raw, log)
	if len(usernames) == 0 {
		return fmt.Errorf("no usernames found in %s", input)
	}
	ui.PrintInfo("Commenters", fmt.Sprintf("%d from %s", len(usernames), input))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cookies session.CookieSource
	if cfg.Auth.Account != "" {
		cookies, err = storedSessionCookies(openSessionStore(log), cfg.Auth.Account, cfg.Instagram.BaseURL)
		if err != nil {
			return err
		}
	} else {
		br, err := launchBrowser(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer br.Close()

		gate := newGate(ui.NewNotifier(cfg.Notifications.Enabled), log)
		if err := waitForBrowserLogin(ctx, br, gate, cfg); err != nil {
			return err
		}
		cookies = br.HomeCookies(cfg.Browser.HomeSettle)
	}

	p, err := pipeline.New(pipeline.Dependencies{
		Cookies:      cookies,
		Profiles:     parts.client,
		Sink:         parts.sink,
		ProfilePacer: parts.profilePacer,
		Logger:       log,
	}, pipeline.Options{
		Workbook: cfg.Output.XLSX,
		Report:   cfg.Output.Report,
	})
	if err != nil {
		return err
	}

	result, err := p.Enrich(ctx, usernames)
	printReport(result)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// storedSessionCookies serves the saved session of account as a cookie source.
// A requested account with no usable store is an error, not a browser fallback.
func storedSessionCookies(sessions *auth.Manager, account, baseURL string) (session.CookieSource, error) {
	if sessions == nil {
		return nil, fmt.Errorf("loading session %q: %w", account, auth.ErrStoreUnavailable)
	}
	bag, err := sessions.LoadSession(account)
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", account, err)
	}
	domain := browser.CookieDomain(baseURL)
	return session.CookieSourceFunc(func(context.Context) ([]*http.Cookie, error) {
		return bag.HTTPCookies(domain), nil
	}), nil
}
