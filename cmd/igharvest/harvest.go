package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"igharvest/pkg/discovery"
	errs "igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/pipeline"
	"igharvest/pkg/ui"
)

var (
	outputDir        string
	scrollPasses     int
	accountName      string
	saveSession      bool
	writeXLSX        bool
	headless         bool
	userDataDir      string
	profileDirectory string
	chromePath       string
	maxAttempts      int
	commentPages     int
	requestsPerMin   int
)

var harvestCmd = &cobra.Command{
	Use:   "harvest <hashtag>",
	Short: "Collect the commenters of a hashtag and their contact details",
	Long: `Open the hashtag page in Chrome, collect its posts, fetch every post's
comments and look up each distinct commenter once.

If the browser is not logged in, the run pauses and asks you to log in in the
opened window; it continues on its own once the login page is left. Press
Ctrl+C to stop early: everything collected so far is still written.`,
	Example: `  # One scroll pass over #golang
  igharvest harvest golang

  # Scroll five times and also write an Excel workbook
  igharvest harvest golang --scroll-passes 5 --xlsx

  # Reuse a stored session and refresh it after the run
  igharvest harvest golang --account me --save-session

  # Use an existing Chrome profile that is already logged in
  igharvest harvest golang --user-data-dir ~/.config/google-chrome --profile-directory "Profile 1"`,
	Args: cobra.ExactArgs(1),
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	f := harvestCmd.Flags()
	f.StringVarP(&outputDir, "output", "o", "", "output directory (default: current directory)")
	f.IntVarP(&scrollPasses, "scroll-passes", "n", 1, "number of times to scroll the hashtag page")
	f.StringVarP(&accountName, "account", "a", "", "stored session to seed the browser with")
	f.BoolVar(&saveSession, "save-session", false, "store the browser session under --account after bridging")
	f.BoolVar(&writeXLSX, "xlsx", false, "also write an Excel workbook")
	f.BoolVar(&headless, "headless", false, "run Chrome without a window (login must already be possible)")
	f.StringVar(&userDataDir, "user-data-dir", "", "Chrome user data directory")
	f.StringVar(&profileDirectory, "profile-directory", "", "Chrome profile directory inside the user data directory")
	f.StringVar(&chromePath, "chrome-path", "", "path to the Chrome executable")
	f.IntVar(&maxAttempts, "max-attempts", 3, "attempts per remote call")
	f.IntVar(&commentPages, "comment-pages", 1, "comment pages to follow per post")
	f.IntVar(&requestsPerMin, "rate-limit", 30, "ceiling on API requests per minute (0 disables)")
}

// changedFlags collects only the flags the user set
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags().Changed
	if set("output") {
		flags["output"] = outputDir
	}
	if set("scroll-passes") {
		flags["scroll-passes"] = scrollPasses
	}
	if set("account") {
		flags["account"] = accountName
	}
	if set("save-session") {
		flags["save-session"] = saveSession
	}
	if set("xlsx") {
		flags["xlsx"] = writeXLSX
	}
	if set("headless") {
		flags["headless"] = headless
	}
	if set("user-data-dir") {
		flags["user-data-dir"] = userDataDir
	}
	if set("profile-directory") {
		flags["profile-directory"] = profileDirectory
	}
	if set("chrome-path") {
		flags["chrome-path"] = chromePath
	}
	if set("max-attempts") {
		flags["max-attempts"] = maxAttempts
	}
	if set("comment-pages") {
		flags["comment-pages"] = commentPages
	}
	if set("rate-limit") {
		flags["requests-per-minute"] = requestsPerMin
	}
	return flags
}

func runHarvest(cmd *cobra.Command, args []string) error {
	flags := changedFlags(cmd)
	flags["topic"] = args[0]

	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("igharvest starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parts, err := buildComponents(cfg, log)
	if err != nil {
		return err
	}

	br, err := launchBrowser(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer br.Close()

	sessions := openSessionStore(log)
	seedBrowserSession(ctx, br, sessions, cfg.Auth.Account, cfg.Instagram.BaseURL, log)

	notifier := ui.NewNotifier(cfg.Notifications.Enabled)
	discoverer := discovery.New(br, newGate(notifier, log), discovery.Config{
		BaseURL:           cfg.Instagram.BaseURL,
		WaitTimeout:       cfg.Discovery.WaitTimeout,
		SettleInterval:    cfg.Discovery.SettleInterval,
		LoginPollInterval: cfg.Browser.LoginPollInterval,
		LoginTimeout:      cfg.Browser.LoginTimeout,
	}, nil, log)

	p, err := pipeline.New(pipeline.Dependencies{
		Discoverer:   discoverer,
		Cookies:      br.HomeCookies(cfg.Browser.HomeSettle),
		Details:      parts.client,
		Profiles:     parts.client,
		Sink:         parts.sink,
		DetailPacer:  parts.detailPacer,
		ProfilePacer: parts.profilePacer,
		Sessions:     sessionSaver(sessions),
		Logger:       log,
	}, pipeline.Options{
		Topic:        cfg.Discovery.Topic,
		ScrollPasses: cfg.Discovery.ScrollPasses,
		Account:      cfg.Auth.Account,
		SaveSession:  cfg.Auth.SaveSession,
		Workbook:     cfg.Output.XLSX,
		Report:       cfg.Output.Report,
	})
	if err != nil {
		return err
	}

	ui.PrintInfo("Hashtag", "#"+cfg.Discovery.Topic)
	ui.PrintInfo("Output", parts.sink.GetOutputDir())
	ui.PrintHighlight("[HARVEST STARTED]")

	result, err := p.Run(ctx)
	printReport(result)
	switch {
	case err == nil:
		notifier.SendSuccess("Harvest complete", result.Report.Summary())
		return nil
	case ctx.Err() != nil:
		notifier.SendNotification("Harvest interrupted", "partial results were written")
		return nil
	case errs.IsFatal(err):
		notifier.SendError("Harvest aborted", err.Error())
		return err
	default:
		return err
	}
}
